package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/fatih/color"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgBlue)
	dim     = color.New(color.Faint)
	warn    = color.New(color.FgRed)
)

func printSnapshot(w io.Writer, info models.WorkspaceInfo) {
	heading.Fprintf(w, "%s\n", info.WorkspaceName)
	if info.WorkspaceFile != nil {
		dim.Fprintf(w, "  %s\n", *info.WorkspaceFile)
	}
	if info.ActiveFile != nil {
		dirty := ""
		if info.ActiveFile.IsDirty {
			dirty = " (modified)"
		}
		label.Fprint(w, "Active: ")
		fmt.Fprintf(w, "%s%s\n", info.ActiveFile.FileName, dirty)
	}

	section := func(title string, items []string) {
		label.Fprintf(w, "%s (%d)\n", title, len(items))
		for _, it := range items {
			fmt.Fprintf(w, "  %s\n", it)
		}
	}
	folders := make([]string, 0, len(info.WorkspaceFolders))
	for _, f := range info.WorkspaceFolders {
		folders = append(folders, f.URI)
	}
	section("Folders", folders)
	section("Solutions", info.SlnFiles)
	section("Workspaces", info.CodeWorkspaceFiles)
	section("Deploy folders", info.DeployFolders)
	label.Fprintf(w, "Extensions (%d)\n", len(info.Extensions))
	dim.Fprintf(w, "as of %s\n", formatMillis(info.Timestamp))
}

// printPatterns prints the watch set; a negative count is omitted.
func printPatterns(w io.Writer, patterns []string, watchers int) {
	if watchers >= 0 {
		label.Fprintf(w, "Watching %d pattern(s) with %d watcher(s)\n", len(patterns), watchers)
	} else {
		label.Fprintf(w, "Watch patterns updated (%d)\n", len(patterns))
	}
	for _, p := range patterns {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

// printNotification writes a one-line summary of a daemon notification.
func printNotification(w io.Writer, msg *models.Inbound) {
	var env envelope
	if err := msg.Decode(&env); err != nil {
		warn.Fprintf(w, "malformed %s message: %v\n", msg.Type, err)
		return
	}
	tag := func(c *color.Color) { c.Fprintf(w, "%-24s ", msg.Type) }

	switch msg.Type {
	case models.MsgFileSystemChange:
		var d models.FileSystemChange
		_ = json.Unmarshal(env.Data, &d)
		tag(color.New(color.FgYellow))
		fmt.Fprintf(w, "%-8s %s ", d.Type, d.URI)
		dim.Fprintf(w, "[%s]\n", d.Pattern)
	case models.MsgActiveDocumentChange:
		var d models.ActiveDocumentChange
		_ = json.Unmarshal(env.Data, &d)
		tag(color.New(color.FgMagenta))
		fmt.Fprintf(w, "%s changes=%d dirty=%t\n", d.FileName, d.ChangeCount, d.IsDirty)
	case models.MsgActiveEditorChange:
		var d models.ActiveEditorChange
		_ = json.Unmarshal(env.Data, &d)
		tag(color.New(color.FgMagenta))
		if d.ActiveFile == nil {
			dim.Fprintln(w, "no active editor")
		} else {
			fmt.Fprintf(w, "%s (%s)\n", d.ActiveFile.FileName, d.ActiveFile.LanguageID)
		}
	case models.MsgWorkspaceFoldersChange:
		var d models.WorkspaceFoldersChange
		_ = json.Unmarshal(env.Data, &d)
		tag(color.New(color.FgGreen))
		fmt.Fprintf(w, "+%s -%s\n", folderNames(d.Added), folderNames(d.Removed))
	case models.MsgWatchPatterns, models.MsgWatchPatternsUpdated:
		var d models.WatchPatterns
		_ = json.Unmarshal(env.Data, &d)
		tag(color.New(color.FgBlue))
		fmt.Fprintln(w, strings.Join(d.Patterns, " "))
	case models.MsgWorkspaceInfo:
		var d models.WorkspaceInfo
		_ = json.Unmarshal(env.Data, &d)
		tag(color.New(color.FgCyan))
		fmt.Fprintf(w, "%s folders=%d sln=%d workspaces=%d deploy=%d\n",
			d.WorkspaceName, len(d.WorkspaceFolders), len(d.SlnFiles), len(d.CodeWorkspaceFiles), len(d.DeployFolders))
	case models.MsgShowErrorMessage:
		var d models.ErrorMessage
		_ = json.Unmarshal(env.Data, &d)
		tag(warn)
		fmt.Fprintln(w, d.Message)
	case models.MsgTerminalOpened, models.MsgTerminalClosed:
		var d models.TerminalInfo
		_ = json.Unmarshal(env.Data, &d)
		tag(color.New(color.FgGreen))
		fmt.Fprintf(w, "%s %s\n", d.Name, d.Cwd)
	default:
		tag(dim)
		fmt.Fprintln(w, string(env.Data))
	}
}

func folderNames(folders []models.WorkspaceFolder) string {
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		names = append(names, f.Name)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "unknown"
	}
	return time.UnixMilli(ms).Format(time.RFC3339)
}
