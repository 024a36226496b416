// Package handlers binds inbound client messages to the notifier, the snapshot
// publisher, the launcher and the workspace state.
package handlers

import (
	"context"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/internal/notifier"
	"github.com/1023-Ventures/qlaunch/internal/workspace"
	"github.com/1023-Ventures/qlaunch/internal/ws"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
)

// Registrar is satisfied by *ws.Hub.
type Registrar interface {
	RegisterHandler(role, msgType string, handler ws.HandlerFunc)
}

// ChangeNotifier is satisfied by *notifier.Notifier.
type ChangeNotifier interface {
	OnActiveDocumentEdit(edit notifier.DocumentEdit)
	OnWorkspaceFoldersChanged(added, removed []models.WorkspaceFolder)
	OnActiveEditorChanged(file *models.ActiveFile)
	UpdateWatchPatterns(patterns []string)
	ReportWatchPatterns()
}

// Launcher is satisfied by *launcher.Launcher.
type Launcher interface {
	OpenWithOS(ctx context.Context, path, method string) error
	OpenTerminalAt(ctx context.Context, folder string) error
	SwitchToExplorer(ctx context.Context) error
}

// RootWatcher is satisfied by *watcher.Watcher.
type RootWatcher interface {
	AddRoot(root string) error
	RemoveRoot(root string)
}

type Handlers struct {
	ctx       context.Context
	Notifier  ChangeNotifier
	Snapshots notifier.SnapshotRequester
	Launcher  Launcher
	Workspace *workspace.Workspace
	Watcher   RootWatcher
	log       logger.Logger
}

func NewHandler(
	ctx context.Context,
	n ChangeNotifier,
	snapshots notifier.SnapshotRequester,
	l Launcher,
	wsState *workspace.Workspace,
	w RootWatcher,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		ctx:       ctx,
		Notifier:  n,
		Snapshots: snapshots,
		Launcher:  l,
		Workspace: wsState,
		Watcher:   w,
		log:       log,
	}
}

func (h *Handlers) RegisterHandlers(r Registrar) {
	ui := func(msgType string, fn ws.HandlerFunc) { r.RegisterHandler(ws.RoleUI, msgType, fn) }
	ui(models.CmdGetWorkspaceInfo, h.GetWorkspaceInfo)
	ui(models.CmdWebviewReady, h.WebviewReady)
	ui(models.CmdUpdateWatchPatterns, h.UpdateWatchPatterns)
	ui(models.CmdGetWatchPatterns, h.GetWatchPatterns)
	ui(models.CmdSwitchToExplorer, h.SwitchToExplorer)
	ui(models.CmdOpenWithOS, h.OpenWithOS)
	ui(models.CmdOpenTerminalAt, h.OpenTerminalAt)
	ui(models.CmdVisibilityChanged, h.VisibilityChanged)

	editor := func(msgType string, fn ws.HandlerFunc) { r.RegisterHandler(ws.RoleEditor, msgType, fn) }
	editor(models.EditorEvtState, h.EditorState)
	editor(models.EditorEvtActiveChanged, h.EditorActiveChanged)
	editor(models.EditorEvtDocumentChange, h.EditorDocumentChanged)
	editor(models.EditorEvtFoldersChanged, h.EditorFoldersChanged)
}
