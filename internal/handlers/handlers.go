package handlers

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/internal/notifier"
	"github.com/1023-Ventures/qlaunch/internal/ws"
)

func (h *Handlers) GetWorkspaceInfo(_ *models.Inbound, _ *ws.Connection) error {
	h.Snapshots.RequestSnapshot()
	return nil
}

func (h *Handlers) WebviewReady(_ *models.Inbound, _ *ws.Connection) error {
	h.Snapshots.RequestSnapshot()
	h.Notifier.ReportWatchPatterns()
	return nil
}

// UpdateWatchPatterns ignores commands whose patterns field is not a list of
// strings.
func (h *Handlers) UpdateWatchPatterns(msg *models.Inbound, _ *ws.Connection) error {
	var body struct {
		Patterns json.RawMessage `json:"patterns"`
	}
	if err := msg.Decode(&body); err != nil {
		h.log.Debug("Ignoring malformed updateWatchPatterns", "err", err)
		return nil
	}
	var patterns []string
	if len(body.Patterns) == 0 || json.Unmarshal(body.Patterns, &patterns) != nil || patterns == nil {
		h.log.Debug("Ignoring updateWatchPatterns without a pattern list")
		return nil
	}
	h.Notifier.UpdateWatchPatterns(patterns)
	return nil
}

func (h *Handlers) GetWatchPatterns(_ *models.Inbound, _ *ws.Connection) error {
	h.Notifier.ReportWatchPatterns()
	return nil
}

func (h *Handlers) SwitchToExplorer(_ *models.Inbound, _ *ws.Connection) error {
	return h.Launcher.SwitchToExplorer(h.ctx)
}

func (h *Handlers) OpenWithOS(msg *models.Inbound, _ *ws.Connection) error {
	var cmd models.OpenWithOSCommand
	if err := msg.Decode(&cmd); err != nil {
		h.log.Debug("Ignoring malformed openWithOS", "err", err)
		return nil
	}
	if cmd.FilePath == "" {
		return nil
	}
	// failures are already reported to the user by the launcher
	_ = h.Launcher.OpenWithOS(h.ctx, cmd.FilePath, cmd.OpenMethod)
	return nil
}

func (h *Handlers) OpenTerminalAt(msg *models.Inbound, _ *ws.Connection) error {
	var cmd models.OpenTerminalAtCommand
	if err := msg.Decode(&cmd); err != nil {
		h.log.Debug("Ignoring malformed openTerminalAt", "err", err)
		return nil
	}
	if cmd.FolderPath == "" {
		return nil
	}
	_ = h.Launcher.OpenTerminalAt(h.ctx, cmd.FolderPath)
	return nil
}

func (h *Handlers) VisibilityChanged(msg *models.Inbound, _ *ws.Connection) error {
	var cmd models.VisibilityCommand
	if err := msg.Decode(&cmd); err != nil {
		h.log.Debug("Ignoring malformed visibilityChanged", "err", err)
		return nil
	}
	if cmd.Visible {
		h.log.Debug("UI became visible, refreshing workspace info")
		h.Snapshots.RequestSnapshot()
	}
	return nil
}

// EditorState is the full sync an editor sends when it connects.
func (h *Handlers) EditorState(msg *models.Inbound, _ *ws.Connection) error {
	var st models.EditorState
	if err := msg.Decode(&st); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	h.Workspace.SetIdentity(st.WorkspaceName, st.WorkspaceFile)
	h.Workspace.SetActiveEditor(st.ActiveFile)
	h.Workspace.SetExtensions(st.Extensions)

	var added, removed []models.WorkspaceFolder
	if st.Folders != nil {
		current := h.Workspace.Folders()
		for _, f := range current {
			if !slices.ContainsFunc(st.Folders, sameFolder(f)) {
				removed = append(removed, f)
			}
		}
		added, removed = h.Workspace.ApplyFolderChange(st.Folders, removed)
	}
	h.log.Info("Editor state synced", "workspace", st.WorkspaceName, "folders", len(st.Folders), "extensions", len(st.Extensions))

	if len(added) > 0 || len(removed) > 0 {
		h.applyRoots(added, removed)
		h.Notifier.OnWorkspaceFoldersChanged(added, removed)
		return nil
	}
	h.Snapshots.RequestSnapshot()
	return nil
}

func (h *Handlers) EditorActiveChanged(msg *models.Inbound, _ *ws.Connection) error {
	var evt models.EditorActiveChanged
	if err := msg.Decode(&evt); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	h.Workspace.SetActiveEditor(evt.ActiveFile)
	h.Notifier.OnActiveEditorChanged(evt.ActiveFile)
	return nil
}

// EditorDocumentChanged forwards edits to the active document that insert text
// or replace a range. Everything else is dropped.
func (h *Handlers) EditorDocumentChanged(msg *models.Inbound, _ *ws.Connection) error {
	var evt models.EditorDocumentChanged
	if err := msg.Decode(&evt); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	if !h.Workspace.IsActive(evt.FileName) || !evt.Meaningful() {
		return nil
	}
	h.Notifier.OnActiveDocumentEdit(notifier.DocumentEdit{
		Path:      evt.FileName,
		IsDirty:   evt.IsDirty,
		EditCount: len(evt.Changes),
	})
	return nil
}

func (h *Handlers) EditorFoldersChanged(msg *models.Inbound, _ *ws.Connection) error {
	var evt models.EditorFoldersChanged
	if err := msg.Decode(&evt); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	added, removed := h.Workspace.ApplyFolderChange(evt.Added, evt.Removed)
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}
	h.applyRoots(added, removed)
	h.Notifier.OnWorkspaceFoldersChanged(added, removed)
	return nil
}

func (h *Handlers) applyRoots(added, removed []models.WorkspaceFolder) {
	if h.Watcher == nil {
		return
	}
	for _, f := range removed {
		h.Watcher.RemoveRoot(f.URI)
	}
	for _, f := range added {
		if f.Scheme != "" && f.Scheme != "file" {
			continue
		}
		if err := h.Watcher.AddRoot(f.URI); err != nil {
			h.log.Warn("Failed to watch workspace folder", "path", f.URI, "err", err)
		}
	}
}

func sameFolder(f models.WorkspaceFolder) func(models.WorkspaceFolder) bool {
	return func(o models.WorkspaceFolder) bool {
		return filepath.Clean(o.URI) == f.URI
	}
}
