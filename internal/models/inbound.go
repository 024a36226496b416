package models

// Commands accepted from UI clients.
const (
	CmdGetWorkspaceInfo    = "getWorkspaceInfo"
	CmdWebviewReady        = "webviewReady"
	CmdUpdateWatchPatterns = "updateWatchPatterns"
	CmdGetWatchPatterns    = "getWatchPatterns"
	CmdSwitchToExplorer    = "switchToExplorer"
	CmdOpenWithOS          = "openWithOS"
	CmdOpenTerminalAt      = "openTerminalAt"
	CmdVisibilityChanged   = "visibilityChanged"
)

// Events reported by the editor bridge.
const (
	EditorEvtState          = "editorState"
	EditorEvtActiveChanged  = "editorActiveChanged"
	EditorEvtDocumentChange = "editorDocumentChanged"
	EditorEvtFoldersChanged = "editorFoldersChanged"
)

// Open methods for CmdOpenWithOS.
const (
	OpenDefault        = "default"
	OpenVSCode         = "vscode"
	OpenExplorer       = "explorer"
	OpenFolder         = "folder"
	OpenVSCodeTerminal = "vscode-terminal"
)

type OpenWithOSCommand struct {
	FilePath   string `json:"filePath"`
	OpenMethod string `json:"openMethod"`
}

type OpenTerminalAtCommand struct {
	FolderPath string `json:"folderPath"`
}

type VisibilityCommand struct {
	Visible bool `json:"visible"`
}

type EditorState struct {
	WorkspaceName string            `json:"workspaceName"`
	WorkspaceFile string            `json:"workspaceFile"`
	Folders       []WorkspaceFolder `json:"workspaceFolders"`
	ActiveFile    *ActiveFile       `json:"activeFile"`
	Extensions    []Extension       `json:"extensions"`
}

type EditorActiveChanged struct {
	ActiveFile *ActiveFile `json:"activeFile"`
}

type ContentChange struct {
	TextLength  int `json:"textLength"`
	RangeLength int `json:"rangeLength"`
}

type EditorDocumentChanged struct {
	FileName string          `json:"fileName"`
	IsDirty  bool            `json:"isDirty"`
	Changes  []ContentChange `json:"contentChanges"`
}

// Meaningful reports whether any change inserted text or replaced a range.
func (e EditorDocumentChanged) Meaningful() bool {
	for _, c := range e.Changes {
		if c.TextLength > 0 || c.RangeLength > 0 {
			return true
		}
	}
	return false
}

type EditorFoldersChanged struct {
	Added   []WorkspaceFolder `json:"added"`
	Removed []WorkspaceFolder `json:"removed"`
}
