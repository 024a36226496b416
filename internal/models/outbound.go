package models

// Notifications sent to UI clients.
const (
	MsgFileSystemChange       = "fileSystemChange"
	MsgWorkspaceFoldersChange = "workspaceFoldersChange"
	MsgActiveEditorChange     = "activeEditorChange"
	MsgActiveDocumentChange   = "activeDocumentChange"
	MsgWatchPatternsUpdated   = "watchPatternsUpdated"
	MsgWatchPatterns          = "watchPatterns"
	MsgWorkspaceInfo          = "workspaceInfo"
	MsgShowErrorMessage       = "showErrorMessage"
	MsgTerminalOpened         = "terminalOpened"
	MsgTerminalClosed         = "terminalClosed"
)

// Messages sent to editor bridge clients.
const (
	EditorMsgExecuteCommand   = "executeCommand"
	EditorMsgOpenDocument     = "openDocument"
	EditorMsgShowErrorMessage = "showErrorMessage"
)

type FileSystemChange struct {
	Type      string `json:"type"`
	URI       string `json:"uri"`
	Pattern   string `json:"pattern"`
	Timestamp int64  `json:"timestamp"`
}

type WorkspaceFoldersChange struct {
	Added     []WorkspaceFolder `json:"added"`
	Removed   []WorkspaceFolder `json:"removed"`
	Timestamp int64             `json:"timestamp"`
}

type ActiveEditorChange struct {
	ActiveFile *ActiveFile `json:"activeFile"`
	Timestamp  int64       `json:"timestamp"`
}

type ActiveDocumentChange struct {
	FileName    string `json:"fileName"`
	IsDirty     bool   `json:"isDirty"`
	ChangeCount int    `json:"changeCount"`
	Timestamp   int64  `json:"timestamp"`
}

type WatchPatternsUpdated struct {
	Patterns  []string `json:"patterns"`
	Timestamp int64    `json:"timestamp"`
}

type WatchPatterns struct {
	Patterns     []string `json:"patterns"`
	WatcherCount int      `json:"watcherCount"`
	Timestamp    int64    `json:"timestamp"`
}

type ErrorMessage struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type TerminalInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Cwd       string `json:"cwd"`
	Pid       int    `json:"pid,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type ExecuteCommand struct {
	Command string `json:"command"`
}

type OpenDocument struct {
	Path string `json:"path"`
}
