package models

type WorkspaceFolder struct {
	Name   string `json:"name"`
	URI    string `json:"uri"`
	Scheme string `json:"scheme"`
}

type ActiveFile struct {
	FileName   string `json:"fileName"`
	LanguageID string `json:"languageId"`
	IsUntitled bool   `json:"isUntitled"`
	IsDirty    bool   `json:"isDirty"`
}

type Extension struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Version     string `json:"version"`
}

// WorkspaceInfo is the snapshot delivered as MsgWorkspaceInfo.
type WorkspaceInfo struct {
	WorkspaceFolders   []WorkspaceFolder `json:"workspaceFolders"`
	ActiveFile         *ActiveFile       `json:"activeFile"`
	WorkspaceName      string            `json:"workspaceName"`
	WorkspaceFile      *string           `json:"workspaceFile"`
	Extensions         []Extension       `json:"extensions"`
	SlnFiles           []string          `json:"slnFiles"`
	CodeWorkspaceFiles []string          `json:"codeWorkspaceFiles"`
	DeployFolders      []string          `json:"deployFolders"`
	Timestamp          int64             `json:"timestamp"`
}
