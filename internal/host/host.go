// Package host describes the platform capabilities qlaunch is built on: watching
// files, answering workspace queries and launching things. The daemon supplies
// local implementations; tests supply fakes.
package host

import (
	"context"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/models"
)

// ChangeKind is the kind of a file system change, using the UI wire names.
type ChangeKind string

const (
	Created  ChangeKind = "created"
	Deleted  ChangeKind = "deleted"
	Modified ChangeKind = "changed"
)

// WatchSource creates one subscription per glob pattern. The handler receives
// absolute paths and may be called from any goroutine.
type WatchSource interface {
	Watch(pattern string, handler func(kind ChangeKind, path string)) (Subscription, error)
}

type DirEntry struct {
	Name  string
	IsDir bool
}

type FileStat struct {
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Workspace answers state reads and discovery queries.
type Workspace interface {
	Folders() []models.WorkspaceFolder
	Name() string
	WorkspaceFile() string
	ActiveEditor() *models.ActiveFile
	Extensions() []models.Extension

	// FindFiles returns absolute paths under every workspace root matching glob.
	FindFiles(ctx context.Context, glob string) ([]string, error)
	ReadDir(ctx context.Context, path string) ([]DirEntry, error)
	Stat(ctx context.Context, path string) (FileStat, error)
}

// Launcher opens paths and terminals and talks to the user.
type Launcher interface {
	OpenExternal(ctx context.Context, path string) error
	OpenInEditor(ctx context.Context, path string) error
	OpenTerminal(ctx context.Context, cwd string) error
	ExecuteCommand(ctx context.Context, command string) error
	ShowErrorMessage(message string)
}
