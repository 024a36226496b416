// Package workspace holds the workspace state reported by the editor bridge and
// answers discovery queries against the local disk.
package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/1023-Ventures/qlaunch/internal/host"
	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are never descended into by FindFiles.
var skipDirs = []string{".git", ".hg", ".svn", "node_modules"}

// Workspace implements host.Workspace.
type Workspace struct {
	mu            sync.RWMutex
	name          string
	workspaceFile string
	folders       []models.WorkspaceFolder
	active        *models.ActiveFile
	extensions    []models.Extension
	log           logger.Logger
}

func New(name, workspaceFile string, roots []string) *Workspace {
	w := &Workspace{name: name, workspaceFile: workspaceFile, log: logger.Discard()}
	for _, r := range roots {
		w.folders = append(w.folders, Folder(r))
	}
	return w
}

// SetLogger replaces the discard logger New installs.
func (w *Workspace) SetLogger(log logger.Logger) {
	if log != nil {
		w.log = log
	}
}

// Folder builds a file-scheme folder descriptor for path.
func Folder(path string) models.WorkspaceFolder {
	path = filepath.Clean(path)
	return models.WorkspaceFolder{Name: filepath.Base(path), URI: path, Scheme: "file"}
}

func (w *Workspace) Folders() []models.WorkspaceFolder {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.folders)
}

func (w *Workspace) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	roots := make([]string, 0, len(w.folders))
	for _, f := range w.folders {
		if f.Scheme == "" || f.Scheme == "file" {
			roots = append(roots, f.URI)
		}
	}
	return roots
}

func (w *Workspace) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.name == "" {
		return "No workspace"
	}
	return w.name
}

func (w *Workspace) WorkspaceFile() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.workspaceFile
}

func (w *Workspace) ActiveEditor() *models.ActiveFile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.active == nil {
		return nil
	}
	cp := *w.active
	return &cp
}

func (w *Workspace) Extensions() []models.Extension {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.extensions)
}

// SetActiveEditor records the active file; nil clears it.
func (w *Workspace) SetActiveEditor(f *models.ActiveFile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f == nil {
		w.active = nil
		return
	}
	cp := *f
	w.active = &cp
}

// IsActive reports whether path is the file in the active editor.
func (w *Workspace) IsActive(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active != nil && w.active.FileName == path
}

func (w *Workspace) SetExtensions(exts []models.Extension) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.extensions = slices.Clone(exts)
}

// SetIdentity replaces the workspace name and file; empty values keep the current ones.
func (w *Workspace) SetIdentity(name, workspaceFile string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if name != "" {
		w.name = name
	}
	if workspaceFile != "" {
		w.workspaceFile = workspaceFile
	}
}

// ApplyFolderChange adds and removes folders by URI and returns what actually
// changed. Adding a known folder or removing an unknown one is not a change.
func (w *Workspace) ApplyFolderChange(added, removed []models.WorkspaceFolder) (gotAdded, gotRemoved []models.WorkspaceFolder) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range removed {
		uri := filepath.Clean(r.URI)
		idx := slices.IndexFunc(w.folders, func(f models.WorkspaceFolder) bool { return f.URI == uri })
		if idx < 0 {
			continue
		}
		gotRemoved = append(gotRemoved, w.folders[idx])
		w.folders = slices.Delete(w.folders, idx, idx+1)
	}
	for _, a := range added {
		a.URI = filepath.Clean(a.URI)
		if a.Name == "" {
			a.Name = filepath.Base(a.URI)
		}
		if a.Scheme == "" {
			a.Scheme = "file"
		}
		if slices.ContainsFunc(w.folders, func(f models.WorkspaceFolder) bool { return f.URI == a.URI }) {
			continue
		}
		w.folders = append(w.folders, a)
		gotAdded = append(gotAdded, a)
	}
	return gotAdded, gotRemoved
}

// FindFiles walks every root and returns absolute paths of entries, files and
// directories, whose root-relative path matches glob. A root that cannot be
// walked is logged and skipped, and unreadable subdirectories are passed over,
// so the other roots still answer. Only cancellation fails the query.
func (w *Workspace) FindFiles(ctx context.Context, glob string) ([]string, error) {
	if !doublestar.ValidatePattern(glob) {
		return nil, doublestar.ErrBadPattern
	}
	var out []string
	for _, root := range w.Roots() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			w.log.Warn("Skipping unreadable workspace root", "root", root, "err", err)
			continue
		}
		if !info.IsDir() {
			w.log.Warn("Skipping workspace root that is not a directory", "root", root)
			continue
		}
		err = doublestar.GlobWalk(os.DirFS(root), glob, func(p string, d fs.DirEntry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if inSkippedDir(p) {
				if d.IsDir() {
					return doublestar.SkipDir
				}
				return nil
			}
			out = append(out, filepath.Join(root, filepath.FromSlash(p)))
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			w.log.Warn("Workspace root walk failed", "root", root, "glob", glob, "err", err)
		}
	}
	return out, nil
}

func inSkippedDir(slashPath string) bool {
	for _, part := range strings.Split(slashPath, "/") {
		if slices.Contains(skipDirs, part) {
			return true
		}
	}
	return false
}

func (w *Workspace) ReadDir(ctx context.Context, path string) ([]host.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]host.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, host.DirEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return out, nil
}

func (w *Workspace) Stat(ctx context.Context, path string) (host.FileStat, error) {
	if err := ctx.Err(); err != nil {
		return host.FileStat{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return host.FileStat{}, err
	}
	return host.FileStat{IsDir: info.IsDir(), Size: info.Size(), ModTime: info.ModTime()}, nil
}
