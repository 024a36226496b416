package watcher

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
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

var ErrStopped = errors.New("watcher stopped")

// Watcher monitors the workspace roots and routes changes to per-pattern
// subscriptions. Patterns are matched against the path relative to the root
// that contains it.
type Watcher struct {
	filterConfig FilterConfig
	fsWatcher    *fsnotify.Watcher
	log          logger.Logger

	mu      sync.RWMutex
	roots   []string
	subs    map[uint64]*subscription
	nextID  uint64
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type subscription struct {
	id      uint64
	pattern string
	handler func(host.ChangeKind, string)
	w       *Watcher
	once    sync.Once
}

func (s *subscription) Dispose() {
	s.once.Do(func() {
		s.w.mu.Lock()
		delete(s.w.subs, s.id)
		s.w.mu.Unlock()
	})
}

// NewWatcher creates a new file system watcher over roots
func NewWatcher(roots []string, filterConfig FilterConfig, appCtx context.Context, log logger.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(appCtx)
	return &Watcher{
		filterConfig: filterConfig,
		fsWatcher:    fsWatcher,
		log:          log,
		roots:        cleanRoots(roots),
		subs:         make(map[uint64]*subscription),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start registers every root and begins dispatching events
func (w *Watcher) Start() error {
	w.mu.RLock()
	roots := slices.Clone(w.roots)
	w.mu.RUnlock()
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			w.log.Warn("Failed to watch workspace root", "path", root, "err", err)
		}
	}
	w.log.Info("File watcher started", "roots", roots)
	w.wg.Add(2)
	go w.eventLoop()
	go w.errorLoop()
	return nil
}

// Stop stops the watcher and drops all subscriptions
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.subs = make(map[uint64]*subscription)
	w.mu.Unlock()

	w.cancel()
	w.fsWatcher.Close()
	w.wg.Wait()
	w.log.Info("File watcher stopped")
}

// Watch implements host.WatchSource
func (w *Watcher) Watch(pattern string, handler func(host.ChangeKind, string)) (host.Subscription, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil, ErrStopped
	}
	w.nextID++
	sub := &subscription{id: w.nextID, pattern: pattern, handler: handler, w: w}
	w.subs[sub.id] = sub
	return sub, nil
}

// AddRoot starts watching another workspace root
func (w *Watcher) AddRoot(root string) error {
	root = filepath.Clean(root)
	w.mu.Lock()
	if slices.Contains(w.roots, root) {
		w.mu.Unlock()
		return nil
	}
	w.roots = append(w.roots, root)
	w.mu.Unlock()
	return w.addTree(root)
}

// RemoveRoot stops watching a workspace root and everything below it
func (w *Watcher) RemoveRoot(root string) {
	root = filepath.Clean(root)
	w.mu.Lock()
	w.roots = slices.DeleteFunc(w.roots, func(r string) bool { return r == root })
	remaining := slices.Clone(w.roots)
	w.mu.Unlock()

	for _, path := range w.fsWatcher.WatchList() {
		if !within(root, path) {
			continue
		}
		// a nested root keeps its watches
		if slices.ContainsFunc(remaining, func(r string) bool { return within(r, path) }) {
			continue
		}
		_ = w.fsWatcher.Remove(path)
	}
	w.log.Info("Stopped watching workspace root", "path", root)
}

func (w *Watcher) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.roots)
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		}
	}
}

func (w *Watcher) errorLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Error("File watcher error", "err", err)
		}
	}
}

// handleEvent processes a single fsnotify event. Handlers run outside the lock so
// they may dispose subscriptions.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	kind, ok := changeKind(event.Op)
	if !ok {
		return
	}
	if kind == host.Created && w.filterConfig.WatchSubdirectories {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("Failed to watch new subdirectory", "path", event.Name, "err", err)
			}
		}
	}

	// Nested roots can both contain the path; each subscription fires once.
	var targets []func(host.ChangeKind, string)
	seen := make(map[uint64]struct{})
	w.mu.RLock()
	for _, root := range w.roots {
		rel, ok := relativeTo(root, event.Name)
		if !ok || rel == "." {
			continue
		}
		if !w.filterConfig.ShouldProcess(rel) {
			continue
		}
		slashed := filepath.ToSlash(rel)
		for id, sub := range w.subs {
			if _, ok := seen[id]; ok {
				continue
			}
			if matched, err := doublestar.Match(sub.pattern, slashed); err == nil && matched {
				seen[id] = struct{}{}
				targets = append(targets, sub.handler)
			}
		}
	}
	w.mu.RUnlock()

	for _, handler := range targets {
		handler(kind, event.Name)
	}
}

// addTree adds path and, when configured, every non-skipped directory below it
func (w *Watcher) addTree(path string) error {
	if !w.filterConfig.WatchSubdirectories {
		return w.fsWatcher.Add(path)
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			return nil // Continue on error
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && w.filterConfig.skipsDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(p); err != nil {
			w.log.Warn("Failed to watch subdirectory", "path", p, "err", err)
		}
		return nil
	})
}

func relativeTo(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func within(root, path string) bool {
	_, ok := relativeTo(root, path)
	return ok
}

func cleanRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		r = filepath.Clean(r)
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}
