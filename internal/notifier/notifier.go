// Package notifier turns bursty host change signals into the notification stream
// consumed by UI clients.
//
// File system, folder and active editor changes pass straight through. Edits to
// the active document are rate limited: the first edit after a quiet period is
// emitted at once, later edits inside the throttle window collapse into a single
// trailing emission carrying the latest edit. After every document emission a
// short settle window drops further edits outright.
package notifier

import (
	"sync"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/host"
	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
)

const (
	DefaultThrottleWindow = 500 * time.Millisecond
	DefaultSettleWindow   = 50 * time.Millisecond
)

type Options struct {
	ThrottleWindow time.Duration
	SettleWindow   time.Duration
	// Patterns is the initial watch set; empty means DefaultPatterns.
	Patterns []string
	Clock    Clock
	Logger   logger.Logger
}

// DocumentEdit is an edit batch on the active document.
type DocumentEdit struct {
	Path      string
	IsDirty   bool
	EditCount int
}

// Notifier holds all throttling state. Every entry point and timer callback runs
// under mu, which gives the same serialisation as a single event loop.
type Notifier struct {
	mu        sync.Mutex
	sink      Sink
	snapshots SnapshotRequester
	patterns  *PatternManager
	clock     Clock
	log       logger.Logger
	throttle  time.Duration
	settle    time.Duration

	lastEmit    time.Time
	inFlight    bool
	settleTimer Timer
	settleGen   uint64
	pending     Timer
	pendingGen  uint64
	pendingEdit DocumentEdit
	disposed    bool
}

// New creates a Notifier and subscribes to the initial watch patterns.
func New(source host.WatchSource, sink Sink, snapshots SnapshotRequester, opts Options) *Notifier {
	if opts.ThrottleWindow <= 0 {
		opts.ThrottleWindow = DefaultThrottleWindow
	}
	if opts.SettleWindow <= 0 {
		opts.SettleWindow = DefaultSettleWindow
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	n := &Notifier{
		sink:      sink,
		snapshots: snapshots,
		clock:     opts.Clock,
		log:       opts.Logger,
		throttle:  opts.ThrottleWindow,
		settle:    opts.SettleWindow,
	}
	n.patterns = NewPatternManager(source, n.patternHandler, opts.Logger)

	n.mu.Lock()
	n.patterns.Update(opts.Patterns)
	n.mu.Unlock()
	return n
}

func (n *Notifier) patternHandler(pattern string) func(host.ChangeKind, string) {
	return func(kind host.ChangeKind, path string) {
		n.OnFileSystemEvent(kind, path, pattern)
	}
}

// OnFileSystemEvent emits a fileSystemChange immediately. Events tagged with a
// pattern that is no longer watched are dropped.
func (n *Notifier) OnFileSystemEvent(kind host.ChangeKind, path, pattern string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed || !n.patterns.Contains(pattern) {
		return
	}
	n.log.Debug("File system change detected", "type", kind, "path", path, "pattern", pattern)
	n.sink.Broadcast(models.Message{
		Type: models.MsgFileSystemChange,
		Payload: models.FileSystemChange{
			Type:      string(kind),
			URI:       path,
			Pattern:   pattern,
			Timestamp: n.clock.Now().UnixMilli(),
		},
	})
}

// OnActiveDocumentEdit applies the throttle and trailing debounce to an edit.
func (n *Notifier) OnActiveDocumentEdit(edit DocumentEdit) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed || n.inFlight {
		return
	}
	now := n.clock.Now()
	if n.lastEmit.IsZero() || now.Sub(n.lastEmit) >= n.throttle {
		n.cancelPendingLocked()
		n.emitDocumentLocked(edit, now)
		return
	}
	n.cancelPendingLocked()
	n.pendingEdit = edit
	gen := n.pendingGen
	n.pending = n.clock.AfterFunc(n.throttle, func() { n.fireDeferred(gen) })
}

func (n *Notifier) fireDeferred(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed || n.pending == nil || gen != n.pendingGen {
		return
	}
	n.pending = nil
	n.pendingGen++
	n.emitDocumentLocked(n.pendingEdit, n.clock.Now())
}

// cancelPendingLocked stops the deferred emission and invalidates its callback in
// case the timer already fired and is waiting on mu.
func (n *Notifier) cancelPendingLocked() {
	if n.pending != nil {
		n.pending.Stop()
		n.pending = nil
	}
	n.pendingGen++
}

func (n *Notifier) emitDocumentLocked(edit DocumentEdit, now time.Time) {
	n.lastEmit = now
	n.log.Debug("Active document changed", "path", edit.Path, "changes", edit.EditCount)
	n.sink.Broadcast(models.Message{
		Type: models.MsgActiveDocumentChange,
		Payload: models.ActiveDocumentChange{
			FileName:    edit.Path,
			IsDirty:     edit.IsDirty,
			ChangeCount: edit.EditCount,
			Timestamp:   now.UnixMilli(),
		},
	})

	n.inFlight = true
	if n.settleTimer != nil {
		n.settleTimer.Stop()
	}
	n.settleGen++
	gen := n.settleGen
	n.settleTimer = n.clock.AfterFunc(n.settle, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if gen == n.settleGen {
			n.inFlight = false
			n.settleTimer = nil
		}
	})
}

// OnWorkspaceFoldersChanged emits the folder delta and asks for a new snapshot.
func (n *Notifier) OnWorkspaceFoldersChanged(added, removed []models.WorkspaceFolder) {
	n.mu.Lock()
	if n.disposed {
		n.mu.Unlock()
		return
	}
	n.log.Info("Workspace folders changed", "added", len(added), "removed", len(removed))
	n.sink.Broadcast(models.Message{
		Type: models.MsgWorkspaceFoldersChange,
		Payload: models.WorkspaceFoldersChange{
			Added:     nonNilFolders(added),
			Removed:   nonNilFolders(removed),
			Timestamp: n.clock.Now().UnixMilli(),
		},
	})
	n.mu.Unlock()

	if n.snapshots != nil {
		n.snapshots.RequestSnapshot()
	}
}

// OnActiveEditorChanged emits the new active file, nil when no editor is active.
func (n *Notifier) OnActiveEditorChanged(file *models.ActiveFile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return
	}
	name := "none"
	if file != nil {
		name = file.FileName
	}
	n.log.Debug("Active editor changed", "file", name)
	n.sink.Broadcast(models.Message{
		Type: models.MsgActiveEditorChange,
		Payload: models.ActiveEditorChange{
			ActiveFile: file,
			Timestamp:  n.clock.Now().UnixMilli(),
		},
	})
}

// UpdateWatchPatterns swaps the watch set and confirms it to the UI. Any pending
// deferred document emission is cancelled first.
func (n *Notifier) UpdateWatchPatterns(patterns []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return
	}
	n.cancelPendingLocked()
	n.patterns.Update(patterns)
	current := n.patterns.Patterns()
	n.log.Info("Updated watch patterns", "patterns", current)
	n.sink.Broadcast(models.Message{
		Type: models.MsgWatchPatternsUpdated,
		Payload: models.WatchPatternsUpdated{
			Patterns:  current,
			Timestamp: n.clock.Now().UnixMilli(),
		},
	})
}

// ReportWatchPatterns emits the current pattern set and subscription count.
func (n *Notifier) ReportWatchPatterns() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return
	}
	n.sink.Broadcast(models.Message{
		Type: models.MsgWatchPatterns,
		Payload: models.WatchPatterns{
			Patterns:     n.patterns.Patterns(),
			WatcherCount: n.patterns.Count(),
			Timestamp:    n.clock.Now().UnixMilli(),
		},
	})
}

func (n *Notifier) WatchPatterns() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.patterns.Patterns()
}

func (n *Notifier) WatcherCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.patterns.Count()
}

// Dispose cancels timers, tears down subscriptions and makes every later call a
// no-op. Calling it again does nothing.
func (n *Notifier) Dispose() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return
	}
	n.disposed = true
	n.log.Info("Disposing notifier", "subscriptions", n.patterns.Count())
	n.cancelPendingLocked()
	if n.settleTimer != nil {
		n.settleTimer.Stop()
		n.settleTimer = nil
	}
	n.settleGen++
	n.inFlight = false
	n.patterns.Dispose()
}

func nonNilFolders(f []models.WorkspaceFolder) []models.WorkspaceFolder {
	if f == nil {
		return []models.WorkspaceFolder{}
	}
	return f
}
