package notifier

import (
	"testing"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/host"
	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const window = 500 * time.Millisecond

type harness struct {
	n      *Notifier
	clock  *fakeClock
	sink   *recordingSink
	source *fakeSource
	snaps  *countingRequester
}

func newHarness(t *testing.T, patterns ...string) *harness {
	t.Helper()
	h := &harness{
		clock:  newFakeClock(),
		sink:   &recordingSink{},
		source: newFakeSource(),
		snaps:  &countingRequester{},
	}
	h.n = New(h.source, h.sink, h.snaps, Options{
		ThrottleWindow: window,
		SettleWindow:   50 * time.Millisecond,
		Patterns:       patterns,
		Clock:          h.clock,
	})
	t.Cleanup(h.n.Dispose)
	return h
}

func edit(i int) DocumentEdit {
	return DocumentEdit{Path: "/ws/main.ts", IsDirty: true, EditCount: i}
}

func TestLeadingEdgeEmitsSynchronously(t *testing.T) {
	h := newHarness(t)

	h.n.OnActiveDocumentEdit(edit(1))

	got := h.sink.documentChanges()
	require.Len(t, got, 1)
	assert.Equal(t, "/ws/main.ts", got[0].FileName)
	assert.True(t, got[0].IsDirty)
	assert.Equal(t, 1, got[0].ChangeCount)
	assert.Equal(t, h.clock.Now().UnixMilli(), got[0].Timestamp)
}

func TestLeadingEdgeAfterQuietPeriod(t *testing.T) {
	h := newHarness(t)
	h.n.OnActiveDocumentEdit(edit(1))

	h.clock.Advance(window)
	h.n.OnActiveDocumentEdit(edit(2))

	got := h.sink.documentChanges()
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[1].ChangeCount)
	assert.Equal(t, 1, h.clock.activeTimers(), "only the settle timer should be scheduled")
}

func TestBurstCollapsesToSingleTrailingEmission(t *testing.T) {
	h := newHarness(t)
	// An emission 100ms before the burst puts every burst edit inside the window.
	h.n.OnActiveDocumentEdit(edit(0))
	h.clock.Advance(100 * time.Millisecond)
	start := h.clock.Now()

	for i := 1; i <= 4; i++ {
		h.n.OnActiveDocumentEdit(edit(i))
		if i < 4 {
			h.clock.Advance(100 * time.Millisecond)
		}
	}
	require.Len(t, h.sink.documentChanges(), 1)

	h.clock.Advance(window - time.Millisecond)
	require.Len(t, h.sink.documentChanges(), 1, "nothing before last edit + window")

	h.clock.Advance(time.Millisecond)
	got := h.sink.documentChanges()
	require.Len(t, got, 2)
	assert.Equal(t, 4, got[1].ChangeCount, "trailing emission carries the latest edit")
	assert.Equal(t, start.Add(800*time.Millisecond).UnixMilli(), got[1].Timestamp)

	h.clock.Advance(5 * time.Second)
	assert.Len(t, h.sink.documentChanges(), 2)
}

func TestSettleWindowDropsEdits(t *testing.T) {
	h := newHarness(t)
	h.n.OnActiveDocumentEdit(edit(1))

	h.clock.Advance(10 * time.Millisecond)
	h.n.OnActiveDocumentEdit(edit(2))
	h.clock.Advance(5 * time.Second)

	assert.Len(t, h.sink.documentChanges(), 1, "edit inside the settle window is neither emitted nor scheduled")
}

func TestEmissionCountBoundedByWindow(t *testing.T) {
	h := newHarness(t)
	offsets := []time.Duration{0, 30, 60, 120, 480, 490, 700, 720, 1300, 1310, 1320, 2500, 2510, 2990, 3000, 3600}

	first := h.clock.Now()
	var prev time.Duration
	for _, off := range offsets {
		h.clock.Advance((off - prev) * time.Millisecond)
		prev = off
		h.n.OnActiveDocumentEdit(edit(int(off)))
	}
	h.clock.Advance(10 * time.Second)

	got := h.sink.documentChanges()
	require.NotEmpty(t, got)
	last := time.UnixMilli(got[len(got)-1].Timestamp)
	span := last.Sub(first)
	assert.LessOrEqual(t, len(got), int(span/window)+1)

	for i := 1; i < len(got); i++ {
		gap := time.Duration(got[i].Timestamp-got[i-1].Timestamp) * time.Millisecond
		assert.GreaterOrEqual(t, gap, window, "emissions %d and %d too close", i-1, i)
	}
}

func TestFileSystemEventsPassThrough(t *testing.T) {
	h := newHarness(t, "**/*.go")

	h.source.fire("**/*.go", host.Created, "/ws/a.go")
	h.source.fire("**/*.go", host.Modified, "/ws/a.go")

	got := h.sink.ofType(models.MsgFileSystemChange)
	require.Len(t, got, 2)
	first := got[0].Payload.(models.FileSystemChange)
	assert.Equal(t, "created", first.Type)
	assert.Equal(t, "/ws/a.go", first.URI)
	assert.Equal(t, "**/*.go", first.Pattern)
	assert.Equal(t, "changed", got[1].Payload.(models.FileSystemChange).Type)
}

func TestPatternReplacementDropsStaleEvents(t *testing.T) {
	h := newHarness(t, "**/*.go", "**/*.md")

	h.n.UpdateWatchPatterns([]string{"**/*.md", "**/*.txt"})
	h.source.fire("**/*.go", host.Modified, "/ws/late.go")
	h.source.fire("**/*.txt", host.Created, "/ws/new.txt")

	got := h.sink.ofType(models.MsgFileSystemChange)
	require.Len(t, got, 1)
	assert.Equal(t, "**/*.txt", got[0].Payload.(models.FileSystemChange).Pattern)

	updated := h.sink.ofType(models.MsgWatchPatternsUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, []string{"**/*.md", "**/*.txt"}, updated[0].Payload.(models.WatchPatternsUpdated).Patterns)
}

func TestUpdateDisposesBeforeSubscribing(t *testing.T) {
	h := newHarness(t, "a/**", "b/**")

	h.n.UpdateWatchPatterns([]string{"c/**"})

	assert.Equal(t, []string{"watch:a/**", "watch:b/**", "dispose:b/**", "dispose:a/**", "watch:c/**"}, h.source.events())
	assert.Equal(t, 1, h.source.liveCount())
	assert.Equal(t, []string{"c/**"}, h.n.WatchPatterns())
}

func TestUpdateCancelsPendingDocumentEmission(t *testing.T) {
	h := newHarness(t)
	h.n.OnActiveDocumentEdit(edit(1))
	h.clock.Advance(100 * time.Millisecond)
	h.n.OnActiveDocumentEdit(edit(2))

	h.n.UpdateWatchPatterns([]string{"**/*.go"})
	h.clock.Advance(5 * time.Second)

	assert.Len(t, h.sink.documentChanges(), 1)
}

func TestReportWatchPatternsCountsSubscriptions(t *testing.T) {
	h := newHarness(t, "**/*.go", "[", "**/*.md")
	h.n.ReportWatchPatterns()

	got := h.sink.ofType(models.MsgWatchPatterns)
	require.Len(t, got, 1)
	p := got[0].Payload.(models.WatchPatterns)
	assert.Equal(t, []string{"**/*.go", "[", "**/*.md"}, p.Patterns)
	assert.Equal(t, 2, p.WatcherCount, "invalid pattern has no subscription")
}

func TestFoldersChangeEmitsThenRequestsSnapshot(t *testing.T) {
	h := newHarness(t)
	added := []models.WorkspaceFolder{{Name: "api", URI: "/ws/api", Scheme: "file"}}

	h.n.OnWorkspaceFoldersChanged(added, nil)

	got := h.sink.ofType(models.MsgWorkspaceFoldersChange)
	require.Len(t, got, 1)
	p := got[0].Payload.(models.WorkspaceFoldersChange)
	assert.Equal(t, added, p.Added)
	assert.NotNil(t, p.Removed)
	assert.Equal(t, 1, h.snaps.count())
}

func TestActiveEditorChange(t *testing.T) {
	h := newHarness(t)
	h.n.OnActiveEditorChanged(&models.ActiveFile{FileName: "/ws/x.md", LanguageID: "markdown"})
	h.n.OnActiveEditorChanged(nil)

	got := h.sink.ofType(models.MsgActiveEditorChange)
	require.Len(t, got, 2)
	assert.Equal(t, "/ws/x.md", got[0].Payload.(models.ActiveEditorChange).ActiveFile.FileName)
	assert.Nil(t, got[1].Payload.(models.ActiveEditorChange).ActiveFile)
}

func TestDisposeIsIdempotentAndInert(t *testing.T) {
	h := newHarness(t, "**/*.go")
	h.n.OnActiveDocumentEdit(edit(1))
	h.clock.Advance(100 * time.Millisecond)
	h.n.OnActiveDocumentEdit(edit(2))

	h.n.Dispose()
	h.n.Dispose()

	disposals := 0
	for _, e := range h.source.events() {
		if e == "dispose:**/*.go" {
			disposals++
		}
	}
	assert.Equal(t, 1, disposals)
	assert.Zero(t, h.clock.activeTimers())

	h.clock.Advance(5 * time.Second)
	h.n.OnActiveDocumentEdit(edit(3))
	h.n.OnFileSystemEvent(host.Created, "/ws/a.go", "**/*.go")
	h.n.OnActiveEditorChanged(nil)
	h.n.UpdateWatchPatterns([]string{"x"})
	h.n.ReportWatchPatterns()

	assert.Len(t, h.sink.documentChanges(), 1)
	assert.Empty(t, h.sink.ofType(models.MsgFileSystemChange))
	assert.Empty(t, h.sink.ofType(models.MsgActiveEditorChange))
	assert.Empty(t, h.sink.ofType(models.MsgWatchPatternsUpdated))
	assert.Empty(t, h.sink.ofType(models.MsgWatchPatterns))
}

func TestSinksFanOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	Sinks{a, nil, b}.Broadcast(models.Message{Type: "x"})
	assert.Len(t, a.msgs, 1)
	assert.Len(t, b.msgs, 1)
}
