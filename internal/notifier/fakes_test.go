package notifier

import (
	"fmt"
	"sync"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/host"
	"github.com/1023-Ventures/qlaunch/internal/models"
)

// fakeClock runs timer callbacks synchronously inside Advance, in due order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d, firing every timer that comes due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *fakeClock) activeTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (s *recordingSink) Broadcast(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSink) ofType(typ string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSink) documentChanges() []models.ActiveDocumentChange {
	var out []models.ActiveDocumentChange
	for _, m := range s.ofType(models.MsgActiveDocumentChange) {
		out = append(out, m.Payload.(models.ActiveDocumentChange))
	}
	return out
}

// fakeSource keeps handlers reachable after disposal so tests can replay a late
// event from a torn-down subscription.
type fakeSource struct {
	mu       sync.Mutex
	log      []string
	handlers map[string]func(host.ChangeKind, string)
	live     map[string]bool
	failOn   string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		handlers: make(map[string]func(host.ChangeKind, string)),
		live:     make(map[string]bool),
	}
}

func (s *fakeSource) Watch(pattern string, handler func(host.ChangeKind, string)) (host.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pattern == s.failOn {
		return nil, fmt.Errorf("cannot watch %s", pattern)
	}
	s.log = append(s.log, "watch:"+pattern)
	s.handlers[pattern] = handler
	s.live[pattern] = true
	return host.DisposeFunc(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.log = append(s.log, "dispose:"+pattern)
		s.live[pattern] = false
	}), nil
}

func (s *fakeSource) fire(pattern string, kind host.ChangeKind, path string) {
	s.mu.Lock()
	h := s.handlers[pattern]
	s.mu.Unlock()
	if h != nil {
		h(kind, path)
	}
}

func (s *fakeSource) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func (s *fakeSource) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.live {
		if v {
			n++
		}
	}
	return n
}

type countingRequester struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRequester) RequestSnapshot() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func (r *countingRequester) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
