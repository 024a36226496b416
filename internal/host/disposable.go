package host

import "sync"

// Subscription is a handle on something that must be torn down.
type Subscription interface {
	Dispose()
}

// DisposeFunc adapts a function to Subscription. The function runs at most once.
func DisposeFunc(fn func()) Subscription {
	return &funcSubscription{fn: fn}
}

type funcSubscription struct {
	once sync.Once
	fn   func()
}

func (s *funcSubscription) Dispose() {
	s.once.Do(s.fn)
}

// Disposables is an owned list of subscriptions disposed together.
type Disposables struct {
	mu    sync.Mutex
	items []Subscription
}

func (d *Disposables) Add(subs ...Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, subs...)
}

func (d *Disposables) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Dispose tears down every subscription in reverse order of addition and empties
// the list, so a second call does nothing.
func (d *Disposables) Dispose() {
	d.mu.Lock()
	items := d.items
	d.items = nil
	d.mu.Unlock()
	for i := len(items) - 1; i >= 0; i-- {
		items[i].Dispose()
	}
}
