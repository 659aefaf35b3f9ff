// Package schedule provides the bridge's single delayed-execution
// facility. Debounced characteristic writes and the delayed save of the
// aid table both go through one Executor, keyed by string, with
// cancel-then-replace semantics so at most one call is pending per key.
package schedule

import (
	"sync"
	"time"
)

type Executor struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewExecutor() *Executor {
	return &Executor{pending: make(map[string]*time.Timer)}
}

// Schedule runs fn after delay. A pending call under the same key is
// cancelled before the replacement is armed, so bursts collapse to the
// last scheduled call.
func (e *Executor) Schedule(key string, delay time.Duration, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.pending[key]; ok {
		t.Stop()
		delete(e.pending, key)
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		e.mu.Lock()
		// A timer that lost a Stop race has been cancelled or replaced;
		// it must neither clear its successor nor run its call.
		owned := e.pending[key] == t
		if owned {
			delete(e.pending, key)
		}
		e.mu.Unlock()
		if owned {
			fn()
		}
	})
	e.pending[key] = t
}

// Cancel drops a pending call. It reports whether one was pending.
func (e *Executor) Cancel(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.pending[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(e.pending, key)
	return true
}

// CancelAll drops every pending call, for shutdown.
func (e *Executor) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, t := range e.pending {
		t.Stop()
		delete(e.pending, key)
	}
}
