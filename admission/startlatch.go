package admission

import "sync"

// StartLatch is the single-shot count-down barrier from spec §4.10. All
// cars that reach AwaitRelease before Release is called are admitted
// simultaneously; cars arriving afterwards pass through without blocking.
type StartLatch struct {
	mu       sync.Mutex
	released bool
	ch       chan struct{}
}

// NewStartLatch builds a fresh, unreleased latch.
func NewStartLatch() *StartLatch {
	return &StartLatch{ch: make(chan struct{})}
}

// AwaitRelease blocks until the latch is released, or stop fires.
func (l *StartLatch) AwaitRelease(stop <-chan struct{}) {
	l.mu.Lock()
	ch := l.ch
	l.mu.Unlock()

	select {
	case <-ch:
	case <-stop:
	}
}

// Release is idempotent: the first call releases every current waiter;
// subsequent calls are no-ops.
func (l *StartLatch) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	close(l.ch)
}

// Released reports whether Release has already fired.
func (l *StartLatch) Released() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

// Reset creates a new, unreleased generation for the next race (spec §8
// property 7's "new race" round-trip).
func (l *StartLatch) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = false
	l.ch = make(chan struct{})
}
