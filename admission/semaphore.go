package admission

import "time"

// Semaphore is the multi-slot fair semaphore from spec §4.2, guarding
// chicanes (default capacity 2) and both ends of the pit lane (capacity 3).
type Semaphore struct {
	gate *fifoGate
}

// NewSemaphore builds a semaphore with the given permit capacity.
func NewSemaphore(capacity int) *Semaphore {
	return &Semaphore{gate: newFifoGate(capacity)}
}

// Acquire blocks until a permit is free, admitting strictly in arrival
// order among waiters.
func (s *Semaphore) Acquire(car CarID, stop <-chan struct{}) error {
	return s.gate.enter(car, stop)
}

// TryAcquireFor is a bounded wait: returns false if no permit frees up
// within timeout.
func (s *Semaphore) TryAcquireFor(car CarID, timeout time.Duration) bool {
	return s.gate.tryEnterFor(car, timeout)
}

// TryAcquire is the zero-wait fast path.
func (s *Semaphore) TryAcquire(car CarID) bool {
	return s.gate.tryEnter(car)
}

// Release returns a permit, waking at most the head waiter to
// re-evaluate (Broadcast is used internally; only the head's predicate
// will actually pass). Release without a prior matching Acquire is a
// programming error.
func (s *Semaphore) Release(car CarID) error {
	return s.gate.leave(car)
}

// Permits reports the number of permits currently in use.
func (s *Semaphore) Permits() int { return s.gate.occupantCount() }

// Capacity reports the configured permit capacity.
func (s *Semaphore) Capacity() int { return s.gate.capacity }

// Waiters reports the current waiter-queue length.
func (s *Semaphore) Waiters() int { return s.gate.waiterCount() }
