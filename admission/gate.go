// Package admission implements the per-segment admission primitives from
// spec §4: a single-slot FIFO monitor for tight turns, a multi-slot fair
// semaphore for chicanes and the pit-lane ends, pit-lane admission pairing
// two of those semaphores, and a one-shot start latch.
//
// The monitor and the semaphore (and so the pit lane) share one internal
// shape; the start latch is a separate closed-channel barrier. The shared
// shape is a capacity counter plus a strict
// FIFO waiter queue, coordinated with a mutex + condition variable in the
// style of sims.DataPollingSystem's RWMutex-guarded fields, generalized
// here to blocking admission instead of read/write snapshotting.
package admission

import (
	"sync"
	"time"

	"github.com/psybedev/racecore/raceerr"
)

// CarID identifies the car calling into an admission primitive. Car
// identity is plain int (the car's start number) so this package has no
// dependency on the car package.
type CarID int

// fifoGate is the shared engine behind Monitor and Semaphore: occupants
// <= capacity, and admission order follows strict FIFO queue arrival.
type fifoGate struct {
	mu        sync.Mutex
	cond      *sync.Cond
	capacity  int
	occupants int
	waiters   []CarID // queue order == arrival order
	inFlight  map[CarID]bool
}

func newFifoGate(capacity int) *fifoGate {
	g := &fifoGate{capacity: capacity, inFlight: make(map[CarID]bool)}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// headAllowed reports whether car is at the head of the waiter queue and
// capacity currently permits admission.
func (g *fifoGate) headAllowed(car CarID) bool {
	return g.occupants < g.capacity && len(g.waiters) > 0 && g.waiters[0] == car
}

func (g *fifoGate) removeWaiter(car CarID) {
	for i, w := range g.waiters {
		if w == car {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			return
		}
	}
}

// enter blocks until car is admitted, or stop fires (cooperative
// cancellation). On cancellation the waiter is removed and the new head is
// woken to re-evaluate.
func (g *fifoGate) enter(car CarID, stop <-chan struct{}) error {
	g.mu.Lock()
	g.waiters = append(g.waiters, car)

	// A goroutine blocked in cond.Wait cannot also select on stop, so a
	// watcher goroutine broadcasts on cancellation to unblock the wait loop.
	cancelled := false
	done := make(chan struct{})
	if stop != nil {
		go func() {
			select {
			case <-stop:
				g.mu.Lock()
				cancelled = true
				g.mu.Unlock()
				g.cond.Broadcast()
			case <-done:
			}
		}()
	}

	for !g.headAllowed(car) && !cancelled {
		g.cond.Wait()
	}
	close(done)

	if cancelled {
		g.removeWaiter(car)
		g.mu.Unlock()
		g.cond.Broadcast() // let the new head re-evaluate
		return raceerr.Interrupted("admission_cancelled")
	}

	g.waiters = g.waiters[1:]
	g.occupants++
	g.inFlight[car] = true
	g.mu.Unlock()
	return nil
}

// leave releases the permit held by car, waking all waiters so the new
// head can re-evaluate its predicate.
func (g *fifoGate) leave(car CarID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.inFlight[car] {
		return raceerr.Programming("leave_without_enter", "leave called without a prior matching enter/acquire")
	}
	delete(g.inFlight, car)
	g.occupants--
	g.cond.Broadcast()
	return nil
}

// tryEnter is the non-blocking fast path: succeeds only when the waiter
// queue is empty and capacity permits immediate admission.
func (g *fifoGate) tryEnter(car CarID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.waiters) == 0 && g.occupants < g.capacity {
		g.occupants++
		g.inFlight[car] = true
		return true
	}
	return false
}

// tryEnterFor attempts admission, giving up after timeout elapses.
func (g *fifoGate) tryEnterFor(car CarID, timeout time.Duration) bool {
	if g.tryEnter(car) {
		return true
	}

	stop := make(chan struct{})
	result := make(chan error, 1)
	go func() { result <- g.enter(car, stop) }()

	select {
	case err := <-result:
		return err == nil
	case <-time.After(timeout):
		close(stop)
		// enter may have been admitted in the instant the timeout fired —
		// select had both channels ready and could still pick this branch.
		// If it slipped through, the permit was already acquired with no
		// caller to release it; release it here instead of leaking it.
		if err := <-result; err == nil {
			_ = g.leave(car)
		}
		return false
	}
}

// occupantCount reports the current occupant count (test/observability use).
func (g *fifoGate) occupantCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.occupants
}

// waiterCount reports the current waiter queue length.
func (g *fifoGate) waiterCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}
