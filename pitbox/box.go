package pitbox

import (
	"sync"
	"time"

	"github.com/psybedev/racecore/raceerr"
)

// Box is the per-team pit-box producer/consumer handoff from spec §4.4:
// a mutex plus two condition variables coupling exactly one resident car
// worker (producer) to one crew worker (consumer) at a time.
type Box struct {
	mu              sync.Mutex
	carArrived      *sync.Cond
	serviceComplete *sync.Cond

	currentCar        *int // nil when the box is empty
	chosenCompound    Compound
	serviceRequested  bool
	serviceInProgress bool
	serviceDone       bool
}

// NewBox builds an empty pit box.
func NewBox() *Box {
	b := &Box{}
	b.carArrived = sync.NewCond(&b.mu)
	b.serviceComplete = sync.NewCond(&b.mu)
	return b
}

// PerformStop is called by a car worker: it publishes the request, signals
// the crew, and blocks until the crew reports completion, or stop fires
// for cooperative shutdown. Returns the fresh tyre set of the requested
// compound. It is a programming error to call PerformStop while another
// car is already resident.
func (b *Box) PerformStop(car int, compound Compound, stop <-chan struct{}) (TyreSet, error) {
	b.mu.Lock()
	if b.currentCar != nil {
		b.mu.Unlock()
		return TyreSet{}, raceerr.Programming("box_occupied", "perform_stop called while another car is resident")
	}

	c := car
	b.currentCar = &c
	b.chosenCompound = compound
	b.serviceRequested = true
	b.serviceDone = false
	b.carArrived.Signal()

	cancelled := false
	done := make(chan struct{})
	if stop != nil {
		go func() {
			select {
			case <-stop:
				b.mu.Lock()
				cancelled = true
				b.mu.Unlock()
				b.serviceComplete.Broadcast()
			case <-done:
			}
		}()
	}

	for !b.serviceDone && !cancelled {
		b.serviceComplete.Wait()
	}
	close(done)

	if cancelled && !b.serviceDone {
		b.mu.Unlock()
		return TyreSet{}, raceerr.Interrupted("pit_stop_cancelled")
	}

	b.currentCar = nil
	b.serviceRequested = false
	b.serviceDone = false
	b.mu.Unlock()

	return NewTyreSet(compound), nil
}

// WaitForCar is called by the crew worker: it blocks until a car arrives,
// up to timeout (0 means wait indefinitely), or until stop fires for
// cooperative shutdown. On success it marks the service as in progress and
// returns the resident car's identity and requested compound.
func (b *Box) WaitForCar(timeout time.Duration, stop <-chan struct{}) (car int, compound Compound, ok bool) {
	timedOut := false
	cancelled := false
	done := make(chan struct{})

	go func() {
		var timerC <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			timerC = timer.C
		}
		select {
		case <-timerC:
			b.mu.Lock()
			timedOut = true
			b.mu.Unlock()
			b.carArrived.Broadcast()
		case <-stop:
			b.mu.Lock()
			cancelled = true
			b.mu.Unlock()
			b.carArrived.Broadcast()
		case <-done:
		}
	}()

	b.mu.Lock()
	for !b.serviceRequested && !timedOut && !cancelled {
		b.carArrived.Wait()
	}
	close(done)

	if !b.serviceRequested {
		b.mu.Unlock()
		return 0, "", false
	}

	car = *b.currentCar
	compound = b.chosenCompound
	b.serviceInProgress = true
	b.mu.Unlock()
	return car, compound, true
}

// FinishService is called by the crew worker after the service delay has
// elapsed: it marks the stop complete and wakes the waiting car. It is a
// programming error to call FinishService with no resident car.
func (b *Box) FinishService() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.currentCar == nil || !b.serviceInProgress {
		return raceerr.Programming("finish_without_request", "finish_service called without a matching perform_stop/wait_for_car pair")
	}

	b.serviceDone = true
	b.serviceInProgress = false
	b.serviceComplete.Broadcast()
	return nil
}

// Occupied reports whether a car currently resides in the box
// (observability/test use).
func (b *Box) Occupied() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentCar != nil
}
