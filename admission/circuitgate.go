package admission

// Gate is the minimal trait shared by Monitor and Semaphore, letting a car
// worker dispatch admission per segment kind through one interface rather
// than a type switch (spec §9's "polymorphic segment behaviour" note).
type Gate interface {
	Enter(car CarID, stop <-chan struct{}) error
	Leave(car CarID) error
}

// Enter aliases Acquire so a Semaphore also satisfies Gate.
func (s *Semaphore) Enter(car CarID, stop <-chan struct{}) error { return s.Acquire(car, stop) }

// Leave aliases Release so a Semaphore also satisfies Gate.
func (s *Semaphore) Leave(car CarID) error { return s.Release(car) }

var (
	_ Gate = (*Monitor)(nil)
	_ Gate = (*Semaphore)(nil)
)
