package admission

import "sync/atomic"

// PitLane couples two independent chicane semaphores (entry, exit) with an
// atomic count of cars currently anywhere in the pit lane, per spec §4.3.
// Entry and exit are independent: a car leaving may proceed even while the
// entrance is saturated.
type PitLane struct {
	entry    *Semaphore
	exit     *Semaphore
	inLane   atomic.Int64
}

// NewPitLane builds entry/exit semaphores of the given capacity (3 by
// default per spec §3).
func NewPitLane(capacity int) *PitLane {
	return &PitLane{
		entry: NewSemaphore(capacity),
		exit:  NewSemaphore(capacity),
	}
}

// AcquireEntry blocks until an entry permit is free, then marks the car as
// present in the pit lane.
func (p *PitLane) AcquireEntry(car CarID, stop <-chan struct{}) error {
	if err := p.entry.Acquire(car, stop); err != nil {
		return err
	}
	p.inLane.Add(1)
	return nil
}

// ReleaseEntry releases the entry permit (does not affect the in-lane
// count; the car is still in the lane until it releases the exit permit).
func (p *PitLane) ReleaseEntry(car CarID) error {
	return p.entry.Release(car)
}

// AcquireExit blocks until an exit permit is free.
func (p *PitLane) AcquireExit(car CarID, stop <-chan struct{}) error {
	return p.exit.Acquire(car, stop)
}

// ReleaseExit releases the exit permit and marks the car as having left
// the pit lane.
func (p *PitLane) ReleaseExit(car CarID) error {
	if err := p.exit.Release(car); err != nil {
		return err
	}
	p.inLane.Add(-1)
	return nil
}

// InLane reports how many cars currently occupy the pit lane end to end.
func (p *PitLane) InLane() int64 { return p.inLane.Load() }

// Entry exposes the entry semaphore, for tests that want to probe
// occupancy/fairness directly.
func (p *PitLane) Entry() *Semaphore { return p.entry }

// Exit exposes the exit semaphore.
func (p *PitLane) Exit() *Semaphore { return p.exit }
