// Package circuit wires an immutable track to the admission primitives
// and pit boxes that guard it, building the table the car worker dispatches
// through (spec §9's "table of function pointers keyed by kind").
package circuit

import (
	"github.com/psybedev/racecore/admission"
	"github.com/psybedev/racecore/pitbox"
	"github.com/psybedev/racecore/track"
)

// Circuit bundles one track with the synchronization primitives created
// once per race and shared by reference with every participating worker,
// per spec §3's ownership rules.
type Circuit struct {
	Track      *track.Track
	Gates      map[int]admission.Gate // main-ring segment id -> monitor/semaphore, tight turns & chicanes only
	PitLane    *admission.PitLane
	Boxes      map[string]*pitbox.Box // team name -> pit box
	StartLatch *admission.StartLatch
}

// Build constructs the admission table for t: a Monitor for every tight
// turn, a capacity-2 Semaphore for every chicane, a capacity-3 PitLane, and
// one Box per team name in teams.
func Build(t *track.Track, teams []string) *Circuit {
	c := &Circuit{
		Track:      t,
		Gates:      make(map[int]admission.Gate),
		PitLane:    admission.NewPitLane(3),
		Boxes:      make(map[string]*pitbox.Box),
		StartLatch: admission.NewStartLatch(),
	}

	for _, seg := range t.Segments() {
		switch seg.Kind {
		case track.KindTightTurn:
			c.Gates[seg.ID] = admission.NewMonitor()
		case track.KindChicane:
			c.Gates[seg.ID] = admission.NewSemaphore(seg.Capacity)
		}
	}

	for _, team := range teams {
		c.Boxes[team] = pitbox.NewBox()
	}

	return c
}

// Reset replaces the start latch with a fresh, unreleased generation for
// the next race (spec §4.10's reset semantics).
func (c *Circuit) Reset() {
	c.StartLatch.Reset()
}
