// Package car holds the Car entity (spec §3) and its worker state machine
// (spec §4.5). Every field another goroutine reads is published through an
// atomic or a narrowly-scoped lock, matching spec §5's "published-field
// discipline", generalized from sims.DataPollingSystem's
// RWMutex-guarded last-value fields.
package car

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/psybedev/racecore/pitbox"
)

// Status is a car's current state-machine state (spec §4.5).
type Status int32

const (
	StatusGrid Status = iota
	StatusRunning
	StatusWaitingForSegment
	StatusInCritical
	StatusInOvertakeZone
	StatusEnteringPit
	StatusInBox
	StatusLeavingPit
	StatusFinished
	// StatusRetired is reserved per spec §9's open question: the state
	// exists but no worker ever transitions a car into it.
	StatusRetired
)

func (s Status) String() string {
	switch s {
	case StatusGrid:
		return "grid"
	case StatusRunning:
		return "running"
	case StatusWaitingForSegment:
		return "waiting_for_segment"
	case StatusInCritical:
		return "in_critical"
	case StatusInOvertakeZone:
		return "in_overtake_zone"
	case StatusEnteringPit:
		return "entering_pit"
	case StatusInBox:
		return "in_box"
	case StatusLeavingPit:
		return "leaving_pit"
	case StatusFinished:
		return "finished"
	case StatusRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// Car is the mutable per-car record shared across the car worker, the
// strategist, the live-ordering function, and the director.
type Car struct {
	ID     int
	Team   string
	Driver string
	Skill  float64 // driver-skill factor consumed by the overtake arbiter

	status        atomic.Int32
	segmentID     atomic.Int64
	progressBits  atomic.Uint64 // math.Float64bits(progress), published independently of segmentID
	currentLap    atomic.Int64
	completedLaps atomic.Int64
	pitStops      atomic.Int64
	mandatoryDone atomic.Bool
	finished      atomic.Bool

	tyreMu sync.RWMutex
	tyres  pitbox.TyreSet

	timeMu         sync.RWMutex
	lapStart       time.Time
	lastLapTime    time.Duration
	bestLapTime    time.Duration
	accumulated    time.Duration

	// pitMu guards the single cross-thread write channel from spec §4.7:
	// the strategist writes (pitRequested, pitCompound); the car worker
	// reads and clears. Single writer, single reader.
	pitMu        sync.Mutex
	pitRequested bool
	pitCompound  pitbox.Compound
}

// New builds a car on the grid with a starting tyre compound.
func New(id int, team, driver string, skill float64, startCompound pitbox.Compound) *Car {
	c := &Car{ID: id, Team: team, Driver: driver, Skill: skill}
	c.status.Store(int32(StatusGrid))
	c.tyres = pitbox.NewTyreSet(startCompound)
	return c
}

// Status reads the car's published status.
func (c *Car) Status() Status { return Status(c.status.Load()) }

// SetStatus publishes a new status.
func (c *Car) SetStatus(s Status) { c.status.Store(int32(s)) }

// SegmentID reads the car's published current segment id.
func (c *Car) SegmentID() int { return int(c.segmentID.Load()) }

// SetSegmentID publishes a new current segment id.
func (c *Car) SetSegmentID(id int) { c.segmentID.Store(int64(id)) }

// Progress reads the car's published progress-in-segment, in [0,1].
func (c *Car) Progress() float64 { return math.Float64frombits(c.progressBits.Load()) }

// SetProgress publishes a new progress-in-segment value.
func (c *Car) SetProgress(p float64) { c.progressBits.Store(math.Float64bits(p)) }

// CurrentLap reads the car's published current lap number.
func (c *Car) CurrentLap() int { return int(c.currentLap.Load()) }

// SetCurrentLap publishes the current lap number.
func (c *Car) SetCurrentLap(lap int) { c.currentLap.Store(int64(lap)) }

// CompletedLaps reads the number of laps completed so far.
func (c *Car) CompletedLaps() int { return int(c.completedLaps.Load()) }

// IncCompletedLaps increments the completed-lap counter and returns the
// new value.
func (c *Car) IncCompletedLaps() int { return int(c.completedLaps.Add(1)) }

// PitStops reads the car's pit-stop count.
func (c *Car) PitStops() int { return int(c.pitStops.Load()) }

// IncPitStops increments the pit-stop counter.
func (c *Car) IncPitStops() { c.pitStops.Add(1) }

// MandatoryPitDone reads the mandatory-stop-performed flag.
func (c *Car) MandatoryPitDone() bool { return c.mandatoryDone.Load() }

// SetMandatoryPitDone sets the mandatory-stop-performed flag.
func (c *Car) SetMandatoryPitDone(v bool) { c.mandatoryDone.Store(v) }

// Finished reads the car's published finished flag.
func (c *Car) Finished() bool { return c.finished.Load() }

// SetFinished publishes the finished flag. Returns true the first time it
// transitions from false to true (the car worker's lap close reports the
// car as finished on that transition).
func (c *Car) SetFinished() bool {
	return c.finished.CompareAndSwap(false, true)
}

// Tyres returns a copy of the car's current tyre set.
func (c *Car) Tyres() pitbox.TyreSet {
	c.tyreMu.RLock()
	defer c.tyreMu.RUnlock()
	return c.tyres
}

// SetTyres replaces the tyre set (called after a pit stop).
func (c *Car) SetTyres(t pitbox.TyreSet) {
	c.tyreMu.Lock()
	defer c.tyreMu.Unlock()
	c.tyres = t
}

// AddTyreWear advances tyre wear by the given fraction of a lap.
func (c *Car) AddTyreWear(lapFraction float64) {
	c.tyreMu.Lock()
	defer c.tyreMu.Unlock()
	c.tyres.AddWear(lapFraction)
}

// LapStart returns the timestamp the current lap began.
func (c *Car) LapStart() time.Time {
	c.timeMu.RLock()
	defer c.timeMu.RUnlock()
	return c.lapStart
}

// SetLapStart records the timestamp the current lap began.
func (c *Car) SetLapStart(t time.Time) {
	c.timeMu.Lock()
	defer c.timeMu.Unlock()
	c.lapStart = t
}

// CloseLap publishes a completed lap's duration, updating last/best and
// accumulating total race time.
func (c *Car) CloseLap(lapTime time.Duration) {
	c.timeMu.Lock()
	defer c.timeMu.Unlock()
	c.lastLapTime = lapTime
	if c.bestLapTime == 0 || lapTime < c.bestLapTime {
		c.bestLapTime = lapTime
	}
	c.accumulated += lapTime
}

// Timing returns (lastLap, bestLap, accumulated).
func (c *Car) Timing() (time.Duration, time.Duration, time.Duration) {
	c.timeMu.RLock()
	defer c.timeMu.RUnlock()
	return c.lastLapTime, c.bestLapTime, c.accumulated
}

// RequestPit is the strategist's single write channel into the car: it
// publishes a pit request and the chosen compound. Single writer (the
// team's strategist), single reader (this car's worker).
func (c *Car) RequestPit(compound pitbox.Compound) {
	c.pitMu.Lock()
	defer c.pitMu.Unlock()
	c.pitRequested = true
	c.pitCompound = compound
}

// PitRequested reports whether a pit request is currently pending,
// without clearing it.
func (c *Car) PitRequested() bool {
	c.pitMu.Lock()
	defer c.pitMu.Unlock()
	return c.pitRequested
}

// ConsumePitRequest is called by the car worker: it reads and clears the
// pending pit request atomically with respect to the strategist's writes.
func (c *Car) ConsumePitRequest() (compound pitbox.Compound, ok bool) {
	c.pitMu.Lock()
	defer c.pitMu.Unlock()
	if !c.pitRequested {
		return "", false
	}
	compound = c.pitCompound
	c.pitRequested = false
	return compound, true
}

// Snapshot is a self-consistent-enough read of a car's state for the live
// ordering function and result compilation. It is deliberately built from
// several independent atomic/locked reads rather than one big lock, so it
// can observe the same small, bounded staleness the spec tolerates (e.g.
// a new segment id with a not-yet-updated progress value).
type Snapshot struct {
	ID             int
	Team           string
	Driver         string
	Status         Status
	SegmentID      int
	Progress       float64
	CurrentLap     int
	CompletedLaps  int
	PitStops       int
	Finished       bool
	LastLapTime    time.Duration
	BestLapTime    time.Duration
	Accumulated    time.Duration
	TyreCompound   pitbox.Compound
	TyreWear       float64
}

// Snapshot takes a point-in-time read of every field another goroutine
// might need for display or ordering.
func (c *Car) Snapshot() Snapshot {
	last, best, acc := c.Timing()
	tyres := c.Tyres()
	return Snapshot{
		ID:            c.ID,
		Team:          c.Team,
		Driver:        c.Driver,
		Status:        c.Status(),
		SegmentID:     c.SegmentID(),
		Progress:      c.Progress(),
		CurrentLap:    c.CurrentLap(),
		CompletedLaps: c.CompletedLaps(),
		PitStops:      c.PitStops(),
		Finished:      c.Finished(),
		LastLapTime:   last,
		BestLapTime:   best,
		Accumulated:   acc,
		TyreCompound:  tyres.Compound,
		TyreWear:      tyres.Wear,
	}
}

// Reset returns the car to the grid with all counters cleared, for the
// "new race" round-trip (spec §8 property 6).
func (c *Car) Reset(gridProgress float64, startCompound pitbox.Compound) {
	c.status.Store(int32(StatusGrid))
	c.segmentID.Store(0)
	c.SetProgress(gridProgress)
	c.currentLap.Store(1)
	c.completedLaps.Store(0)
	c.pitStops.Store(0)
	c.mandatoryDone.Store(false)
	c.finished.Store(false)

	c.tyreMu.Lock()
	c.tyres = pitbox.NewTyreSet(startCompound)
	c.tyreMu.Unlock()

	c.timeMu.Lock()
	c.lapStart = time.Time{}
	c.lastLapTime = 0
	c.bestLapTime = 0
	c.accumulated = 0
	c.timeMu.Unlock()

	c.pitMu.Lock()
	c.pitRequested = false
	c.pitCompound = ""
	c.pitMu.Unlock()
}
