// Package racestate holds the race-wide shared state from spec §3/§4.8:
// the teams and cars (the track and pit boxes live in circuit.Circuit,
// not here); mutable race
// status, start timestamp, simulation-speed multiplier, and the two
// append-only logs (lap times, final results). It also implements the
// car.Field / car.SpeedSource / car.RaceControl interfaces car workers
// dispatch through, keeping the car package free of an import cycle.
package racestate

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/psybedev/racecore/car"
)

// Status is the race-wide lifecycle state (spec §3).
type Status int32

const (
	StatusPreparing Status = iota
	StatusStartPhase
	StatusRunning
	StatusPaused
	StatusAborted
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusPreparing:
		return "preparing"
	case StatusStartPhase:
		return "start_phase"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusAborted:
		return "aborted"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// LapRecord is one append-only entry in the completed-lap-time log.
type LapRecord struct {
	CarID   int
	Lap     int
	LapTime time.Duration
	At      time.Time
}

// Result is one row of the final classification, per spec §4.6 step 3.
type Result struct {
	Position   int
	CarID      int
	Driver     string
	Team       string
	TotalTime  time.Duration
	BestLap    time.Duration
	PitStops   int
	GapToLead  time.Duration
}

// RaceState is the shared, race-wide record every worker holds a
// non-owning reference to. It holds the teams and cars; the track and
// pit boxes are held by circuit.Circuit.
type RaceState struct {
	Teams []string
	Cars  []*car.Car

	status    atomic.Int32
	finished  atomic.Bool
	startedAt atomic.Int64 // UnixNano, 0 until the start latch releases
	speedBits atomic.Uint64

	logMu   sync.RWMutex
	lapLog  []LapRecord
	results []Result
}

// New builds race state over the given teams/cars at 1x simulation speed.
func New(teams []string, cars []*car.Car) *RaceState {
	rs := &RaceState{Teams: teams, Cars: cars}
	rs.status.Store(int32(StatusPreparing))
	rs.SetSpeed(1.0)
	return rs
}

// Status reads the race's published lifecycle status.
func (rs *RaceState) Status() Status { return Status(rs.status.Load()) }

// SetStatus publishes a new lifecycle status.
func (rs *RaceState) SetStatus(s Status) { rs.status.Store(int32(s)) }

// Finished implements car.RaceControl: the race-wide "finished" flag every
// worker consults at its next safe point (spec §4.5's shutdown rule).
func (rs *RaceState) Finished() bool { return rs.finished.Load() }

// Finish raises the race-wide finished flag. Idempotent.
func (rs *RaceState) Finish() { rs.finished.Store(true) }

// MarkStarted records the start timestamp exactly once.
func (rs *RaceState) MarkStarted() {
	rs.startedAt.CompareAndSwap(0, time.Now().UnixNano())
}

// StartedAt returns the race's start timestamp, or the zero Time if the
// race has not started.
func (rs *RaceState) StartedAt() time.Time {
	ns := rs.startedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Speed implements car.SpeedSource: the simulation-speed multiplier every
// worker scales its sleeps by.
func (rs *RaceState) Speed() float64 {
	return math.Float64frombits(rs.speedBits.Load())
}

// SetSpeed publishes a new simulation-speed multiplier.
func (rs *RaceState) SetSpeed(factor float64) {
	rs.speedBits.Store(math.Float64bits(factor))
}

// AppendLap implements car.LapSink: it records a completed lap in the
// append-only log.
func (rs *RaceState) AppendLap(carID, lap int, lapTime time.Duration, at time.Time) {
	rs.logMu.Lock()
	defer rs.logMu.Unlock()
	rs.lapLog = append(rs.lapLog, LapRecord{CarID: carID, Lap: lap, LapTime: lapTime, At: at})
}

// LapLog returns a copy of the completed-lap-time log, safe for concurrent
// readers while workers keep appending.
func (rs *RaceState) LapLog() []LapRecord {
	rs.logMu.RLock()
	defer rs.logMu.RUnlock()
	out := make([]LapRecord, len(rs.lapLog))
	copy(out, rs.lapLog)
	return out
}

// SetResults replaces the final-results list (called once by the director
// after result compilation).
func (rs *RaceState) SetResults(results []Result) {
	rs.logMu.Lock()
	defer rs.logMu.Unlock()
	rs.results = results
}

// Results returns a copy of the final-results list.
func (rs *RaceState) Results() []Result {
	rs.logMu.RLock()
	defer rs.logMu.RUnlock()
	out := make([]Result, len(rs.results))
	copy(out, rs.results)
	return out
}

// CarAhead implements car.Field: it scans the live snapshot for the closest
// car strictly ahead of (selfID, segmentID, selfProgress) in the same
// segment, per spec §4.9 ("a car of the same segment ahead"). It reads
// every car's published fields without locking, tolerating the bounded
// staleness spec §4.8 describes.
func (rs *RaceState) CarAhead(selfID, segmentID int, selfProgress float64) (car.Snapshot, bool) {
	var best car.Snapshot
	found := false
	for _, c := range rs.Cars {
		if c.ID == selfID {
			continue
		}
		snap := c.Snapshot()
		if snap.SegmentID != segmentID || snap.Finished {
			continue
		}
		if snap.Progress <= selfProgress {
			continue
		}
		if !found || snap.Progress < best.Progress {
			best = snap
			found = true
		}
	}
	return best, found
}

// Standings computes the current leaderboard on demand, per spec §4.8's
// ordering key: completed_laps desc, current_segment_id desc,
// progress_in_segment desc. Built with samber/lo, matching the teacher's
// declared-but-unexercised dependency.
func (rs *RaceState) Standings() []car.Snapshot {
	snaps := lo.Map(rs.Cars, func(c *car.Car, _ int) car.Snapshot {
		return c.Snapshot()
	})
	return sortStandings(snaps)
}

func sortStandings(snaps []car.Snapshot) []car.Snapshot {
	out := append([]car.Snapshot(nil), snaps...)
	// lo has no native multi-key sort; a stable sort applied key-by-key from
	// the least to the most significant key yields the same total order.
	stableSortBy(out, func(s car.Snapshot) float64 { return s.Progress })
	stableSortBy(out, func(s car.Snapshot) float64 { return float64(s.SegmentID) })
	stableSortBy(out, func(s car.Snapshot) float64 { return float64(s.CompletedLaps) })
	return out
}

func stableSortBy(snaps []car.Snapshot, key func(car.Snapshot) float64) {
	// insertion sort descending by key; stable, and the field sizes here
	// (tens of cars) make its O(n^2) worst case irrelevant.
	for i := 1; i < len(snaps); i++ {
		for j := i; j > 0 && key(snaps[j]) > key(snaps[j-1]); j-- {
			snaps[j], snaps[j-1] = snaps[j-1], snaps[j]
		}
	}
}

// Leader returns the currently-first-placed car's snapshot, if the field
// is non-empty.
func (rs *RaceState) Leader() (car.Snapshot, bool) {
	standings := rs.Standings()
	if len(standings) == 0 {
		return car.Snapshot{}, false
	}
	return standings[0], true
}

// AnyFinished reports whether any car's finished flag is set, and returns
// its snapshot — used by the director to detect the first finisher
// (spec §4.6 step 2).
func (rs *RaceState) AnyFinished() (car.Snapshot, bool) {
	for _, c := range rs.Cars {
		if c.Finished() {
			return c.Snapshot(), true
		}
	}
	return car.Snapshot{}, false
}
