package car

import (
	"time"

	"github.com/psybedev/racecore/admission"
	"github.com/psybedev/racecore/circuit"
	"github.com/psybedev/racecore/config"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/overtake"
	"github.com/psybedev/racecore/pitbox"
	"github.com/psybedev/racecore/raceerr"
	"github.com/psybedev/racecore/track"
)

// SpeedSource reports the race's current simulation-speed multiplier,
// implemented by racestate.RaceState. Kept as a narrow interface here so
// the car package does not depend on racestate.
type SpeedSource interface {
	Speed() float64
}

// RaceControl reports the race-wide "finished" flag the director raises
// on the first finisher (spec §4.6).
type RaceControl interface {
	Finished() bool
}

// Field lets a car worker find the car immediately ahead of it in the same
// segment, for overtake eligibility, implemented by racestate.RaceState.
type Field interface {
	CarAhead(selfID, segmentID int, selfProgress float64) (Snapshot, bool)
}

// LapSink lets a worker publish a completed lap into the race-wide
// append-only lap log (spec §3 data model; §4.5's "close the lap (publish a
// lap record, ...)"), implemented by racestate.RaceState.
type LapSink interface {
	AppendLap(carID, lap int, lapTime time.Duration, at time.Time)
}

// Events lets a worker notify the Core→View stream (spec §6) of visibly
// interesting happenings: lap completions, pit-lane stage transitions, and
// overtakes. A nil Events is valid — a worker with none configured simply
// emits nothing, matching NewWorker's other optional-callback (onReady).
type Events interface {
	LapCompleted(carID, lap int)
	PitEvent(carID int, stage string)
	OvertakeEvent(overtaker, defender int)
}

// Worker drives one Car around the circuit, per the state machine in
// spec §4.5.
type Worker struct {
	car     *Car
	circuit *circuit.Circuit
	cfg     *config.Config
	arbiter *overtake.Arbiter
	field   Field
	speed   SpeedSource
	control RaceControl
	laps    LapSink
	events  Events
	log     logging.Logger

	totalLaps   int
	trackLength float64

	stop    chan struct{}
	stopped bool
	onReady func()
}

// NewWorker builds a car worker. onReady, if non-nil, is invoked once the
// worker is about to block on the start latch, letting the director count
// it toward the ready quorum (spec §4.6). events may be nil if nothing
// observes the Core→View stream.
func NewWorker(
	c *Car,
	circ *circuit.Circuit,
	cfg *config.Config,
	arbiter *overtake.Arbiter,
	field Field,
	speed SpeedSource,
	control RaceControl,
	laps LapSink,
	events Events,
	log logging.Logger,
	totalLaps int,
	onReady func(),
) *Worker {
	total := 0.0
	for _, seg := range circ.Track.Segments() {
		total += seg.Length
	}
	return &Worker{
		car:         c,
		circuit:     circ,
		cfg:         cfg,
		arbiter:     arbiter,
		field:       field,
		speed:       speed,
		control:     control,
		laps:        laps,
		events:      events,
		log:         log.With("car", c.ID),
		totalLaps:   totalLaps,
		trackLength: total,
		stop:        make(chan struct{}),
		onReady:     onReady,
	}
}

// Stop raises this worker's local cooperative-shutdown flag.
func (w *Worker) Stop() {
	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stop)
}

func (w *Worker) shouldStop() bool {
	select {
	case <-w.stop:
		return true
	default:
	}
	return w.control.Finished()
}

// Run drives the car from the grid to finished/stopped. It recovers any
// panic at the top level, classifies it, logs, and returns, per spec §7:
// a worker fault never poisons the race.
func (w *Worker) Run() {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("car_worker_panic", raceerr.Semantic("car_worker_panic", "recovered"), map[string]interface{}{"panic": r})
		}
	}()

	w.car.SetStatus(StatusGrid)
	if w.onReady != nil {
		w.onReady()
	}
	w.circuit.StartLatch.AwaitRelease(w.stop)
	if w.shouldStop() {
		return
	}

	w.car.SetStatus(StatusRunning)
	w.car.SetLapStart(time.Now())

	for !w.shouldStop() {
		seg, ok := w.circuit.Track.Segment(w.car.SegmentID())
		if !ok {
			w.log.Error("unknown_segment", raceerr.Semantic("unknown_segment", "car segment id out of range"), map[string]interface{}{"segment": w.car.SegmentID()})
			return
		}

		if !w.traverseCritical(seg) {
			return
		}

		if seg.OvertakingAllowed {
			w.attemptOvertake(seg)
		}

		if seg.ID == w.circuit.Track.PitBranchSegment() {
			if compound, ok := w.car.ConsumePitRequest(); ok {
				if !w.runPitLane(compound) {
					return
				}
				w.car.SetSegmentID(w.circuit.Track.PitRejoinSegment())
				w.car.SetProgress(0)
				continue
			}
		}

		if w.circuit.Track.IsLastSegment(seg.ID) {
			if finished := w.closeLap(); finished {
				w.car.SetStatus(StatusFinished)
				return
			}
			w.car.SetSegmentID(0)
		} else {
			w.car.SetSegmentID(w.circuit.Track.Next(seg.ID))
		}
		w.car.SetProgress(0)
	}
}

// traverseCritical acquires the segment's admission gate (if any),
// traverses it, and releases the gate. Returns false if the worker was
// interrupted and Run should exit.
func (w *Worker) traverseCritical(seg track.Segment) bool {
	gate, guarded := w.circuit.Gates[seg.ID]
	if guarded {
		w.car.SetStatus(StatusWaitingForSegment)
		if err := gate.Enter(admission.CarID(w.car.ID), w.stop); err != nil {
			return false
		}
		w.car.SetStatus(StatusInCritical)
	}

	w.traverse(seg)

	if guarded {
		if err := gate.Leave(admission.CarID(w.car.ID)); err != nil {
			w.log.Error("leave_failed", err, map[string]interface{}{"segment": seg.ID})
		}
		if !w.shouldStop() {
			w.car.SetStatus(StatusRunning)
		}
	}
	return true
}

// traverse subdivides seg into config.SegmentSubSteps sub-steps, sleeping
// and publishing progress monotonically at each, per spec §4.5.
func (w *Worker) traverse(seg track.Segment) {
	steps := w.cfg.SegmentSubSteps
	if steps < 1 {
		steps = 1
	}
	tyreFactor := w.car.Tyres().SpeedFactor()
	stepTime := config.ScaleDuration(seg.BaseTraversal, w.speed.Speed()*tyreFactor) / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if w.shouldStop() {
			return
		}
		time.Sleep(stepTime)
		w.car.SetProgress(float64(i) / float64(steps))
	}

	if w.trackLength > 0 {
		w.car.AddTyreWear(seg.Length / w.trackLength)
	}
}

// attemptOvertake rolls an overtake attempt against the car directly ahead
// in the same segment, if one exists within the configured gap threshold
// (spec §4.9).
func (w *Worker) attemptOvertake(seg track.Segment) {
	ahead, ok := w.field.CarAhead(w.car.ID, seg.ID, w.car.Progress())
	if !ok {
		return
	}

	gapFraction := ahead.Progress - w.car.Progress()
	if gapFraction < 0 {
		gapFraction = 0
	}
	tyreFactor := w.car.Tyres().SpeedFactor()
	segmentTime := config.ScaleDuration(seg.BaseTraversal, w.speed.Speed()*tyreFactor)
	gap := time.Duration(gapFraction * float64(segmentTime))
	if gap >= w.cfg.OvertakeGapThreshold {
		return
	}

	w.car.SetStatus(StatusInOvertakeZone)
	selfTyres := w.car.Tyres()
	attempt := overtake.Attempt{
		OvertakerTyreWear:    selfTyres.Wear,
		DefenderTyreWear:     ahead.TyreWear,
		OvertakerSpeedFactor: selfTyres.SpeedFactor(),
		DefenderSpeedFactor:  1.0, // opponent compound factor approximated from the field snapshot alone
		DRSAllowed:           seg.Kind == track.KindDRSZone,
		Gap:                  gap,
		OvertakerSkill:       w.car.Skill,
		DefenderSkill:        0, // field snapshot does not carry the defender's skill; treated as neutral
		DefenderProgress:     ahead.Progress,
		ProgressBonus:        w.cfg.OvertakeProgressBonus,
	}

	result := w.arbiter.Roll(attempt)
	if result.Success {
		w.car.SetProgress(result.OvertakerProgress)
		w.log.Info("overtake_success", map[string]interface{}{"ahead": ahead.ID, "segment": seg.ID, "probability": result.Probability})
		if w.events != nil {
			w.events.OvertakeEvent(w.car.ID, ahead.ID)
		}
	}
	if !w.shouldStop() {
		w.car.SetStatus(StatusRunning)
	}
}

// runPitLane executes the full pit sequence: entry admission, pit-entry
// traversal, box handoff, exit admission, pit-exit traversal (spec §4.3,
// §4.4). Returns false if the worker was interrupted and Run should exit.
func (w *Worker) runPitLane(compound pitbox.Compound) bool {
	segs := w.circuit.Track.PitLaneSegments()
	entrySeg, boxSeg, exitSeg := segs[0], segs[1], segs[2]
	id := admission.CarID(w.car.ID)

	w.car.SetStatus(StatusEnteringPit)
	if w.events != nil {
		w.events.PitEvent(w.car.ID, "entering")
	}
	if err := w.circuit.PitLane.AcquireEntry(id, w.stop); err != nil {
		return false
	}
	w.car.SetSegmentID(entrySeg.ID)
	w.car.SetProgress(0)
	w.traverse(entrySeg)
	if err := w.circuit.PitLane.ReleaseEntry(id); err != nil {
		w.log.Error("pit_entry_release_failed", err, nil)
	}
	if w.shouldStop() {
		return false
	}

	w.car.SetStatus(StatusInBox)
	w.car.SetSegmentID(boxSeg.ID)
	w.car.SetProgress(0)
	if w.events != nil {
		w.events.PitEvent(w.car.ID, "in_box")
	}
	box, ok := w.circuit.Boxes[w.car.Team]
	if !ok {
		w.log.Error("no_pit_box", raceerr.Semantic("no_pit_box", "team has no configured pit box"), map[string]interface{}{"team": w.car.Team})
		return false
	}
	newTyres, err := box.PerformStop(w.car.ID, compound, w.stop)
	if err != nil {
		if rerr, ok := err.(*raceerr.Error); ok && rerr.Kind == raceerr.KindInterrupted {
			return false
		}
		w.log.Error("pit_stop_failed", err, nil)
		return false
	}
	w.car.SetTyres(newTyres)
	w.car.IncPitStops()
	w.car.SetMandatoryPitDone(true)
	w.log.Info("pit_stop_complete", map[string]interface{}{"compound": compound, "stops": w.car.PitStops()})

	w.car.SetStatus(StatusLeavingPit)
	w.car.SetSegmentID(exitSeg.ID)
	w.car.SetProgress(0)
	if w.events != nil {
		w.events.PitEvent(w.car.ID, "leaving")
	}
	if err := w.circuit.PitLane.AcquireExit(id, w.stop); err != nil {
		return false
	}
	w.traverse(exitSeg)
	if err := w.circuit.PitLane.ReleaseExit(id); err != nil {
		w.log.Error("pit_exit_release_failed", err, nil)
	}
	if w.shouldStop() {
		return false
	}
	w.car.SetStatus(StatusRunning)
	if w.events != nil {
		w.events.PitEvent(w.car.ID, "complete")
	}
	return true
}

// closeLap publishes a completed lap (spec §4.5's "close the lap" step)
// and reports whether the car has now finished the race.
func (w *Worker) closeLap() bool {
	now := time.Now()
	lapTime := now.Sub(w.car.LapStart())
	w.car.CloseLap(lapTime)
	w.car.SetLapStart(now)
	completed := w.car.IncCompletedLaps()
	w.car.SetCurrentLap(completed + 1)
	w.log.Info("lap_complete", map[string]interface{}{"lap": completed, "lap_time": lapTime})

	if w.laps != nil {
		w.laps.AppendLap(w.car.ID, completed, lapTime, now)
	}
	if w.events != nil {
		w.events.LapCompleted(w.car.ID, completed)
	}

	if completed >= w.totalLaps {
		return w.car.SetFinished()
	}
	return false
}
