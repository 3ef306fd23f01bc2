// Package director implements the race director from spec §4.6: the
// five-light start sequence, race supervision (first-finisher detection),
// and result compilation. Lifecycle shaped after the teacher's
// strategy.StrategyManager (ctx/cancel/mutex/isRunning, idempotent
// Start/Stop).
package director

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/psybedev/racecore/admission"
	"github.com/psybedev/racecore/car"
	"github.com/psybedev/racecore/config"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/racestate"
)

// Observer receives start-sequence callbacks (spec §4.6 step 1: "each
// light transition and the release fire observer callbacks") plus the
// recurring standings_changed hint (spec §6) fired once per supervision
// tick so a view layer knows when to re-read the live ordering.
type Observer interface {
	OnLight(n int)
	OnRelease()
	OnStandingsChanged(standings []car.Snapshot)
	OnFinished(results []racestate.Result)
}

// NoopObserver implements Observer with no-ops, for callers that only want
// the race driven, not observed.
type NoopObserver struct{}

func (NoopObserver) OnLight(int)                       {}
func (NoopObserver) OnRelease()                        {}
func (NoopObserver) OnStandingsChanged([]car.Snapshot) {}
func (NoopObserver) OnFinished([]racestate.Result)     {}

// Director is the singleton race-control worker.
type Director struct {
	latch     *admission.StartLatch
	cfg       *config.Config
	state     *racestate.RaceState
	log       logging.Logger
	observer  Observer
	totalCars int
	rng       *rand.Rand

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool

	readyMu    sync.Mutex
	readyCount int
}

// New builds a director over a given race state and total field size.
func New(latch *admission.StartLatch, cfg *config.Config, state *racestate.RaceState, log logging.Logger, totalCars int, observer Observer) *Director {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Director{
		latch:     latch,
		cfg:       cfg,
		state:     state,
		log:       log.With("role", "director"),
		observer:  observer,
		totalCars: totalCars,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// MarkReady is called by a car worker once it is about to block on the
// start latch; the director counts these toward the ready quorum (spec
// §4.6 step 1: "≥ 50% of the field").
func (d *Director) MarkReady() {
	d.readyMu.Lock()
	d.readyCount++
	d.readyMu.Unlock()
}

func (d *Director) readyQuorumMet() bool {
	d.readyMu.Lock()
	count := d.readyCount
	d.readyMu.Unlock()
	return count*d.cfg.ReadyQuorumDenominator >= d.totalCars*d.cfg.ReadyQuorumNumerator
}

// Start launches the director's goroutine: start sequence, then
// supervision, then result compilation. Idempotent — a second call while
// running is a no-op.
func (d *Director) Start() {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.ctx, d.cancel, d.isRunning = ctx, cancel, true
	d.mu.Unlock()

	go d.run(ctx)
}

// Stop aborts the race: sets status to aborted and raises "finished" to
// fan out shutdown (spec §4.6's abort rule).
func (d *Director) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.isRunning {
		return
	}
	d.isRunning = false
	d.state.SetStatus(racestate.StatusAborted)
	d.state.Finish()
	d.cancel()
}

// Pause toggles the race-state status to paused (spec §4.6: "workers are
// not explicitly paused", a documented limitation — see DESIGN.md).
func (d *Director) Pause() {
	if d.state.Status() == racestate.StatusRunning {
		d.state.SetStatus(racestate.StatusPaused)
	}
}

// Resume toggles the race-state status back to running.
func (d *Director) Resume() {
	if d.state.Status() == racestate.StatusPaused {
		d.state.SetStatus(racestate.StatusRunning)
	}
}

func (d *Director) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("director_panic", nil, map[string]interface{}{"panic": r})
		}
	}()

	if !d.runStartSequence(ctx) {
		return
	}
	if !d.supervise(ctx) {
		return
	}
	d.compileResults()
}

// runStartSequence implements spec §4.6 step 1.
func (d *Director) runStartSequence(ctx context.Context) bool {
	d.state.SetStatus(racestate.StatusStartPhase)

	for !d.readyQuorumMet() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(20 * time.Millisecond):
		}
	}

	for n := 1; n <= 5; n++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(config.ScaleDuration(d.cfg.StartLightInterval, d.state.Speed())):
		}
		d.observer.OnLight(n)
	}

	jitterSpan := d.cfg.StartReleaseJitterMax - d.cfg.StartReleaseJitterMin
	jitter := d.cfg.StartReleaseJitterMin
	if jitterSpan > 0 {
		jitter += time.Duration(d.rng.Int63n(int64(jitterSpan)))
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(config.ScaleDuration(jitter, d.state.Speed())):
	}

	d.state.MarkStarted()
	d.state.SetStatus(racestate.StatusRunning)
	d.latch.Release()
	d.observer.OnRelease()
	return true
}

// supervise implements spec §4.6 step 2.
func (d *Director) supervise(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(config.ScaleDuration(d.cfg.GUIUpdateInterval, d.state.Speed())):
		}

		if d.state.Status() == racestate.StatusPaused {
			continue
		}

		d.observer.OnStandingsChanged(d.state.Standings())

		if snap, ok := d.state.AnyFinished(); ok {
			d.log.Info("leader_finished", map[string]interface{}{"car": snap.ID})
			d.state.Finish()
			select {
			case <-ctx.Done():
				return false
			case <-time.After(config.ScaleDuration(d.cfg.FinishSettleInterval, d.state.Speed())):
			}
			d.state.SetStatus(racestate.StatusFinished)
			return true
		}
	}
}

// compileResults implements spec §4.6 step 3: sort by the live-ordering
// key, compute each car's delta to the leader, append one result per car.
func (d *Director) compileResults() {
	standings := d.state.Standings()
	if len(standings) == 0 {
		d.observer.OnFinished(nil)
		return
	}

	leaderAccum := standings[0].Accumulated
	results := make([]racestate.Result, len(standings))
	for i, snap := range standings {
		results[i] = racestate.Result{
			Position:  i + 1,
			CarID:     snap.ID,
			Driver:    snap.Driver,
			Team:      snap.Team,
			TotalTime: snap.Accumulated,
			BestLap:   snap.BestLapTime,
			PitStops:  snap.PitStops,
			GapToLead: snap.Accumulated - leaderAccum,
		}
	}
	d.state.SetResults(results)
	d.log.Info("results_compiled", map[string]interface{}{"count": len(results)})
	d.observer.OnFinished(results)
}
