package controller

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/psybedev/racecore/car"
	"github.com/psybedev/racecore/circuit"
	"github.com/psybedev/racecore/commentary"
	"github.com/psybedev/racecore/config"
	"github.com/psybedev/racecore/director"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/overtake"
	"github.com/psybedev/racecore/pit"
	"github.com/psybedev/racecore/pitbox"
	"github.com/psybedev/racecore/racestate"
	"github.com/psybedev/racecore/strategist"
	"github.com/psybedev/racecore/track"
)

// Roster describes one car to be placed on the grid, the one-time
// track/roster construction detail spec §1 puts out of scope for the
// synchronization architecture itself.
type Roster struct {
	Team   string
	Driver string
	Skill  float64
}

// App is the wails-bound View contract: a struct with a Startup lifecycle
// hook and exported methods matching spec §6's View→Core operations 1:1,
// in the wailsapp/wails/v2 idiom.
type App struct {
	ctx context.Context

	mu        sync.Mutex
	cfg       *config.Config
	validator *config.Validator
	sink      EventSink
	geminiKey string

	state   *racestate.RaceState
	circ    *circuit.Circuit
	dir     *director.Director
	comment *commentary.Generator
	workers []*car.Worker
	crews   []*pit.Crew
	strats  []*strategist.Strategist

	log     logging.Logger
	running bool
}

// NewApp builds an App with a console LogSink; SetEventSink replaces it.
// AI commentary is enabled exactly when geminiAPIKey is non-empty.
func NewApp(log logging.Logger, geminiAPIKey string) *App {
	cfg := config.Default()
	cfg.EnableAICommentary = geminiAPIKey != ""
	return &App{
		cfg:       cfg,
		validator: config.NewValidator(cfg),
		sink:      NewLogSink(log),
		geminiKey: geminiAPIKey,
		log:       log.With("role", "controller"),
	}
}

// Startup is the wails lifecycle hook: it stores the runtime context so
// later event emission can use it. Swapping in a wails-backed EventSink
// happens here in a production build (not wired in this module, which
// ships console-only — see DESIGN.md).
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
}

// SetEventSink overrides the event sink.
func (a *App) SetEventSink(sink EventSink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sink = sink
}

// Initialise builds the circuit, cars, and workers for a field of roster
// entries on the default circuit, total laps, at 1x speed. It does not
// start the race — call StartRace for that.
func (a *App) Initialise(roster []Roster, totalLaps int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.validator.ValidateLapCount(totalLaps); err != nil {
		return err
	}

	t, err := track.DefaultCircuit()
	if err != nil {
		return fmt.Errorf("build default circuit: %w", err)
	}

	teams := uniqueTeams(roster)
	a.circ = circuit.Build(t, teams)

	cars := make([]*car.Car, 0, len(roster))
	for i, r := range roster {
		cars = append(cars, car.New(i, r.Team, r.Driver, r.Skill, pitbox.CompoundMedium))
	}

	a.state = racestate.New(teams, cars)
	a.dir = director.New(a.circ.StartLatch, a.cfg, a.state, a.log, len(cars), a.observerBridge())
	a.comment = commentary.New(context.Background(), a.cfg, a.geminiKey, a.log)
	go a.drainCommentary()

	overtakeArbiter := newArbiter()

	carEvents := a.carEvents()
	a.workers = a.workers[:0]
	for _, c := range cars {
		onReady := func() { a.dir.MarkReady() }
		w := car.NewWorker(c, a.circ, a.cfg, overtakeArbiter, a.state, a.state, a.state, a.state, carEvents, a.log, totalLaps, onReady)
		a.workers = append(a.workers, w)
	}

	a.crews = a.crews[:0]
	a.strats = a.strats[:0]
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, team := range teams {
		box := a.circ.Boxes[team]
		a.crews = append(a.crews, pit.NewCrew(team, box, a.cfg, a.state, a.log, rng))

		var teamCars []*car.Car
		for _, c := range cars {
			if c.Team == team {
				teamCars = append(teamCars, c)
			}
		}
		a.strats = append(a.strats, strategist.New(team, teamCars, a.cfg, a.state, a.log, totalLaps))
	}

	return nil
}

// StartRace launches every worker goroutine plus the director.
func (a *App) StartRace() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return fmt.Errorf("race already running")
	}
	if a.state == nil {
		return fmt.Errorf("not initialised")
	}
	a.running = true

	for _, w := range a.workers {
		go w.Run()
	}
	for _, c := range a.crews {
		go c.Run()
	}
	for _, s := range a.strats {
		go s.Run()
	}
	a.dir.Start()
	return nil
}

// Pause toggles the race to paused.
func (a *App) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dir != nil {
		a.dir.Pause()
	}
}

// Resume toggles the race back to running.
func (a *App) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dir != nil {
		a.dir.Resume()
	}
}

// StopRace aborts the race and fans out shutdown to every worker.
func (a *App) StopRace() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dir != nil {
		a.dir.Stop()
	}
	for _, w := range a.workers {
		w.Stop()
	}
	for _, c := range a.crews {
		c.Stop()
	}
	for _, s := range a.strats {
		s.Stop()
	}
	if a.comment != nil {
		a.comment.Close()
	}
	a.running = false
}

// SetSimulationSpeed validates and applies a new simulation-speed
// multiplier (spec §6).
func (a *App) SetSimulationSpeed(factor float64) error {
	if err := a.validator.ValidateSimulationSpeed(factor); err != nil {
		return err
	}
	a.state.SetSpeed(factor)
	return nil
}

// SetLapCount validates a new total-lap-count ahead of Initialise being
// called again (spec §6). It does not affect a race already in progress.
func (a *App) SetLapCount(n int) error {
	return a.validator.ValidateLapCount(n)
}

func uniqueTeams(roster []Roster) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, r := range roster {
		if !seen[r.Team] {
			seen[r.Team] = true
			teams = append(teams, r.Team)
		}
	}
	return teams
}

func (a *App) drainCommentary() {
	for line := range a.comment.Lines() {
		a.sink.Commentary(line)
	}
}

func newArbiter() *overtake.Arbiter {
	return overtake.NewArbiter(nil)
}

// bridgeObserver forwards director callbacks onto the configured
// EventSink, and also submits the start release and the finish to the
// commentary generator.
type bridgeObserver struct {
	app *App
}

func (b bridgeObserver) OnLight(n int) {
	b.app.sink.LightOn(n)
}

func (b bridgeObserver) OnRelease() {
	b.app.sink.StartReleased()
	b.app.comment.Submit([]commentary.Event{{Kind: "start_released", Text: "lights out and away we go"}})
}

func (b bridgeObserver) OnStandingsChanged(standings []car.Snapshot) {
	b.app.sink.StandingsChanged(standings)
}

func (b bridgeObserver) OnFinished(results []racestate.Result) {
	b.app.sink.RaceFinished(results)
	b.app.comment.Submit([]commentary.Event{{Kind: "finished", Text: "chequered flag"}})
}

func (a *App) observerBridge() director.Observer {
	return bridgeObserver{app: a}
}

// carEventsBridge forwards car-worker events (lap completions, pit stage
// transitions, overtakes) onto the configured EventSink and feeds the
// commentary generator, mirroring bridgeObserver's shape for director
// callbacks.
type carEventsBridge struct {
	app *App
}

func (c carEventsBridge) LapCompleted(carID, lap int) {
	c.app.sink.LapCompleted(carID, lap)
}

func (c carEventsBridge) PitEvent(carID int, stage string) {
	c.app.sink.PitEvent(carID, stage)
	if stage == "entering" {
		c.app.comment.Submit([]commentary.Event{{Kind: "pit_requested", Car: carID}})
	}
}

func (c carEventsBridge) OvertakeEvent(overtaker, defender int) {
	c.app.sink.OvertakeEvent(overtaker, defender)
	c.app.comment.Submit([]commentary.Event{{Kind: "overtake", Car: overtaker, Text: fmt.Sprintf("past car %d", defender)}})
}

func (a *App) carEvents() car.Events {
	return carEventsBridge{app: a}
}
