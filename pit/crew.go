// Package pit implements the pit-crew worker side of the pit-box handoff
// from spec §4.4: one crew per team, waiting for a car to arrive, servicing
// it for a randomized duration, then reporting completion.
package pit

import (
	"math/rand"
	"time"

	"github.com/psybedev/racecore/config"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/pitbox"
	"github.com/psybedev/racecore/racestate"
)

// Crew drives one team's pit box: consumer side of the producer/consumer
// handoff a car worker's pitbox.Box.PerformStop call is the producer side
// of.
type Crew struct {
	team  string
	box   *pitbox.Box
	cfg   *config.Config
	state *racestate.RaceState
	log   logging.Logger
	rng   *rand.Rand

	stop    chan struct{}
	stopped bool
}

// NewCrew builds a pit crew for one team's box.
func NewCrew(team string, box *pitbox.Box, cfg *config.Config, state *racestate.RaceState, log logging.Logger, rng *rand.Rand) *Crew {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Crew{
		team:  team,
		box:   box,
		cfg:   cfg,
		state: state,
		log:   log.With("team", team).With("role", "crew"),
		rng:   rng,
		stop:  make(chan struct{}),
	}
}

// Stop raises this crew's local cooperative-shutdown flag.
func (c *Crew) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
}

func (c *Crew) shouldStop() bool {
	select {
	case <-c.stop:
		return true
	default:
	}
	return c.state.Finished()
}

// Run loops: wait for a resident car (bounded so shutdown is observed even
// with no traffic), service it for a randomized, speed-scaled duration,
// then report completion and loop back (spec §4.7's "crew loops back to
// wait_for_car" on a transient timeout).
func (c *Crew) Run() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("pit_crew_panic", recoveredErr(r), map[string]interface{}{"panic": r})
		}
	}()

	const pollTimeout = 500 * time.Millisecond
	for !c.shouldStop() {
		_, compound, ok := c.box.WaitForCar(pollTimeout, c.stop)
		if !ok {
			continue
		}
		if c.shouldStop() {
			return
		}

		duration := c.serviceDuration()
		c.log.Info("pit_service_started", map[string]interface{}{"compound": compound, "duration": duration})

		timer := time.NewTimer(config.ScaleDuration(duration, c.state.Speed()))
		select {
		case <-timer.C:
		case <-c.stop:
			timer.Stop()
			return
		}

		if err := c.box.FinishService(); err != nil {
			c.log.Error("finish_service_failed", err, nil)
		}
	}
}

// serviceDuration draws a uniform random duration in
// [PitServiceMin, PitServiceMax).
func (c *Crew) serviceDuration() time.Duration {
	lo, hi := c.cfg.PitServiceMin, c.cfg.PitServiceMax
	if hi <= lo {
		return lo
	}
	span := hi - lo
	return lo + time.Duration(c.rng.Int63n(int64(span)))
}

func recoveredErr(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return nil
}
