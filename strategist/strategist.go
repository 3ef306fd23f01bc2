// Package strategist implements the team strategist worker from spec §4.7:
// one per team, polling both of the team's cars on a scaled interval and
// writing pit requests onto them, generalized from the teacher's
// strategy.PitStopCalculator tyre-window reasoning (strategy/pit_calculator.go).
package strategist

import (
	"time"

	"github.com/psybedev/racecore/car"
	"github.com/psybedev/racecore/config"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/pitbox"
	"github.com/psybedev/racecore/racestate"
)

// Strategist observes one team's cars and decides when to call them in.
type Strategist struct {
	team      string
	cars      []*car.Car
	cfg       *config.Config
	state     *racestate.RaceState
	log       logging.Logger
	totalLaps int

	stop    chan struct{}
	stopped bool
}

// New builds a strategist for one team's cars.
func New(team string, cars []*car.Car, cfg *config.Config, state *racestate.RaceState, log logging.Logger, totalLaps int) *Strategist {
	return &Strategist{
		team:      team,
		cars:      cars,
		cfg:       cfg,
		state:     state,
		log:       log.With("team", team).With("role", "strategist"),
		totalLaps: totalLaps,
		stop:      make(chan struct{}),
	}
}

// Stop raises this strategist's local cooperative-shutdown flag.
func (s *Strategist) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stop)
}

func (s *Strategist) shouldStop() bool {
	select {
	case <-s.stop:
		return true
	default:
	}
	return s.state.Finished()
}

// Run polls the team's cars at the configured interval until shutdown.
// Per spec §4.7, the strategist never holds a lock while waiting on
// another primitive — the interval sleep below is the only wait, and it
// holds nothing.
func (s *Strategist) Run() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("strategist_panic", nil, map[string]interface{}{"panic": r})
		}
	}()

	for !s.shouldStop() {
		for _, c := range s.cars {
			s.evaluate(c)
		}

		timer := time.NewTimer(config.ScaleDuration(s.cfg.StrategistInterval, s.state.Speed()))
		select {
		case <-timer.C:
		case <-s.stop:
			timer.Stop()
			return
		}
	}
}

// evaluate implements spec §4.7's decision rules for a single car.
func (s *Strategist) evaluate(c *car.Car) {
	if c.Finished() || c.PitRequested() {
		return
	}

	lap := c.CurrentLap()
	if lap < 1 {
		lap = 1
	}
	remaining := s.totalLaps - lap
	wear := c.Tyres().Wear

	if !c.MandatoryPitDone() {
		inWindow := lap >= s.cfg.MandatoryPitEarliest && lap <= s.totalLaps-s.cfg.MandatoryPitLateBefore
		hardDeadline := remaining <= s.cfg.MandatoryPitLateBefore
		opportunistic := wear >= s.cfg.MandatoryOpportunistic
		if inWindow && (hardDeadline || opportunistic) {
			s.requestPit(c, remaining, "mandatory")
			return
		}
	}

	if wear >= s.cfg.CriticalTyreWear && remaining > 2 {
		s.requestPit(c, remaining, "critical_wear")
	}
}

// requestPit chooses a compound by remaining-lap count (spec §4.7: hard
// for > 15, medium for 8..15, soft below 8) and writes the request.
func (s *Strategist) requestPit(c *car.Car, remaining int, reason string) {
	compound := compoundFor(remaining)
	c.RequestPit(compound)
	s.log.Info("pit_requested", map[string]interface{}{
		"car":       c.ID,
		"reason":    reason,
		"remaining": remaining,
		"compound":  compound,
	})
}

func compoundFor(remainingLaps int) pitbox.Compound {
	switch {
	case remainingLaps > 15:
		return pitbox.CompoundHard
	case remainingLaps >= 8:
		return pitbox.CompoundMedium
	default:
		return pitbox.CompoundSoft
	}
}
