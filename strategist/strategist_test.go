package strategist

import (
	"testing"

	"github.com/psybedev/racecore/car"
	"github.com/psybedev/racecore/config"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/pitbox"
	"github.com/psybedev/racecore/racestate"
)

func newEvalHarness(totalLaps int) (*Strategist, *car.Car) {
	c := car.New(0, "Falcon Racing", "A. Reyes", 0.8, pitbox.CompoundMedium)
	state := racestate.New([]string{"Falcon Racing"}, []*car.Car{c})
	s := New("Falcon Racing", []*car.Car{c}, config.Default(), state, logging.Noop(), totalLaps)
	return s, c
}

func TestMandatoryPitWindowHardDeadline(t *testing.T) {
	// Spec example: total laps = 30, a car on lap 24 (remaining 6) with low
	// wear does not request a stop; entering lap 25 (remaining 5) it does.
	s, c := newEvalHarness(30)
	c.SetCurrentLap(24)
	s.evaluate(c)
	if c.PitRequested() {
		t.Fatal("car on lap 24 of 30 with low wear should not yet be requested")
	}

	c.SetCurrentLap(25) // remaining = 5 == late bound -> hard deadline
	s.evaluate(c)
	if !c.PitRequested() {
		t.Fatal("expected a mandatory pit request at the hard deadline")
	}
}

func TestMandatoryPitWindowOpportunisticOnHighWear(t *testing.T) {
	s, c := newEvalHarness(30)
	c.SetCurrentLap(24) // remaining = 6, inside window, not hard deadline
	c.AddTyreWear(10)   // push wear above the opportunistic 60% threshold
	for c.Tyres().Wear < 61 {
		c.AddTyreWear(10)
	}
	s.evaluate(c)
	if !c.PitRequested() {
		t.Fatal("expected opportunistic pit request on high wear inside the window")
	}
}

func TestCriticalWearTriggersRegardlessOfWindow(t *testing.T) {
	s, c := newEvalHarness(30)
	c.SetCurrentLap(1) // far outside the mandatory window
	c.SetMandatoryPitDone(true)
	for c.Tyres().Wear < 81 {
		c.AddTyreWear(10)
	}
	s.evaluate(c)
	if !c.PitRequested() {
		t.Fatal("expected critical-wear pit request")
	}
}

func TestNoPitRequestWhenAlreadyFinishedOrPending(t *testing.T) {
	s, c := newEvalHarness(30)
	c.SetFinished()
	c.SetCurrentLap(26)
	s.evaluate(c)
	if c.PitRequested() {
		t.Fatal("a finished car should never receive a pit request")
	}

	s2, c2 := newEvalHarness(30)
	c2.SetCurrentLap(10) // remaining = 20: a fresh request would choose hard
	for c2.Tyres().Wear < 81 {
		c2.AddTyreWear(10)
	}
	c2.RequestPit(pitbox.CompoundSoft)
	s2.evaluate(c2)
	if compound, ok := c2.ConsumePitRequest(); !ok || compound != pitbox.CompoundSoft {
		t.Fatalf("a pending pit request should be left as it is, got compound=%v ok=%v", compound, ok)
	}
}

func TestCompoundChoiceByRemainingLaps(t *testing.T) {
	cases := []struct {
		remaining int
		want      pitbox.Compound
	}{
		{20, pitbox.CompoundHard},
		{15, pitbox.CompoundMedium},
		{8, pitbox.CompoundMedium},
		{7, pitbox.CompoundSoft},
	}
	for _, c := range cases {
		if got := compoundFor(c.remaining); got != c.want {
			t.Errorf("remaining=%d: expected %v, got %v", c.remaining, c.want, got)
		}
	}
}
