package overtake

import (
	"math/rand"
	"testing"
	"time"
)

func TestProbabilityClampedToBounds(t *testing.T) {
	worst := Attempt{
		OvertakerTyreWear:    100,
		DefenderTyreWear:     0,
		OvertakerSpeedFactor: 0.8,
		DefenderSpeedFactor:  1.2,
		DRSAllowed:           false,
		Gap:                  5 * time.Second,
		OvertakerSkill:       0,
		DefenderSkill:        1,
	}
	if p := worst.probability(); p != minProbability {
		t.Fatalf("expected clamp to minProbability, got %v", p)
	}

	best := Attempt{
		OvertakerTyreWear:    0,
		DefenderTyreWear:     100,
		OvertakerSpeedFactor: 1.2,
		DefenderSpeedFactor:  0.8,
		DRSAllowed:           true,
		Gap:                  500 * time.Millisecond,
		OvertakerSkill:       1,
		DefenderSkill:        0,
	}
	if p := best.probability(); p != maxProbability {
		t.Fatalf("expected clamp to maxProbability, got %v", p)
	}
}

func TestSlipstreamBonusFade(t *testing.T) {
	if slipstreamBonus(500*time.Millisecond) != 1.0 {
		t.Fatal("expected full slipstream bonus under 1s")
	}
	if slipstreamBonus(3*time.Second) != 0.0 {
		t.Fatal("expected zero slipstream bonus at or beyond 2s")
	}
	mid := slipstreamBonus(1500 * time.Millisecond)
	if mid <= 0 || mid >= 1 {
		t.Fatalf("expected a fading value strictly between 0 and 1, got %v", mid)
	}
}

func TestRollSuccessCapsProgress(t *testing.T) {
	// rng seeded to always draw 0, guaranteeing success against any
	// positive probability.
	arb := NewArbiter(rand.New(zeroSource{}))
	attempt := Attempt{
		DRSAllowed:       true,
		Gap:              100 * time.Millisecond,
		DefenderProgress: 0.97,
		ProgressBonus:    0.05,
	}
	result := arb.Roll(attempt)
	if !result.Success {
		t.Fatal("expected success with a zero draw")
	}
	if result.OvertakerProgress != progressCap {
		t.Fatalf("expected progress capped at %v, got %v", progressCap, result.OvertakerProgress)
	}
}

func TestSnapshotCountsAttempts(t *testing.T) {
	arb := NewArbiter(nil)
	for i := 0; i < 5; i++ {
		arb.Roll(Attempt{})
	}
	stats := arb.Snapshot()
	if stats.Attempts != 5 {
		t.Fatalf("expected 5 attempts recorded, got %d", stats.Attempts)
	}
	if stats.Successes+stats.Failures != stats.Attempts {
		t.Fatalf("successes+failures should equal attempts: %+v", stats)
	}
}

// zeroSource is a rand.Source64 that always yields 0, driving Float64() to 0.
type zeroSource struct{}

func (zeroSource) Int63() int64  { return 0 }
func (zeroSource) Seed(int64)    {}
func (zeroSource) Uint64() uint64 { return 0 }
