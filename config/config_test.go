package config

import (
	"testing"
	"time"
)

func TestScaleDurationFloorsAtOneMillisecond(t *testing.T) {
	d := ScaleDuration(500*time.Microsecond, 1)
	if d != time.Millisecond {
		t.Fatalf("expected floor of 1ms, got %v", d)
	}
}

func TestScaleDurationAppliesSpeedFactor(t *testing.T) {
	d := ScaleDuration(2*time.Second, 2)
	if d != time.Second {
		t.Fatalf("expected halved duration at 2x speed, got %v", d)
	}
}

func TestScaleDurationGuardsNonPositiveSpeed(t *testing.T) {
	d := ScaleDuration(time.Second, 0)
	if d != time.Second {
		t.Fatalf("expected 1x fallback for non-positive speed, got %v", d)
	}
}

func TestValidateLapCountBounds(t *testing.T) {
	v := NewValidator(Default())

	if err := v.ValidateLapCount(Default().MinLapCount); err != nil {
		t.Fatalf("min lap count should be valid: %v", err)
	}
	if err := v.ValidateLapCount(Default().MaxLapCount); err != nil {
		t.Fatalf("max lap count should be valid: %v", err)
	}
	if err := v.ValidateLapCount(Default().MinLapCount - 1); err == nil {
		t.Fatal("expected error below minimum lap count")
	}
	if err := v.ValidateLapCount(Default().MaxLapCount + 1); err == nil {
		t.Fatal("expected error above maximum lap count")
	}
}

func TestValidateSimulationSpeedAllowedSet(t *testing.T) {
	v := NewValidator(Default())

	for _, speed := range Default().AllowedSimulationSpeeds {
		if err := v.ValidateSimulationSpeed(speed); err != nil {
			t.Fatalf("speed %v should be valid: %v", speed, err)
		}
	}
	if err := v.ValidateSimulationSpeed(3); err == nil {
		t.Fatal("expected error for a speed outside the allowed set")
	}
}
