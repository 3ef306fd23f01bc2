// Package config holds the tunable constants for the race simulation and
// the validated setters exposed across the View->Core boundary.
package config

import "time"

// Config collects every time-scaled and threshold constant used by the
// simulation core. All durations are expressed at 1x speed; callers divide
// by the race's simulation-speed multiplier at the point of use
// (ScaleDuration).
type Config struct {
	BaseSegmentTime time.Duration `json:"base_segment_time"` // 1x traversal time for a segment
	SegmentSubSteps int           `json:"segment_sub_steps"` // subdivisions per segment traversal

	PitServiceMin time.Duration `json:"pit_service_min"`
	PitServiceMax time.Duration `json:"pit_service_max"`

	GUIUpdateInterval    time.Duration `json:"gui_update_interval"`
	StrategistInterval   time.Duration `json:"strategist_interval"`
	FinishSettleInterval time.Duration `json:"finish_settle_interval"`

	CriticalTyreWear       float64 `json:"critical_tyre_wear"`       // percentage, e.g. 80
	MandatoryPitEarliest   int     `json:"mandatory_pit_earliest"`   // lap
	MandatoryPitLateBefore int     `json:"mandatory_pit_late_before"` // laps remaining
	MandatoryOpportunistic float64 `json:"mandatory_opportunistic_wear"`

	StartLightInterval     time.Duration `json:"start_light_interval"`
	StartReleaseJitterMin  time.Duration `json:"start_release_jitter_min"`
	StartReleaseJitterMax  time.Duration `json:"start_release_jitter_max"`
	ReadyQuorumNumerator   int           `json:"ready_quorum_numerator"`
	ReadyQuorumDenominator int           `json:"ready_quorum_denominator"`

	OvertakeGapThreshold  time.Duration `json:"overtake_gap_threshold"`
	OvertakeProgressBonus float64       `json:"overtake_progress_bonus"`

	MinLapCount int `json:"min_lap_count"`
	MaxLapCount int `json:"max_lap_count"`

	AllowedSimulationSpeeds []float64 `json:"allowed_simulation_speeds"`

	EnableAICommentary bool   `json:"enable_ai_commentary"`
	CommentaryModel    string `json:"commentary_model"`
}

// Default returns the constants tabulated in the specification's
// configuration table, scaled at 1x.
func Default() *Config {
	return &Config{
		BaseSegmentTime: 1300 * time.Millisecond,
		SegmentSubSteps: 10,

		PitServiceMin: 2000 * time.Millisecond,
		PitServiceMax: 4000 * time.Millisecond,

		GUIUpdateInterval:    100 * time.Millisecond,
		StrategistInterval:   1000 * time.Millisecond,
		FinishSettleInterval: 150 * time.Millisecond,

		CriticalTyreWear:       80,
		MandatoryPitEarliest:   8,
		MandatoryPitLateBefore: 5,
		MandatoryOpportunistic: 60,

		StartLightInterval:     1000 * time.Millisecond,
		StartReleaseJitterMin:  500 * time.Millisecond,
		StartReleaseJitterMax:  3000 * time.Millisecond,
		ReadyQuorumNumerator:   1,
		ReadyQuorumDenominator: 2,

		OvertakeGapThreshold:  1000 * time.Millisecond,
		OvertakeProgressBonus: 0.05,

		MinLapCount: 3,
		MaxLapCount: 200,

		AllowedSimulationSpeeds: []float64{1, 2, 5, 10},

		EnableAICommentary: false,
		CommentaryModel:    "gemini-2.0-flash",
	}
}

// ScaleDuration divides d by speed, flooring at 1ms, matching the spec's
// "floor of 1 ms" rule for every time-scaled sleep.
func ScaleDuration(d time.Duration, speed float64) time.Duration {
	if speed <= 0 {
		speed = 1
	}
	scaled := time.Duration(float64(d) / speed)
	if scaled < time.Millisecond {
		return time.Millisecond
	}
	return scaled
}
