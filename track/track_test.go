package track

import (
	"testing"
	"time"
)

func TestDefaultCircuitBuilds(t *testing.T) {
	tr, err := DefaultCircuit()
	if err != nil {
		t.Fatalf("default circuit build failed: %v", err)
	}
	if tr.Len() != 15 {
		t.Fatalf("expected 15 main-ring segments, got %d", tr.Len())
	}
	if len(tr.PitLaneSegments()) != 3 {
		t.Fatalf("expected 3 pit-lane segments, got %d", len(tr.PitLaneSegments()))
	}
}

func TestSegmentCapacityDefaults(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindTightTurn, 1},
		{KindChicane, 2},
		{KindPitEntry, 3},
		{KindPitExit, 3},
		{KindStraight, Unbounded},
	}
	for _, c := range cases {
		seg := NewSegment(0, c.kind, 1, time.Second, nil)
		if seg.Capacity != c.want {
			t.Errorf("%v: expected capacity %d, got %d", c.kind, c.want, seg.Capacity)
		}
	}
}

func TestOvertakingAllowedOnlyOnStraightsAndDRS(t *testing.T) {
	for _, k := range []Kind{KindStraight, KindDRSZone} {
		if seg := NewSegment(0, k, 1, time.Second, nil); !seg.OvertakingAllowed {
			t.Errorf("%v should allow overtaking", k)
		}
	}
	for _, k := range []Kind{KindTightTurn, KindChicane, KindNormalTurn, KindStartFinish} {
		if seg := NewSegment(0, k, 1, time.Second, nil); seg.OvertakingAllowed {
			t.Errorf("%v should not allow overtaking", k)
		}
	}
}

func TestNextWrapsLapAtFinalSegment(t *testing.T) {
	tr, err := DefaultCircuit()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	last := tr.Len() - 1
	if !tr.IsLastSegment(last) {
		t.Fatalf("segment %d should be the last segment", last)
	}
	if tr.Next(last) != 0 {
		t.Fatalf("expected wrap to segment 0, got %d", tr.Next(last))
	}
	if tr.Next(0) != 1 {
		t.Fatalf("expected segment 1 after 0, got %d", tr.Next(0))
	}
}

func TestBuilderRejectsMissingPitLane(t *testing.T) {
	_, err := NewBuilder().AddSegment(KindStartFinish, 1, time.Second, nil).Build()
	if err == nil {
		t.Fatal("expected error building a track with no pit lane configured")
	}
}

func TestBuilderRejectsOutOfRangeBranch(t *testing.T) {
	_, err := NewBuilder().
		AddSegment(KindStartFinish, 1, time.Second, nil).
		WithPitLane(5, 0, 0.5, time.Second).
		Build()
	if err == nil {
		t.Fatal("expected error for out-of-range pit branch segment")
	}
}
