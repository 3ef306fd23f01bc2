package car

import (
	"testing"
	"time"

	"github.com/psybedev/racecore/pitbox"
)

func TestPublishedFieldRoundTrip(t *testing.T) {
	c := New(1, "Falcon Racing", "A. Reyes", 0.8, pitbox.CompoundMedium)

	c.SetStatus(StatusRunning)
	c.SetSegmentID(4)
	c.SetProgress(0.42)
	c.SetCurrentLap(3)

	if c.Status() != StatusRunning {
		t.Fatalf("status round-trip failed: %v", c.Status())
	}
	if c.SegmentID() != 4 {
		t.Fatalf("segment id round-trip failed: %v", c.SegmentID())
	}
	if c.Progress() != 0.42 {
		t.Fatalf("progress round-trip failed: %v", c.Progress())
	}
	if c.CurrentLap() != 3 {
		t.Fatalf("current lap round-trip failed: %v", c.CurrentLap())
	}
}

func TestSetFinishedFirstTransitionOnly(t *testing.T) {
	c := New(1, "Falcon Racing", "A. Reyes", 0.8, pitbox.CompoundMedium)
	if !c.SetFinished() {
		t.Fatal("first SetFinished call should report the transition")
	}
	if c.SetFinished() {
		t.Fatal("second SetFinished call should be a no-op report")
	}
	if !c.Finished() {
		t.Fatal("finished flag should be set")
	}
}

func TestPitRequestSingleWriterSingleReader(t *testing.T) {
	c := New(1, "Falcon Racing", "A. Reyes", 0.8, pitbox.CompoundMedium)

	if _, ok := c.ConsumePitRequest(); ok {
		t.Fatal("no pit request should be pending initially")
	}

	c.RequestPit(pitbox.CompoundHard)
	if !c.PitRequested() {
		t.Fatal("pit request should be visible after RequestPit")
	}

	compound, ok := c.ConsumePitRequest()
	if !ok || compound != pitbox.CompoundHard {
		t.Fatalf("unexpected consumed pit request: compound=%v ok=%v", compound, ok)
	}

	if _, ok := c.ConsumePitRequest(); ok {
		t.Fatal("pit request should be cleared after being consumed once")
	}
}

func TestCloseLapTracksBestAndAccumulated(t *testing.T) {
	c := New(1, "Falcon Racing", "A. Reyes", 0.8, pitbox.CompoundMedium)

	c.CloseLap(90 * time.Second)
	c.CloseLap(85 * time.Second)
	c.CloseLap(95 * time.Second)

	last, best, acc := c.Timing()
	if last != 95*time.Second {
		t.Fatalf("expected last lap 95s, got %v", last)
	}
	if best != 85*time.Second {
		t.Fatalf("expected best lap 85s, got %v", best)
	}
	if acc != 270*time.Second {
		t.Fatalf("expected accumulated 270s, got %v", acc)
	}
}

func TestResetClearsRaceState(t *testing.T) {
	c := New(1, "Falcon Racing", "A. Reyes", 0.8, pitbox.CompoundSoft)
	c.SetStatus(StatusFinished)
	c.SetSegmentID(9)
	c.IncCompletedLaps()
	c.IncPitStops()
	c.SetMandatoryPitDone(true)
	c.SetFinished()
	c.CloseLap(time.Minute)
	c.RequestPit(pitbox.CompoundHard)

	c.Reset(0, pitbox.CompoundMedium)

	if c.Status() != StatusGrid {
		t.Fatalf("expected grid status after reset, got %v", c.Status())
	}
	if c.SegmentID() != 0 || c.CompletedLaps() != 0 || c.PitStops() != 0 {
		t.Fatal("counters not cleared by reset")
	}
	if c.MandatoryPitDone() || c.Finished() {
		t.Fatal("flags not cleared by reset")
	}
	if c.PitRequested() {
		t.Fatal("pit request not cleared by reset")
	}
	last, best, acc := c.Timing()
	if last != 0 || best != 0 || acc != 0 {
		t.Fatal("timing not cleared by reset")
	}
	if c.Tyres().Compound != pitbox.CompoundMedium || c.Tyres().Wear != 0 {
		t.Fatal("tyres not reset to fresh compound")
	}
}

func TestSnapshotIsSelfConsistentEnough(t *testing.T) {
	c := New(2, "Apex Motorsport", "L. Novak", 0.9, pitbox.CompoundSoft)
	c.SetSegmentID(6)
	c.SetProgress(0.3)
	c.SetCurrentLap(2)

	snap := c.Snapshot()
	if snap.ID != 2 || snap.Team != "Apex Motorsport" || snap.Driver != "L. Novak" {
		t.Fatalf("unexpected identity fields in snapshot: %+v", snap)
	}
	if snap.SegmentID != 6 || snap.Progress != 0.3 || snap.CurrentLap != 2 {
		t.Fatalf("unexpected published fields in snapshot: %+v", snap)
	}
}
