package pitbox

import (
	"testing"
	"time"
)

func TestPerformStopHandoff(t *testing.T) {
	box := NewBox()
	stop := make(chan struct{})

	resultCh := make(chan TyreSet, 1)
	errCh := make(chan error, 1)
	go func() {
		ts, err := box.PerformStop(7, CompoundSoft, stop)
		resultCh <- ts
		errCh <- err
	}()

	car, compound, ok := box.WaitForCar(time.Second, stop)
	if !ok {
		t.Fatal("crew did not observe arriving car")
	}
	if car != 7 || compound != CompoundSoft {
		t.Fatalf("unexpected handoff: car=%d compound=%s", car, compound)
	}

	if err := box.FinishService(); err != nil {
		t.Fatalf("finish service: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("perform stop returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("perform stop did not return after finish service")
	}

	ts := <-resultCh
	if ts.Compound != CompoundSoft || ts.Wear != 0 {
		t.Fatalf("unexpected fresh tyre set: %+v", ts)
	}
}

func TestWaitForCarTimeout(t *testing.T) {
	box := NewBox()
	stop := make(chan struct{})
	_, _, ok := box.WaitForCar(20*time.Millisecond, stop)
	if ok {
		t.Fatal("expected timeout with no resident car")
	}
}

func TestPerformStopCancellation(t *testing.T) {
	box := NewBox()
	stop := make(chan struct{})

	errCh := make(chan error, 1)
	go func() {
		_, err := box.PerformStop(3, CompoundHard, stop)
		errCh <- err
	}()

	// let the producer publish its request before cancelling
	time.Sleep(10 * time.Millisecond)
	close(stop)

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected interrupted error on cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("perform stop did not unblock on cancellation")
	}
}

func TestFinishServiceWithoutRequestIsProgrammingError(t *testing.T) {
	box := NewBox()
	if err := box.FinishService(); err == nil {
		t.Fatal("expected programming error")
	}
}

func TestTyreWearClampedAndNonDecreasing(t *testing.T) {
	ts := NewTyreSet(CompoundSoft)
	for i := 0; i < 50; i++ {
		ts.AddWear(1.0)
	}
	if ts.Wear != 100 {
		t.Fatalf("wear should clamp at 100, got %v", ts.Wear)
	}

	prev := 0.0
	ts2 := NewTyreSet(CompoundMedium)
	for i := 0; i < 5; i++ {
		ts2.AddWear(0.1)
		if ts2.Wear < prev {
			t.Fatalf("wear decreased: %v -> %v", prev, ts2.Wear)
		}
		prev = ts2.Wear
	}
}
