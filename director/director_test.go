package director

import (
	"testing"
	"time"

	"github.com/psybedev/racecore/admission"
	"github.com/psybedev/racecore/car"
	"github.com/psybedev/racecore/config"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/pitbox"
	"github.com/psybedev/racecore/racestate"
)

func fastConfig() *config.Config {
	cfg := config.Default()
	cfg.StartLightInterval = 2 * time.Millisecond
	cfg.StartReleaseJitterMin = 1 * time.Millisecond
	cfg.StartReleaseJitterMax = 2 * time.Millisecond
	cfg.GUIUpdateInterval = 2 * time.Millisecond
	cfg.FinishSettleInterval = 2 * time.Millisecond
	return cfg
}

type recordingObserver struct {
	lights  []int
	release bool
	results []racestate.Result
	done    chan struct{}
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{done: make(chan struct{})}
}

func (r *recordingObserver) OnLight(n int)                        { r.lights = append(r.lights, n) }
func (r *recordingObserver) OnRelease()                           { r.release = true }
func (r *recordingObserver) OnStandingsChanged(standings []car.Snapshot) {}
func (r *recordingObserver) OnFinished(results []racestate.Result) {
	r.results = results
	close(r.done)
}

func TestStartSequenceAndFinishFlow(t *testing.T) {
	cars := []*car.Car{
		car.New(0, "Falcon Racing", "A. Reyes", 0.8, pitbox.CompoundMedium),
		car.New(1, "Apex Motorsport", "L. Novak", 0.8, pitbox.CompoundMedium),
	}
	state := racestate.New([]string{"Falcon Racing", "Apex Motorsport"}, cars)
	latch := admission.NewStartLatch()
	obs := newRecordingObserver()
	cfg := fastConfig()

	d := New(latch, cfg, state, logging.Noop(), len(cars), obs)
	d.MarkReady()
	d.MarkReady()
	d.Start()

	released := make(chan struct{})
	go func() {
		latch.AwaitRelease(nil)
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("start latch was never released")
	}

	if !obs.release {
		t.Fatal("expected OnRelease to have fired")
	}
	if len(obs.lights) != 5 {
		t.Fatalf("expected 5 light callbacks, got %d", len(obs.lights))
	}

	cars[0].SetFinished()

	select {
	case <-obs.done:
	case <-time.After(2 * time.Second):
		t.Fatal("director never compiled results after a finisher")
	}

	if len(obs.results) != len(cars) {
		t.Fatalf("expected one result per car, got %d", len(obs.results))
	}
	if state.Status() != racestate.StatusFinished {
		t.Fatalf("expected race status finished, got %v", state.Status())
	}
}

func TestPauseResumeTogglesStatus(t *testing.T) {
	state := racestate.New(nil, nil)
	state.SetStatus(racestate.StatusRunning)
	latch := admission.NewStartLatch()
	d := New(latch, fastConfig(), state, logging.Noop(), 0, nil)

	d.Pause()
	if state.Status() != racestate.StatusPaused {
		t.Fatalf("expected paused status, got %v", state.Status())
	}
	d.Resume()
	if state.Status() != racestate.StatusRunning {
		t.Fatalf("expected running status after resume, got %v", state.Status())
	}
}
