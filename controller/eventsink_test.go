package controller

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/psybedev/racecore/car"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/racestate"
)

func TestLogSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logging.New(&buf))

	sink.LightOn(3)
	sink.StartReleased()
	sink.LapCompleted(2, 7)
	sink.PitEvent(2, "entering")
	sink.OvertakeEvent(2, 5)
	sink.StandingsChanged([]car.Snapshot{{ID: 2}, {ID: 5}})
	sink.Commentary("Car 2 makes a move!")

	out := buf.String()
	for _, want := range []string{"light_on", "start_released", "lap_completed", "pit_event", "overtake_event", "standings_changed", "commentary"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestLogSinkRaceFinishedPrintsResultsTable(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logging.New(&buf))

	results := []racestate.Result{
		{Position: 1, Driver: "A. Reyes", Team: "Falcon Racing", GapToLead: 0, PitStops: 2},
		{Position: 2, Driver: "L. Novak", Team: "Apex Motorsport", GapToLead: 4210 * time.Millisecond, PitStops: 1},
	}

	sink.RaceFinished(results)

	if !strings.Contains(buf.String(), "race_finished") {
		t.Fatal("expected a race_finished log line")
	}
}
