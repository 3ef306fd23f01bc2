// Package controller wires the simulation core together and exposes the
// View-facing contract from spec §6. The simulation core itself never
// imports this package — it is exercised purely through the injected
// EventSink, keeping "the simulation logic fully independent of any
// presentation" (spec §6).
package controller

import (
	"fmt"

	"github.com/psybedev/racecore/car"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/racestate"
)

// EventSink is the Core→View contract: one method per event kind named in
// spec §6 (light_on, start_released, lap_completed, pit_event,
// overtake_event, standings_changed, race_finished, commentary).
type EventSink interface {
	LightOn(n int)
	StartReleased()
	LapCompleted(carID, lap int)
	PitEvent(carID int, stage string)
	OvertakeEvent(overtaker, defender int)
	StandingsChanged(standings []car.Snapshot)
	RaceFinished(results []racestate.Result)
	Commentary(line string)
}

// LogSink is a wails-free EventSink that writes every event to a
// logging.Logger, backing cmd/racesim so the core is demonstrable without
// a frontend build (spec §6: "the simulation logic is fully independent
// of any presentation").
type LogSink struct {
	log logging.Logger
}

// NewLogSink builds a LogSink over log.
func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("sink", "console")}
}

func (s *LogSink) LightOn(n int) {
	s.log.Info("light_on", map[string]interface{}{"light": n})
}

func (s *LogSink) StartReleased() {
	s.log.Info("start_released", nil)
}

func (s *LogSink) LapCompleted(carID, lap int) {
	s.log.Info("lap_completed", map[string]interface{}{"car": carID, "lap": lap})
}

func (s *LogSink) PitEvent(carID int, stage string) {
	s.log.Info("pit_event", map[string]interface{}{"car": carID, "stage": stage})
}

func (s *LogSink) OvertakeEvent(overtaker, defender int) {
	s.log.Info("overtake_event", map[string]interface{}{"overtaker": overtaker, "defender": defender})
}

func (s *LogSink) StandingsChanged(standings []car.Snapshot) {
	if len(standings) == 0 {
		return
	}
	s.log.Info("standings_changed", map[string]interface{}{"leader": standings[0].ID, "count": len(standings)})
}

func (s *LogSink) RaceFinished(results []racestate.Result) {
	s.log.Info("race_finished", map[string]interface{}{"count": len(results)})
	for _, r := range results {
		fmt.Printf("P%-2d  %-20s  %-12s  gap %-10s  pits %d\n", r.Position, r.Driver, r.Team, r.GapToLead, r.PitStops)
	}
}

func (s *LogSink) Commentary(line string) {
	s.log.Info("commentary", map[string]interface{}{"line": line})
}
