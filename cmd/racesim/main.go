// Command racesim is a runnable, wails-free console demo exercising a full
// race end to end, grounded on demos/cache_integration_demo.go's
// env-var-gated pattern (GEMINI_API_KEY optional; falls back to template
// commentary when unset).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/psybedev/racecore/controller"
	"github.com/psybedev/racecore/logging"
)

func main() {
	fmt.Println("=== racecore console demo ===")

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Println("GEMINI_API_KEY not set - commentary will use canned templates")
	}

	log := logging.New(os.Stdout)
	app := controller.NewApp(log, apiKey)

	roster := defaultRoster()
	const totalLaps = 10

	if err := app.Initialise(roster, totalLaps); err != nil {
		fmt.Fprintf(os.Stderr, "initialise failed: %v\n", err)
		os.Exit(1)
	}

	if err := app.StartRace(); err != nil {
		fmt.Fprintf(os.Stderr, "start race failed: %v\n", err)
		os.Exit(1)
	}

	// The console demo has no external view driving StopRace, so give the
	// race a generous wall-clock ceiling and let the director's own finish
	// detection end it first in the common case.
	time.Sleep(5 * time.Minute)
	app.StopRace()
}

func defaultRoster() []controller.Roster {
	teams := []string{"Falcon Racing", "Apex Motorsport", "Vantage GP", "Redline Works", "Summit Racing",
		"Horizon F1", "Meridian Team", "Vortex Racing", "Crestline GP", "Pinnacle Motorsport"}

	drivers := [][2]string{
		{"A. Reyes", "M. Okafor"}, {"L. Novak", "J. Park"}, {"S. Dubois", "R. Castillo"},
		{"T. Lindqvist", "K. Mensah"}, {"E. Hartmann", "V. Petrov"}, {"N. Saito", "D. Kowalski"},
		{"F. Almeida", "C. Renner"}, {"H. Sorensen", "P. Ibrahim"}, {"W. Oyelaran", "G. Bianchi"},
		{"M. Andersson", "Y. Tanaka"},
	}

	var roster []controller.Roster
	for i, team := range teams {
		skill1 := 0.75 + 0.02*float64(i%5)
		skill2 := 0.72 + 0.02*float64((i+2)%5)
		roster = append(roster,
			controller.Roster{Team: team, Driver: drivers[i][0], Skill: skill1},
			controller.Roster{Team: team, Driver: drivers[i][1], Skill: skill2},
		)
	}
	return roster
}
