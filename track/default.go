package track

import "time"

// DefaultCircuit builds the reference 15-segment ring plus pit-lane detour
// used by the controller and by the track tests: a mix of straights, two
// DRS zones, two tight turns, a chicane, and a handful of normal turns,
// closing a lap.
func DefaultCircuit() (*Track, error) {
	b := NewBuilder().
		AddSegment(KindStartFinish, 0.3, 1300*time.Millisecond, nil).
		AddSegment(KindStraight, 0.8, 1300*time.Millisecond, nil).
		AddSegment(KindDRSZone, 0.6, 1300*time.Millisecond, &Zone{Name: "back straight DRS", Difficulty: "easy"}).
		AddSegment(KindNormalTurn, 0.2, 1300*time.Millisecond, nil).
		AddSegment(KindTightTurn, 0.15, 1300*time.Millisecond, nil).
		AddSegment(KindStraight, 0.4, 1300*time.Millisecond, nil).
		AddSegment(KindNormalTurn, 0.2, 1300*time.Millisecond, nil).
		AddSegment(KindChicane, 0.25, 1300*time.Millisecond, &Zone{Name: "esses", Difficulty: "medium"}).
		AddSegment(KindNormalTurn, 0.2, 1300*time.Millisecond, nil).
		AddSegment(KindStraight, 0.7, 1300*time.Millisecond, nil).
		AddSegment(KindDRSZone, 0.5, 1300*time.Millisecond, &Zone{Name: "main straight DRS", Difficulty: "easy"}).
		AddSegment(KindNormalTurn, 0.2, 1300*time.Millisecond, nil).
		AddSegment(KindTightTurn, 0.15, 1300*time.Millisecond, nil).
		AddSegment(KindNormalTurn, 0.2, 1300*time.Millisecond, nil).
		AddSegment(KindStraight, 0.35, 1300*time.Millisecond, nil).
		WithPitLane(1, 2, 0.6, 1300*time.Millisecond)

	return b.Build()
}
