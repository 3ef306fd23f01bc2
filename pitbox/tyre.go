// Package pitbox implements the pit-box producer/consumer handoff from
// spec §4.4 and the tyre-set model it operates on, generalized from the
// teacher's strategy.TireDegradationModel (strategy/pit_calculator.go).
package pitbox

// Compound is a tyre compound identifier, matching the teacher's
// string-typed "soft"/"medium"/"hard" convention.
type Compound string

const (
	CompoundSoft   Compound = "soft"
	CompoundMedium Compound = "medium"
	CompoundHard   Compound = "hard"
)

// baseSpeedFactor and perLapWearRate are the per-compound constants from
// spec §3: each compound defines a base speed factor and per-lap wear
// rate.
var baseSpeedFactor = map[Compound]float64{
	CompoundSoft:   1.06,
	CompoundMedium: 1.00,
	CompoundHard:   0.95,
}

var perLapWearRate = map[Compound]float64{
	CompoundSoft:   6.5,
	CompoundMedium: 4.0,
	CompoundHard:   2.5,
}

// TyreSet is the mutable per-car tyre state. Wear is strictly
// non-decreasing between pit stops; compound swap only happens via a pit
// stop (NewTyreSet).
type TyreSet struct {
	Compound Compound
	Wear     float64 // 0..100
}

// NewTyreSet returns a fresh tyre set of the given compound, fitted during
// a pit stop.
func NewTyreSet(compound Compound) TyreSet {
	return TyreSet{Compound: compound, Wear: 0}
}

// SpeedFactor returns the compound's base speed multiplier.
func (t TyreSet) SpeedFactor() float64 {
	return baseSpeedFactor[t.Compound]
}

// WearPerLap returns the compound's per-lap wear rate.
func (t TyreSet) WearPerLap() float64 {
	return perLapWearRate[t.Compound]
}

// AddWear advances wear by the given fraction of a full lap's wear (e.g.
// 0.1 for one of ten sub-steps), clamped to 100 and never decreasing.
func (t *TyreSet) AddWear(lapFraction float64) {
	delta := t.WearPerLap() * lapFraction
	if delta < 0 {
		delta = 0
	}
	t.Wear += delta
	if t.Wear > 100 {
		t.Wear = 100
	}
}
