// Package mastery computes a learner's per-topic mastery score.
//
// Policies are pure functions. Storage and transport never compute a score
// themselves; they hand the prior value and the answer outcome to a Policy and
// persist whatever it returns.
package mastery

import "math"

const (
	Min = 0.0
	Max = 1.0
)

// Meta carries answer metadata a policy may consult.
type Meta struct {
	TimeTaken  int // seconds
	Difficulty int
}

// Policy maps (prior, correctness, metadata) to the next mastery score.
type Policy func(prior float64, correct bool, meta Meta) float64

// Overwrite discards the prior: a correct answer sets mastery to Max,
// anything else to Min. Last write wins.
func Overwrite(_ float64, correct bool, _ Meta) float64 {
	if correct {
		return Max
	}
	return Min
}

// Next applies p and clamps the result into [Min, Max]. A nil policy falls
// back to Overwrite.
func Next(p Policy, prior float64, correct bool, meta Meta) float64 {
	if p == nil {
		p = Overwrite
	}
	return Clamp(p(Clamp(prior), correct, meta))
}

// Clamp bounds s to [Min, Max]; NaN becomes Min.
func Clamp(s float64) float64 {
	switch {
	case math.IsNaN(s):
		return Min
	case s < Min:
		return Min
	case s > Max:
		return Max
	default:
		return s
	}
}
