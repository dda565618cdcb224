// Package blend implements the blending engine (spec component C4):
// turning per-chunk activations into a single blended value via a
// log-sum-exp stabilized softmax.
package blend

import (
	"errors"
	"math"
)

// ErrNoCandidates is returned when there is nothing to blend.
var ErrNoCandidates = errors.New("blend: no candidates")

// ErrTemperature is returned for a non-positive temperature.
var ErrTemperature = errors.New("blend: temperature must be positive")

// Candidate is one chunk's contribution to a blended value.
type Candidate struct {
	Utility    float64
	Activation float64
}

// Result carries the blended value and the retrieval probability of each
// input candidate, in the same order, for tracing (spec §4.5).
type Result struct {
	Value          float64
	Probabilities  []float64
}

// Compute returns BV = sum_i p_i * u_i where p_i = softmax(A_i / temperature),
// using the log-sum-exp trick for numerical stability (spec §4.4).
func Compute(candidates []Candidate, temperature float64) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}
	if temperature <= 0 {
		return Result{}, ErrTemperature
	}

	maxA := candidates[0].Activation
	for _, c := range candidates[1:] {
		if c.Activation > maxA {
			maxA = c.Activation
		}
	}

	weights := make([]float64, len(candidates))
	var sumW float64
	for i, c := range candidates {
		w := math.Exp((c.Activation - maxA) / temperature)
		weights[i] = w
		sumW += w
	}

	probs := make([]float64, len(candidates))
	var bv float64
	for i, c := range candidates {
		p := weights[i] / sumW
		probs[i] = p
		bv += p * c.Utility
	}

	return Result{Value: bv, Probabilities: probs}, nil
}
