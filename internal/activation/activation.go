// Package activation implements the activation engine (spec component
// C3): base-level activation, logistic retrieval noise, and the
// partial-matching correction, combined into a single scalar per chunk.
package activation

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/rogerlew/goibl/internal/instance"
	"github.com/rogerlew/goibl/internal/simreg"
)

// Params carries the subset of agent parameters the activation formulas
// need (spec §3, §4.3).
type Params struct {
	Noise             float64
	Decay             float64
	MismatchPenalty   *float64
	OptimizedLearning bool
}

// Result is the per-chunk diagnostic breakdown used for tracing (spec
// §4.5 "details").
type Result struct {
	Base    float64
	Noise   float64
	Partial float64
	Value   float64
}

const tinyEps = 1e-12

// Compute scores chunk against probe at tick now. ok is false when the
// chunk fails the exact-match prefilter, when (normal mode) no reference
// time is strictly in the past, or when (optimized-learning mode) the
// chunk's creation time is not strictly in the past.
func Compute(chunk *instance.Chunk, probe instance.Tuple, now int64, params Params, rng *rand.Rand) (Result, bool) {
	partial, matched := partialMatch(chunk.Attrs, probe, params.MismatchPenalty)
	if !matched {
		return Result{}, false
	}

	base, ok := baseLevel(chunk, now, params)
	if !ok {
		return Result{}, false
	}

	noise := sampleNoise(params.Noise, rng)

	return Result{
		Base:    base,
		Noise:   noise,
		Partial: partial,
		Value:   base + noise + partial,
	}, true
}

// partialMatch applies the exact-match prefilter (spec §4.3) and, when a
// mismatch penalty is configured, the partial-matching sum P_i (spec
// §4.3). Attributes are compared positionally: chunk.Attrs and probe are
// always built from the same declared schema, so they share length/order.
func partialMatch(chunkAttrs, probe instance.Tuple, mismatchPenalty *float64) (float64, bool) {
	var sum float64
	for i, a := range chunkAttrs {
		if i >= len(probe) {
			break
		}
		p := probe[i]
		fn, weight, hasSim := simreg.Lookup(a.Name)
		if !hasSim {
			if !valuesEqual(a.Value, p.Value) {
				return 0, false
			}
			continue
		}
		if mismatchPenalty == nil {
			// No penalty configured: partial-matchable attributes still
			// require exact equality (spec §4.3).
			if !valuesEqual(a.Value, p.Value) {
				return 0, false
			}
			continue
		}
		s := fn(a.Value, p.Value)
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
		sum += weight * (s - 1)
	}
	if mismatchPenalty == nil {
		return 0, true
	}
	return *mismatchPenalty * sum, true
}

func valuesEqual(a, b any) bool {
	return a == b
}

// baseLevel computes B_i per spec §4.3, in either normal or
// optimized-learning mode.
func baseLevel(chunk *instance.Chunk, now int64, params Params) (float64, bool) {
	if params.OptimizedLearning && chunk.Optimized {
		n := float64(chunk.Count)
		if n <= 0 {
			return 0, false
		}
		d := params.Decay
		L := float64(now - chunk.Created)
		if L <= 0 {
			return 0, false
		}
		return math.Log(n/(1-d)) - d*math.Log(L), true
	}

	var sum float64
	var hasValidRef bool
	for _, t := range chunk.References {
		elapsed := float64(now - t)
		if elapsed <= 0 {
			continue
		}
		sum += math.Pow(elapsed, -params.Decay)
		hasValidRef = true
	}
	if !hasValidRef {
		return 0, false
	}
	return math.Log(sum), true
}

// sampleNoise draws epsilon from a zero-centered logistic distribution
// with scale noise (spec §4.3). A fresh draw is made per call; noise==0
// short-circuits since the result is 0 regardless of the draw.
func sampleNoise(noise float64, rng *rand.Rand) float64 {
	if noise == 0 {
		return 0
	}
	u := rng.Float64()
	if u < tinyEps {
		u = tinyEps
	} else if u > 1-tinyEps {
		u = 1 - tinyEps
	}
	return noise * math.Log(u/(1-u))
}
