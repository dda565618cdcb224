package ibl

import "github.com/rogerlew/goibl/internal/simreg"

// SimilarityFunc computes a similarity in [0, 1] between two attribute
// values, with 1 meaning identical by the function's own definition
// (spec §3, §4.1).
type SimilarityFunc = simreg.Func

// SetSimilarity registers fn, weighted by weight, as the similarity
// function used for partial matching on attribute name. The registry is
// process-wide (spec §3, §5): mutate it only during setup, before any
// agent using name is active.
func SetSimilarity(name string, fn SimilarityFunc, weight float64) error {
	return simreg.Set(name, fn, weight)
}

// LinearSimilarityOnMax returns the spec §4.1 "linear on [0, max]"
// similarity: s(x,y) = 1 - |x-y|/max.
func LinearSimilarityOnMax(max float64) SimilarityFunc { return simreg.LinearOnMax(max) }

// QuadraticSimilarityOnMax returns the spec §4.1 "quadratic on [0, max]"
// similarity: s(x,y) = 1 - ((x-y)/max)^2.
func QuadraticSimilarityOnMax(max float64) SimilarityFunc { return simreg.QuadraticOnMax(max) }

// LinearSimilarityOnRange returns the spec §4.1 "linear on [lo, hi]"
// similarity: s(x,y) = 1 - |x-y|/(hi-lo).
func LinearSimilarityOnRange(lo, hi float64) SimilarityFunc { return simreg.LinearOnRange(lo, hi) }

// QuadraticSimilarityOnRange returns the spec §4.1 "quadratic on [lo, hi]"
// similarity: s(x,y) = 1 - ((x-y)/(hi-lo))^2.
func QuadraticSimilarityOnRange(lo, hi float64) SimilarityFunc {
	return simreg.QuadraticOnRange(lo, hi)
}
