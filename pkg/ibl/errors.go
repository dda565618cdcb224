package ibl

import "errors"

// Sentinel error kinds. Every error pkg/ibl returns wraps exactly one of
// these via %w, following the teacher's sentinel-error style in
// internal/nn/registry.go (ErrActivationExists, ErrActivationNotFound).
// Callers distinguish kinds with errors.Is.
var (
	// ErrSchema covers an option missing a declared attribute, an unknown
	// attribute in an option, or a non-comparable attribute value.
	ErrSchema = errors.New("ibl: schema error")

	// ErrParameter covers an invalid agent parameter: negative noise or
	// decay, a non-positive temperature, decay >= 1 under optimized
	// learning, or a negative mismatch penalty.
	ErrParameter = errors.New("ibl: parameter error")

	// ErrProtocol covers a call out of sequence: Respond with nothing
	// pending, Choose while a synchronous response is pending, or a
	// DelayedResponse resolved twice with conflicting outcomes.
	ErrProtocol = errors.New("ibl: protocol error")

	// ErrNoData covers an option with no matching chunk and no usable
	// default utility.
	ErrNoData = errors.New("ibl: no data")
)
