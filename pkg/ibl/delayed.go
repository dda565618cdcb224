package ibl

import (
	"fmt"

	"github.com/rogerlew/goibl/internal/instance"
)

// DelayedResponse is a not-yet-resolved feedback commitment returned by
// Choose2 (spec component C6). The agent remains authoritative for every
// mutation; the handle only carries enough identity to ask the agent to
// resolve it later (spec §9 "Delayed response as a handle").
type DelayedResponse struct {
	agent *Agent

	attrs        instance.Tuple
	expectation  float64
	responseTime int64

	resolved bool
	outcome  float64
}

// IsResolved reports whether Update has been called successfully.
func (d *DelayedResponse) IsResolved() bool { return d.resolved }

// Expectation returns the blended value used as the placeholder chunk's
// provisional utility, fixed at creation.
func (d *DelayedResponse) Expectation() float64 { return d.expectation }

// Outcome returns the real outcome once resolved. Calling it before
// resolution returns (0, false).
func (d *DelayedResponse) Outcome() (float64, bool) {
	if !d.resolved {
		return 0, false
	}
	return d.outcome, true
}

// Update resolves the delayed response with outcome, replacing the
// placeholder chunk at the original response time with a chunk carrying
// outcome at that same reference time (spec §4.6). Calling Update again
// with the identical outcome is a no-op; calling it again with a
// different outcome is a protocol error.
func (d *DelayedResponse) Update(outcome float64) error {
	d.agent.mu.Lock()
	defer d.agent.mu.Unlock()

	if d.resolved {
		if outcome == d.outcome {
			return nil
		}
		return fmt.Errorf("%w: delayed response already resolved with a different outcome", ErrProtocol)
	}

	d.agent.store.RemoveReference(d.attrs, d.expectation, d.responseTime)
	d.agent.store.Insert(d.attrs, outcome, d.responseTime, d.agent.optimizedLearning, false)

	d.resolved = true
	d.outcome = outcome
	return nil
}
