package ibl

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"
	"go.uber.org/zap"

	"github.com/rogerlew/goibl/internal/tracesink"
)

// emitTrace, only when details or trace is enabled, builds the per-call
// OptionDetail records and forwards per-chunk rows to the attached sink;
// it then logs a structured summary if details is enabled and prints a
// human-readable table if trace is enabled. With both disabled it only
// clears the previous records (spec §4.5 "details"/"trace", spec §9
// "introspection without overhead").
func (a *Agent) emitTrace(tick int64, options []any, evals []optionEval, bvs []float64) {
	if !a.detailsEnabled && !a.traceEnabled {
		a.lastDetails = nil
		return
	}

	now := time.Now()
	details := make([]OptionDetail, len(options))
	for i, ev := range evals {
		details[i] = OptionDetail{
			Option:       options[i],
			Contributing: ev.details,
			BlendedValue: bvs[i],
		}
		for _, cd := range ev.details {
			rec := tracesink.Record{
				Tick:           tick,
				AgentID:        a.id.String(),
				Option:         fmt.Sprint(options[i]),
				ChunkID:        cd.ChunkID,
				Created:        cd.Created,
				ReferenceCount: int64(len(cd.References)),
				BaseActivation: cd.BaseActivation,
				Noise:          cd.Noise,
				Activation:     cd.Activation,
				Probability:    cd.Probability,
				BlendedValue:   bvs[i],
				At:             now,
			}
			if err := a.sink.Write(rec); err != nil {
				a.logger.Warn("trace sink write failed", zap.Error(err))
			}
		}
	}
	a.lastDetails = details

	if a.detailsEnabled {
		a.logger.Debug("choose",
			zap.Int64("tick", tick),
			zap.String("agent_id", a.id.String()),
			zap.Int("options", len(options)),
			zap.Time("at", now),
		)
	}
	if a.traceEnabled {
		printTrace(os.Stdout, a.id, tick, now, details)
	}
}

// printTrace renders one tabular trace for a choose call. Box-drawing is
// skipped when the writer is not a terminal (e.g. piped into a log
// collector), matching the teacher pack's convention of checking
// isatty before emitting decorative output.
func printTrace(w *os.File, agentID uuid.UUID, tick int64, at time.Time, details []OptionDetail) {
	stamp := strftime.Format("%Y-%m-%d %H:%M:%S", at)

	boxed := isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
	rule := "----------------------------------------"
	if boxed {
		fmt.Fprintf(w, "+%s+\n", rule)
	}
	fmt.Fprintf(w, "tick %s  agent %s  at %s\n", humanize.Comma(tick), agentID.String()[:8], stamp)
	for _, d := range details {
		fmt.Fprintf(w, "  option=%v blended_value=%.4f chunks=%d\n", d.Option, d.BlendedValue, len(d.Contributing))
		for _, c := range d.Contributing {
			fmt.Fprintf(w, "    chunk#%d created=%d refs=%d base=%.4f noise=%.4f activation=%.4f p=%.4f\n",
				c.ChunkID, c.Created, len(c.References), c.BaseActivation, c.Noise, c.Activation, c.Probability)
		}
	}
	if boxed {
		fmt.Fprintf(w, "+%s+\n", rule)
	}
}
