package main

import (
	"flag"
	"fmt"

	"github.com/rogerlew/goibl/internal/tracesink"
	"github.com/rogerlew/goibl/pkg/ibl"
)

// runTrace runs a safe/risky choice for one participant with trace
// recording enabled and dumps the resulting per-chunk records to the
// chosen sink. Here the safe option pays 0 and the risky option always
// pays +5.
func runTrace(args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	rounds := fs.Int("rounds", 20, "rounds to run")
	sinkKind := fs.String("sink", "memory", "trace sink: memory|csv")
	out := fs.String("out", "trace.csv", "output path for the csv sink")
	noise := fs.Float64("noise", 0.25, "agent noise parameter")
	decay := fs.Float64("decay", 0.5, "agent decay parameter")
	defaultUtility := fs.Float64("default-utility", 30, "agent default utility")
	seed := fs.Uint64("seed", 1, "RNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var sink tracesink.Sink
	switch *sinkKind {
	case "memory":
		sink = tracesink.NewMemorySink(0)
	case "csv":
		s, err := tracesink.NewCSVSink(*out)
		if err != nil {
			return err
		}
		defer s.Close()
		sink = s
	default:
		return fmt.Errorf("unknown sink: %s (want memory|csv)", *sinkKind)
	}

	agent, err := ibl.NewAgent("trace-participant", nil,
		ibl.WithNoise(*noise),
		ibl.WithDecay(*decay),
		ibl.WithDefaultUtility(*defaultUtility),
		ibl.WithSeed(*seed),
	)
	if err != nil {
		return err
	}
	agent.SetTraceSink(sink)
	agent.SetDetails(true)

	for r := 0; r < *rounds; r++ {
		choice, err := agent.Choose("safe", "risky")
		if err != nil {
			return fmt.Errorf("round %d: %w", r, err)
		}
		outcome := 0.0
		if choice == "risky" {
			outcome = 5
		}
		if err := agent.Respond(outcome); err != nil {
			return err
		}
	}

	if m, ok := sink.(*tracesink.MemorySink); ok {
		for _, rec := range m.Records() {
			fmt.Printf("tick=%d option=%s chunk=%d activation=%.4f p=%.4f bv=%.4f\n",
				rec.Tick, rec.Option, rec.ChunkID, rec.Activation, rec.Probability, rec.BlendedValue)
		}
	} else {
		fmt.Printf("wrote trace to %s\n", *out)
	}
	return nil
}
