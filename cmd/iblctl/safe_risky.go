package main

import (
	"flag"
	"fmt"
	"math/rand"

	"github.com/rogerlew/goibl/pkg/ibl"
)

// runSafeRisky reproduces the safe_risky scenario from the PyIBL
// reference examples (original_source/examples/safe_risky.py): a safe
// option with a fixed payoff of 0 against a risky option paying +5 with
// probability -risk-wins and -5 otherwise, run for -participants virtual
// participants over -rounds rounds each, reporting the fraction
// choosing risky per round.
func runSafeRisky(args []string) error {
	fs := flag.NewFlagSet("safe-risky", flag.ContinueOnError)
	rounds := fs.Int("rounds", 60, "rounds per participant")
	participants := fs.Int("participants", 1000, "virtual participants")
	riskWins := fs.Float64("risk-wins", 0.5, "probability the risky option pays +5 instead of -5")
	noise := fs.Float64("noise", 0.25, "agent noise parameter")
	decay := fs.Float64("decay", 0.5, "agent decay parameter")
	defaultUtility := fs.Float64("default-utility", 30, "agent default utility")
	seed := fs.Uint64("seed", 1, "RNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	agent, err := ibl.NewAgent("participant", nil,
		ibl.WithNoise(*noise),
		ibl.WithDecay(*decay),
		ibl.WithDefaultUtility(*defaultUtility),
		ibl.WithSeed(*seed),
	)
	if err != nil {
		return err
	}

	outcomeRNG := rand.New(rand.NewSource(int64(*seed)))
	riskyChosen := make([]int, *rounds)

	for p := 0; p < *participants; p++ {
		agent.Reset(false)
		for r := 0; r < *rounds; r++ {
			choice, err := agent.Choose("safe", "risky")
			if err != nil {
				return fmt.Errorf("round %d: %w", r, err)
			}
			if choice == "safe" {
				if err := agent.Respond(0); err != nil {
					return err
				}
				continue
			}
			riskyChosen[r]++
			outcome := -5.0
			if outcomeRNG.Float64() < *riskWins {
				outcome = 5.0
			}
			if err := agent.Respond(outcome); err != nil {
				return err
			}
		}
	}

	for r, n := range riskyChosen {
		fmt.Printf("%d\t%.4f\n", r+1, float64(n)/float64(*participants))
	}
	return nil
}
