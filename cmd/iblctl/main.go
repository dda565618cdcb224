// Command iblctl is a minimal, non-core collaborator exercising the
// public ibl package: it runs scripted choice scenarios against an
// Agent and reports the outcome. Grounded on the flag-based subcommand
// dispatch in cmd/protogonosctl/main.go.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "safe-risky":
		return runSafeRisky(args[1:])
	case "trace":
		return runTrace(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: iblctl <safe-risky|trace> [flags]", msg)
}
