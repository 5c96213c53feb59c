package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/veritas-ledger/veritas"
	"github.com/veritas-ledger/veritas/renderer"
)

type findingsCmd struct {
	min     string
	workers int
}

func (*findingsCmd) Name() string     { return "findings" }
func (*findingsCmd) Synopsis() string { return "display the classified validation findings" }
func (*findingsCmd) Usage() string {
	return `vrt findings [-min <severity>]

  Processes the records and displays the classified findings grouped by
  severity, worst first, with suggested fixes where available.
`
}

func (c *findingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.min, "min", "info", "Lowest severity to display (info, warning, error, critical)")
	f.IntVar(&c.workers, "workers", 0, "Matching parallelism (0 = one per CPU)")
}

func (c *findingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	min, err := veritas.ParseSeverity(c.min)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	ctx = veritas.WithLogger(ctx, veritas.NewLogger(os.Stderr, *pretty))
	result, err := runPipeline(ctx, veritas.Options{Workers: c.workers})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.FindingsMarkdown(result.Findings, min))
	return subcommands.ExitSuccess
}
