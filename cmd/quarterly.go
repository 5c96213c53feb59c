package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/veritas-ledger/veritas"
	"github.com/veritas-ledger/veritas/renderer"
)

type quarterlyCmd struct {
	year    int
	workers int
}

func (*quarterlyCmd) Name() string     { return "quarterly" }
func (*quarterlyCmd) Synopsis() string { return "display the quarterly totals per account" }
func (*quarterlyCmd) Usage() string {
	return `vrt quarterly [-y <year>]

  Processes the records and displays the aggregated totals for one year
  as a hierarchy-indented table, one column per quarter plus the yearly
  total.
`
}

func (c *quarterlyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "y", time.Now().Year(), "Year to report on")
	f.IntVar(&c.workers, "workers", 0, "Matching parallelism (0 = one per CPU)")
}

func (c *quarterlyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx = veritas.WithLogger(ctx, veritas.NewLogger(os.Stderr, *pretty))
	result, err := runPipeline(ctx, veritas.Options{Workers: c.workers})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	hierarchy, err := DecodeHierarchy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.QuarterlyMarkdown(result.Totals, hierarchy, c.year, *currency))
	return subcommands.ExitSuccess
}
