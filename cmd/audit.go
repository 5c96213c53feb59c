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

type auditCmd struct {
	record string
	deep   bool
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "trace one record through the pipeline" }
func (*auditCmd) Usage() string {
	return `vrt audit -r <record-id> [-deep]

  Processes the records and reconstructs the full path of one record:
  the rules evaluated (with -deep), the rules applied and the postings
  produced.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.record, "r", "", "Record id to trace")
	f.BoolVar(&c.deep, "deep", false, "Show every rule evaluation, not just the applied ones")
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.record == "" {
		fmt.Fprintln(os.Stderr, "Error: -r <record-id> is required")
		return subcommands.ExitUsageError
	}
	ctx = veritas.WithLogger(ctx, veritas.NewLogger(os.Stderr, *pretty))
	result, err := runPipeline(ctx, veritas.Options{DeepAudit: c.deep})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	trace, err := result.Audit.Trace(c.record)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.TraceMarkdown(trace))
	return subcommands.ExitSuccess
}
