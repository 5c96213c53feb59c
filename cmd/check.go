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

type checkCmd struct{}

func (*checkCmd) Name() string { return "check" }
func (*checkCmd) Synopsis() string {
	return "validate the rules and hierarchy without processing any record"
}
func (*checkCmd) Usage() string {
	return `vrt check

  Loads the mapping rules and the account hierarchy and reports every
  configuration problem: unparseable conditions, duplicate rule ids,
  missing targets, and rule targets pointing at accounts that do not
  exist. Nothing is processed or written.

`
}

func (*checkCmd) SetFlags(*flag.FlagSet) {}

func (*checkCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rules, findings, err := DecodeRules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	hierarchy, err := DecodeHierarchy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	findings = append(findings, rules.UnknownAccounts(hierarchy)...)

	if len(findings) == 0 {
		fmt.Printf("%d rules and %d accounts, no problems found.\n", rules.Len(), hierarchy.Len())
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.FindingsMarkdown(findings, veritas.SeverityInfo))
	return subcommands.ExitFailure
}
