// Package cmd implements the CLI application to run the posting pipeline.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/veritas-ledger/veritas"
)

// Commands lists every subcommand the application registers.
var Commands = []subcommands.Command{
	&processCmd{},
	&checkCmd{},
	&quarterlyCmd{},
	&findingsCmd{},
	&auditCmd{},
	&importCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var recordsFile = flag.String("records-file", "records.jsonl", "Path to the records file (JSONL format)")
var rulesFile = flag.String("rules-file", "rules.jsonl", "Path to the mapping rules file (JSONL format)")
var accountsFile = flag.String("accounts-file", "accounts.jsonl", "Path to the account hierarchy file (JSONL format)")
var currency = flag.String("currency", "EUR", "Display currency for reports")
var pretty = flag.Bool("pretty", true, "Log in human-readable form instead of JSON")

// DecodeRecords loads the records file.
func DecodeRecords() ([]veritas.Record, error) {
	return decodeFile(*recordsFile, veritas.DecodeRecords)
}

// DecodeRules loads and compiles the rules file. Load-time findings are
// returned alongside the set; they are reported, never fatal.
func DecodeRules() (*veritas.RuleSet, []veritas.Finding, error) {
	rules, err := decodeFile(*rulesFile, veritas.DecodeRules)
	if err != nil {
		return nil, nil, err
	}
	rs, findings := veritas.NewRuleSet(rules)
	return rs, findings, nil
}

// DecodeHierarchy loads and validates the account hierarchy file. A
// structurally corrupt hierarchy is the one fatal input.
func DecodeHierarchy() (*veritas.Hierarchy, error) {
	return decodeFile(*accountsFile, veritas.DecodeHierarchy)
}

func decodeFile[T any](name string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(name)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	v, err := decode(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// printMarkdown renders markdown to the terminal, falling back to the
// raw text when rendering fails or stdout is not a terminal.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Println(strings.TrimRight(out, "\n"))
}
