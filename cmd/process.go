package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/veritas-ledger/veritas"
	"github.com/veritas-ledger/veritas/renderer"
)

type processCmd struct {
	outDir     string
	workers    int
	deepAudit  bool
	knownTypes commaList
	minDate    string
	maxDate    string
}

func (*processCmd) Name() string     { return "process" }
func (*processCmd) Synopsis() string { return "run the full pipeline and write the outputs" }
func (*processCmd) Usage() string {
	return `vrt process [-o <dir>] [-workers <n>] [-deep-audit] [-types a,b,c]

  Runs the full pipeline: validates the records, matches them against the
  mapping rules, transforms the matches into postings, aggregates totals
  per account and period, validates the output, and classifies all
  findings. Writes postings.jsonl, totals.jsonl, findings.jsonl and
  audit.jsonl into the output directory and prints the summary.

Usage Examples:
# Process the default files into ./out.
$ vrt process -o out

`
}

func (c *processCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outDir, "o", "out", "Output directory for the run artifacts")
	f.IntVar(&c.workers, "workers", 0, "Matching parallelism (0 = one per CPU)")
	f.BoolVar(&c.deepAudit, "deep-audit", false, "Record every rule evaluation in the audit trail")
	f.Var(&c.knownTypes, "types", "Comma-separated whitelist of record types")
	f.StringVar(&c.minDate, "min-date", "", "Reject records dated before this date (YYYY-MM-DD)")
	f.StringVar(&c.maxDate, "max-date", "", "Reject records dated after this date (YYYY-MM-DD)")
}

func (c *processCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	opts, err := c.options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	ctx = veritas.WithLogger(ctx, veritas.NewLogger(os.Stderr, *pretty))

	result, err := runPipeline(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := c.writeOutputs(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing outputs: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.SummaryMarkdown(result.Summary))
	if result.Summary.Status == "fail" {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *processCmd) options() (veritas.Options, error) {
	opts := veritas.Options{
		Workers:    c.workers,
		DeepAudit:  c.deepAudit,
		KnownTypes: c.knownTypes,
	}
	var err error
	if opts.MinDate, err = parseDate(c.minDate); err != nil {
		return opts, err
	}
	if opts.MaxDate, err = parseDate(c.maxDate); err != nil {
		return opts, err
	}
	return opts, nil
}

// runPipeline loads the three inputs and runs the pipeline. Rule
// load-time findings are merged into the result so nothing is lost.
func runPipeline(ctx context.Context, opts veritas.Options) (*veritas.Result, error) {
	records, err := DecodeRecords()
	if err != nil {
		return nil, err
	}
	rules, loadFindings, err := DecodeRules()
	if err != nil {
		return nil, err
	}
	hierarchy, err := DecodeHierarchy()
	if err != nil {
		return nil, err
	}
	result, err := veritas.Process(ctx, records, rules, hierarchy, opts)
	if err != nil {
		return nil, err
	}
	result.Findings = append(loadFindings, result.Findings...)
	result.Summary = veritas.Summarize(result.Findings, len(records))
	return result, nil
}

func (c *processCmd) writeOutputs(r *veritas.Result) error {
	if err := os.MkdirAll(c.outDir, 0755); err != nil {
		return err
	}
	outputs := []struct {
		name   string
		encode func(f *os.File) error
	}{
		{"postings.jsonl", func(f *os.File) error { return veritas.EncodePostings(f, r.Postings) }},
		{"totals.jsonl", func(f *os.File) error { return veritas.EncodeTotals(f, r.Totals) }},
		{"findings.jsonl", func(f *os.File) error { return veritas.EncodeFindings(f, r.Findings) }},
		{"audit.jsonl", func(f *os.File) error { return veritas.EncodeAudit(f, r.Audit) }},
	}
	for _, out := range outputs {
		f, err := os.Create(filepath.Join(c.outDir, out.name))
		if err != nil {
			return err
		}
		if err := out.encode(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// commaList is a flag.Value holding a comma-separated string list.
type commaList []string

func (l *commaList) String() string { return strings.Join(*l, ",") }
func (l *commaList) Set(s string) error {
	*l = nil
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}
