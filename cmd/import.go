package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/veritas-ledger/veritas"
)

type importCmd struct {
	mappingFile string
	outFile     string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import records from a foreign JSON export" }
func (*importCmd) Usage() string {
	return `vrt import -m <mapping.json> [-o <records.jsonl>] <export.json>

  Extracts records from a foreign JSON export using a jsonpath mapping
  file and writes them in the native JSONL record format. Rows that fail
  extraction are reported and skipped; the import never aborts on one
  bad row.

  The mapping file describes where each record field lives, e.g.:

    {"rows": "$.entries", "id": "$.ref", "date": "$.bookedAt",
     "description": "$.label", "type": "$.kind", "amount": "$.value"}

`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mappingFile, "m", "", "Path to the jsonpath mapping file")
	f.StringVar(&c.outFile, "o", "", "Output records file (defaults to stdout)")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.mappingFile == "" || f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: need -m <mapping.json> and exactly one export file")
		return subcommands.ExitUsageError
	}
	mapping, err := readMapping(c.mappingFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	in, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	records, findings, err := veritas.ImportRecords(in, mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, finding := range findings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", finding)
	}

	out := os.Stdout
	if c.outFile != "" {
		out, err = os.Create(c.outFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		defer out.Close()
	}
	enc := json.NewEncoder(out)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	fmt.Fprintf(os.Stderr, "Imported %d records (%d rows skipped).\n", len(records), len(findings))
	return subcommands.ExitSuccess
}

func readMapping(name string) (veritas.ImportMapping, error) {
	var m veritas.ImportMapping
	data, err := os.ReadFile(name)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}
