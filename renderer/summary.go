package renderer

import (
	"fmt"
	"strings"

	"github.com/veritas-ledger/veritas"
)

// SummaryMarkdown renders the run summary: overall status, finding
// counts per severity and the confidence grade.
func SummaryMarkdown(s veritas.Summary) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Validation Summary\n\n")
	fmt.Fprintf(&b, "Status: **%s** (confidence %s)\n\n", s.Status, s.Confidence)

	fmt.Fprintln(&b, "| | Count |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Records | %d |\n", s.Records)
	fmt.Fprintf(&b, "| Critical | %d |\n", s.Critical)
	fmt.Fprintf(&b, "| Errors | %d |\n", s.Errors)
	fmt.Fprintf(&b, "| Warnings | %d |\n", s.Warnings)
	fmt.Fprintf(&b, "| Info | %d |\n", s.Infos)

	if len(s.Factors) > 0 {
		fmt.Fprint(&b, "\nConfidence factors:\n\n")
		for _, f := range s.Factors {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}
