package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/veritas-ledger/veritas"
)

// FindingsMarkdown renders the classified findings at or above the
// minimum severity, grouped by severity, worst first. The fix column
// shows suggested corrections with their confidence and review status.
func FindingsMarkdown(findings []veritas.Finding, min veritas.Severity) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Validation Findings\n\n")

	kept := 0
	for sev := veritas.SeverityCritical; sev >= min; sev-- {
		ConditionalBlock(&b, func(w io.Writer) bool {
			return renderSeverity(w, findings, sev, &kept)
		})
	}
	if kept == 0 {
		fmt.Fprintf(&b, "No findings at severity %s or above.\n", min)
	}
	return b.String()
}

func renderSeverity(w io.Writer, findings []veritas.Finding, sev veritas.Severity, kept *int) bool {
	any := false
	for _, f := range findings {
		if f.Severity != sev {
			continue
		}
		if !any {
			fmt.Fprintf(w, "## %s\n\n", strings.ToUpper(sev.String()[:1])+sev.String()[1:])
			fmt.Fprintln(w, "| Stage | Entity | Rule | Message | Suggested Fix |")
			fmt.Fprintln(w, "|:---|:---|:---|:---|:---|")
			any = true
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			f.Kind, f.EntityID, orDash(f.RuleID), f.Message, fixCell(f))
		*kept++
	}
	if any {
		fmt.Fprintln(w)
	}
	return any
}

func fixCell(f veritas.Finding) string {
	if f.Fix == nil {
		return "-"
	}
	return fmt.Sprintf("%s: %q -> %q (%s confidence, %s)",
		f.Fix.Field, f.Fix.Before, f.Fix.After, f.Fix.Confidence, f.Status)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
