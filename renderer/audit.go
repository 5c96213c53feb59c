package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/veritas-ledger/veritas"
)

// TraceMarkdown renders the reconstructed path of one record through the
// pipeline: the source record, the rules evaluated (when the trail was
// deep), the rules applied, the resulting postings and any notes.
func TraceMarkdown(tr veritas.Trace) string {
	var b strings.Builder
	e := tr.Entry

	fmt.Fprintf(&b, "# Audit Trace for %s\n\n", e.RecordID)
	fmt.Fprintf(&b, "Record: %q, type %q, amount %s, dated %s.\n\n",
		e.Record.Description, e.Record.Type, e.Record.Amount, e.Record.Date.Format("2006-01-02"))

	ConditionalBlock(&b, func(w io.Writer) bool { return renderEvaluated(w, e) })

	if e.NoMatch {
		fmt.Fprint(&b, "No rule matched this record; it produced no postings.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Applied rules: %s.\n\n", strings.Join(e.Matched, ", "))

	if len(e.PostingIDs) > 0 {
		fmt.Fprint(&b, "## Postings\n\n")
		for _, id := range e.PostingIDs {
			fmt.Fprintf(&b, "- %s\n", id)
		}
		fmt.Fprintln(&b)
	}

	ConditionalBlock(&b, func(w io.Writer) bool { return renderNotes(w, tr.Notes) })
	return b.String()
}

func renderEvaluated(w io.Writer, e veritas.AuditEntry) bool {
	if len(e.Evaluated) == 0 {
		return false
	}
	fmt.Fprint(w, "## Rules Evaluated\n\n")
	fmt.Fprintln(w, "| Rule | Matched | Error |")
	fmt.Fprintln(w, "|:---|:---|:---|")
	for _, o := range e.Evaluated {
		fmt.Fprintf(w, "| %s | %v | %s |\n", o.RuleID, o.Matched, orDash(o.Err))
	}
	fmt.Fprintln(w)
	return true
}

func renderNotes(w io.Writer, notes []veritas.AuditNote) bool {
	if len(notes) == 0 {
		return false
	}
	fmt.Fprint(w, "## Notes\n\n")
	for _, n := range notes {
		fmt.Fprintf(w, "- %s %s: %s\n", n.Timestamp.Format("2006-01-02 15:04"), n.Action, n.Detail)
	}
	return true
}
