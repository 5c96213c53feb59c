package renderer

import (
	"fmt"
	"strings"

	"github.com/veritas-ledger/veritas"
)

// QuarterlyMarkdown renders the aggregated totals for one year as a
// hierarchy-indented table: one column per quarter plus the yearly
// total, one row per account in tree order.
func QuarterlyMarkdown(t *veritas.Totals, h *veritas.Hierarchy, year int, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Quarterly Report %d\n\n", year)

	fmt.Fprintln(&b, "| Account | Q1 | Q2 | Q3 | Q4 | Year |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")

	for root := range h.Roots() {
		renderAccountRows(&b, t, h, root, year, currency)
	}
	return b.String()
}

// renderAccountRows writes the row for one account and recurses into its
// children, indenting by level.
func renderAccountRows(b *strings.Builder, t *veritas.Totals, h *veritas.Hierarchy, a veritas.Account, year int, currency string) {
	yearly := t.Total(a.Code, veritas.Period{Year: year})
	indent := strings.Repeat("&nbsp;&nbsp;", a.Level-1)

	cells := make([]string, 0, 4)
	for q := 1; q <= 4; q++ {
		amt := t.Total(a.Code, veritas.Period{Year: year, Quarter: q})
		cells = append(cells, veritas.M(amt, currency).SignedString())
	}
	name := a.Name
	if !h.IsLeaf(a.Code) {
		name = "**" + name + "**"
	}
	fmt.Fprintf(b, "| %s%s | %s | %s | %s | %s | %s |\n",
		indent, name, cells[0], cells[1], cells[2], cells[3],
		veritas.M(yearly, currency).SignedString())

	for _, child := range h.Children(a.Code) {
		renderAccountRows(b, t, h, child, year, currency)
	}
}
