package veritas

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// TotalKey addresses one cell of the aggregation: an account in a
// period (a year, or a year+quarter).
type TotalKey struct {
	Account string
	Period  Period
}

// Totals holds the aggregated posting amounts keyed by account and
// period, with rollups through the hierarchy: a level-4 account's total
// contributes to its level-3 parent, and so on up to level 1.
type Totals struct {
	hierarchy *Hierarchy
	amounts   map[TotalKey]decimal.Decimal // rolled-up totals
	direct    map[TotalKey]decimal.Decimal // direct postings only, no rollup
	counts    map[TotalKey]int             // direct posting counts
}

// Aggregate groups postings by account and period (year and
// year+quarter), sums amounts, and rolls the sums upward through the
// hierarchy. Postings referencing accounts outside the hierarchy are
// ignored here; the transformer already reported them.
func Aggregate(postings []Posting, h *Hierarchy) *Totals {
	t := &Totals{
		hierarchy: h,
		amounts:   make(map[TotalKey]decimal.Decimal),
		direct:    make(map[TotalKey]decimal.Decimal),
		counts:    make(map[TotalKey]int),
	}
	for _, p := range postings {
		if h.Account(p.Account) == nil {
			continue
		}
		periods := []Period{p.Period.YearPeriod()}
		if p.Period.IsQuarterly() {
			periods = append(periods, p.Period)
		}
		for _, period := range periods {
			key := TotalKey{Account: p.Account, Period: period}
			t.counts[key]++
			t.direct[key] = t.direct[key].Add(p.Amount)
			// Add to the account and every ancestor.
			for code := p.Account; code != ""; {
				k := TotalKey{Account: code, Period: period}
				t.amounts[k] = t.amounts[k].Add(p.Amount)
				code = h.Account(code).Parent
			}
		}
	}
	return t
}

// Total returns the rolled-up total for an account in a period.
// Accounts or periods with no postings total zero.
func (t *Totals) Total(account string, period Period) decimal.Decimal {
	return t.amounts[TotalKey{Account: account, Period: period}]
}

// Count returns the number of postings recorded directly on an account
// in a period (children excluded).
func (t *Totals) Count(account string, period Period) int {
	return t.counts[TotalKey{Account: account, Period: period}]
}

// Periods returns every period that has at least one posting, sorted.
func (t *Totals) Periods() []Period {
	set := make(map[Period]bool)
	for key := range t.amounts {
		set[key.Period] = true
	}
	periods := slices.Collect(maps.Keys(set))
	slices.SortFunc(periods, comparePeriods)
	return periods
}

// Keys iterates over all non-zero cells sorted by period then account,
// so traversal order is deterministic.
func (t *Totals) Keys() iter.Seq[TotalKey] {
	return func(yield func(TotalKey) bool) {
		keys := slices.Collect(maps.Keys(t.amounts))
		slices.SortFunc(keys, func(a, b TotalKey) int {
			if c := comparePeriods(a.Period, b.Period); c != 0 {
				return c
			}
			return strings.Compare(a.Account, b.Account)
		})
		for _, key := range keys {
			if !yield(key) {
				return
			}
		}
	}
}

// CheckRollups verifies the hierarchical sum invariant: for every
// non-leaf account and every period, the account's total equals its
// direct postings plus the sum of its children's totals. A violation is
// a critical output finding: it indicates a transformer bug or
// hierarchy corruption, not bad user data.
func (t *Totals) CheckRollups() []Finding {
	var findings []Finding
	for _, period := range t.Periods() {
		for a := range t.hierarchy.All() {
			children := t.hierarchy.Children(a.Code)
			if len(children) == 0 {
				continue
			}
			want := t.Direct(a.Code, period)
			for _, child := range children {
				want = want.Add(t.Total(child.Code, period))
			}
			got := t.Total(a.Code, period)
			if got.Sub(want).Abs().GreaterThan(amountTolerance) {
				findings = append(findings, Finding{
					Kind: KindOutput, Severity: SeverityCritical, Code: CodeRollupMismatch,
					EntityID: a.Code,
					Message: fmt.Sprintf("account %q total %s in %s does not equal the sum of its children (%s)",
						a.Code, got, period, want),
				})
			}
		}
	}
	return findings
}

// Direct returns the contribution of postings recorded directly on the
// account, excluding rollups from children.
func (t *Totals) Direct(code string, period Period) decimal.Decimal {
	return t.direct[TotalKey{Account: code, Period: period}]
}
