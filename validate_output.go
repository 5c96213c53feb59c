package veritas

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// spotCheckStride controls output spot checks: every Nth posting is
// traced back to its source record. Deterministic sampling keeps the
// findings of repeated runs byte-identical.
const spotCheckStride = 7

// OutputValidator checks the final pipeline products after aggregation:
// the hierarchical sum invariant, completeness (no record silently
// lost), quarterly consistency and amount spot checks.
type OutputValidator struct {
	hierarchy *Hierarchy
}

// NewOutputValidator returns a validator bound to the run's hierarchy.
func NewOutputValidator(h *Hierarchy) *OutputValidator {
	return &OutputValidator{hierarchy: h}
}

// Validate inspects records, match results, postings and totals. Like
// the other stages it only accumulates findings.
func (v *OutputValidator) Validate(records []Record, results []MatchResult, postings []Posting, totals *Totals) []Finding {
	var findings []Finding

	findings = append(findings, totals.CheckRollups()...)
	findings = append(findings, v.checkCompleteness(records, results, postings)...)
	findings = append(findings, v.checkQuarters(totals)...)
	findings = append(findings, v.spotCheck(records, postings)...)

	return findings
}

// checkCompleteness verifies that every input record is accounted for:
// it is referenced by at least one posting, or it carries an explicit
// no-match finding. Silent loss is a critical output error.
func (v *OutputValidator) checkCompleteness(records []Record, results []MatchResult, postings []Posting) []Finding {
	posted := make(map[string]bool, len(records))
	for _, p := range postings {
		posted[p.RecordID] = true
	}
	unmatched := make(map[string]bool)
	for _, res := range results {
		if hasCode(res.Findings, CodeNoMatch) {
			unmatched[res.Record.ID] = true
		}
	}

	var findings []Finding
	covered := 0
	for _, r := range records {
		if posted[r.ID] || unmatched[r.ID] {
			covered++
			continue
		}
		findings = append(findings, Finding{
			Kind: KindOutput, Severity: SeverityCritical, Code: CodeCountMismatch,
			EntityID: r.ID,
			Message:  fmt.Sprintf("record %q is in neither the postings nor the no-match findings", r.ID),
		})
	}
	if covered != len(records) {
		findings = append(findings, Finding{
			Kind: KindOutput, Severity: SeverityCritical, Code: CodeCountMismatch,
			EntityID: "batch",
			Message: fmt.Sprintf("%d records in, %d accounted for in postings and no-match findings",
				len(records), covered),
		})
	}
	return findings
}

// checkQuarters verifies quarterly totals are not double counted: for
// every account and year, the quarter totals must sum to at most the
// year total (they equal it when every posting carries a quarter).
func (v *OutputValidator) checkQuarters(totals *Totals) []Finding {
	var findings []Finding
	years := make(map[Period]bool)
	for _, p := range totals.Periods() {
		if !p.IsQuarterly() {
			years[p] = true
		}
	}
	for year := range years {
		for a := range v.hierarchy.All() {
			quarterSum := decimal.Zero
			quarterCount := 0
			for q := 1; q <= 4; q++ {
				period := Period{Year: year.Year, Quarter: q}
				quarterSum = quarterSum.Add(totals.Direct(a.Code, period))
				quarterCount += totals.Count(a.Code, period)
			}
			yearCount := totals.Count(a.Code, year)
			if quarterCount > yearCount {
				findings = append(findings, Finding{
					Kind: KindOutput, Severity: SeverityCritical, Code: CodeQuarterMismatch,
					EntityID: a.Code,
					Message: fmt.Sprintf("account %q year %d counts %d quarterly postings but only %d yearly ones (double counting)",
						a.Code, year.Year, quarterCount, yearCount),
				})
				continue
			}
			if quarterCount == yearCount && quarterSum.Sub(totals.Direct(a.Code, year)).Abs().GreaterThan(amountTolerance) {
				findings = append(findings, Finding{
					Kind: KindOutput, Severity: SeverityCritical, Code: CodeQuarterMismatch,
					EntityID: a.Code,
					Message: fmt.Sprintf("account %q year %d quarterly totals sum to %s, yearly total is %s",
						a.Code, year.Year, quarterSum, totals.Direct(a.Code, year)),
				})
			}
		}
	}
	return findings
}

// spotCheck samples postings deterministically and verifies the sampled
// posting's record exists and that the record's postings sum back to the
// record amount.
func (v *OutputValidator) spotCheck(records []Record, postings []Posting) []Finding {
	byID := make(map[string]Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	sums := make(map[string]decimal.Decimal, len(records))
	for _, p := range postings {
		sums[p.RecordID] = sums[p.RecordID].Add(p.Amount)
	}

	var findings []Finding
	checked := make(map[string]bool)
	for i := 0; i < len(postings); i += spotCheckStride {
		p := postings[i]
		if checked[p.RecordID] {
			continue
		}
		checked[p.RecordID] = true
		r, ok := byID[p.RecordID]
		if !ok {
			findings = append(findings, Finding{
				Kind: KindOutput, Severity: SeverityCritical, Code: CodeSpotCheckFailed,
				EntityID: p.ID,
				Message:  fmt.Sprintf("posting %q references unknown record %q", p.ID, p.RecordID),
			})
			continue
		}
		if sums[p.RecordID].Sub(r.Amount).Abs().GreaterThan(amountTolerance) {
			findings = append(findings, Finding{
				Kind: KindOutput, Severity: SeverityCritical, Code: CodeSpotCheckFailed,
				EntityID: r.ID,
				Message: fmt.Sprintf("postings of record %q sum to %s, record amount is %s",
					r.ID, sums[p.RecordID], r.Amount),
			})
		}
	}
	return findings
}
