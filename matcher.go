package veritas

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/veritas-ledger/veritas/expr"
)

// amountTolerance is the fixed rounding tolerance for amount
// conservation checks: 0.01 currency units.
var amountTolerance = decimal.New(1, -2)

// splitPlaces is the scale draft amounts are rounded to when splitting.
const splitPlaces = 2

// Draft is the intermediate artifact between matching and
// transformation: one share of a record's amount routed to one account
// by one rule.
type Draft struct {
	RecordID string          `json:"record_id"`
	Account  string          `json:"account"`
	RuleID   string          `json:"rule_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// RuleOutcome records the result of evaluating one rule against one
// record, kept for deep audit.
type RuleOutcome struct {
	RuleID  string `json:"rule_id"`
	Matched bool   `json:"matched"`
	Err     string `json:"err,omitempty"`
}

// MatchResult is everything matching one record produced: drafts, the
// rules applied, per-rule outcomes and findings.
type MatchResult struct {
	Record   Record
	Drafts   []Draft
	Applied  []string // ids of the rules that produced drafts, in application order
	Outcomes []RuleOutcome
	Findings []Finding
}

// Match finds all rules matching the record, resolves priority and
// one-to-many semantics, and emits zero or more drafts.
//
// Matches are sorted by priority descending; ties are broken by the
// rule's declaration order. If the top-priority tier contains no
// one-to-many rule, only the single best match applies and the discarded
// matches are reported as an informational finding. If the top tier
// contains one-to-many rules, every match in that tier applies and the
// record amount is split across all their targets by declared weight
// (equal split when unspecified). A record matching no rule produces no
// draft and a no-match finding of severity error; the batch never stops
// on it.
//
// Rule evaluation errors are downgraded to findings and count as a
// non-match for that rule: a single malformed rule never aborts the
// batch.
func (rs *RuleSet) Match(r Record) MatchResult {
	res := MatchResult{Record: r}
	env := r.Env()

	matched := make([]compiledRule, 0, 4)
	res.Outcomes = make([]RuleOutcome, 0, len(rs.rules))
	for _, cr := range rs.rules {
		if cr.program == nil {
			// Compile failure was already reported at load time.
			res.Outcomes = append(res.Outcomes, RuleOutcome{RuleID: cr.ID, Err: "condition did not compile"})
			continue
		}
		ok, err := expr.Eval(cr.program, env)
		if err != nil {
			res.Outcomes = append(res.Outcomes, RuleOutcome{RuleID: cr.ID, Err: err.Error()})
			res.Findings = append(res.Findings, evalFinding(cr.Rule, r, err))
			continue
		}
		res.Outcomes = append(res.Outcomes, RuleOutcome{RuleID: cr.ID, Matched: ok})
		if ok {
			matched = append(matched, cr)
		}
	}

	if len(matched) == 0 {
		res.Findings = append(res.Findings, Finding{
			Kind: KindTransformation, Severity: SeverityError, Code: CodeNoMatch,
			EntityID: r.ID,
			Message:  fmt.Sprintf("no mapping rule matched record %q (type %q, amount %s)", r.ID, r.Type, r.Amount),
		})
		return res
	}

	// Priority descending; the stable sort keeps declaration order within
	// a tier, which is the tie-break rule.
	slices.SortStableFunc(matched, func(a, b compiledRule) int {
		return b.Priority - a.Priority
	})

	top := matched[0].Priority
	tier := matched
	for i, cr := range matched {
		if cr.Priority != top {
			tier = matched[:i]
			break
		}
	}

	oneToMany := false
	for _, cr := range tier {
		if cr.OneToMany {
			oneToMany = true
			break
		}
	}

	var applied []compiledRule
	if oneToMany {
		applied = tier
	} else {
		applied = tier[:1]
		if len(matched) > 1 {
			discarded := make([]string, 0, len(matched)-1)
			for _, cr := range matched[1:] {
				discarded = append(discarded, cr.ID)
			}
			res.Findings = append(res.Findings, Finding{
				Kind: KindTransformation, Severity: SeverityInfo, Code: CodeMultipleMatches,
				EntityID: r.ID, RuleID: applied[0].ID,
				Message: fmt.Sprintf("record %q matched %d rules; applied %q, discarded %s",
					r.ID, len(matched), applied[0].ID, strings.Join(discarded, ", ")),
			})
		}
	}

	type share struct {
		ruleID string
		target Target
	}
	shares := make([]share, 0, len(applied))
	for _, cr := range applied {
		res.Applied = append(res.Applied, cr.ID)
		for _, t := range cr.Targets {
			shares = append(shares, share{ruleID: cr.ID, target: t})
		}
	}

	amounts := splitAmount(r.Amount, sharesWeights(len(shares), func(i int) decimal.Decimal { return shares[i].target.Weight }))
	for i, s := range shares {
		res.Drafts = append(res.Drafts, Draft{
			RecordID: r.ID,
			Account:  s.target.Account,
			RuleID:   s.ruleID,
			Amount:   amounts[i],
		})
	}

	// Conservation check: all draft amounts must sum back to the source
	// amount within the tolerance.
	if f, ok := checkConservation(r, res.Drafts); !ok {
		res.Findings = append(res.Findings, f)
	}
	return res
}

func evalFinding(rule Rule, r Record, err error) Finding {
	return Finding{
		Kind: KindRule, Severity: SeverityError, Code: CodeRuleEval,
		EntityID: rule.ID, RuleID: rule.ID,
		Message: fmt.Sprintf("rule %q failed to evaluate against record %q: %v (condition: %s)",
			rule.ID, r.ID, err, rule.Condition),
	}
}

// sharesWeights materializes n weights, substituting 1 for unspecified
// (zero or negative) weights so the default split is equal.
func sharesWeights(n int, weight func(int) decimal.Decimal) []decimal.Decimal {
	ws := make([]decimal.Decimal, n)
	for i := range ws {
		w := weight(i)
		if w.Sign() <= 0 {
			w = decimal.New(1, 0)
		}
		ws[i] = w
	}
	return ws
}

// splitAmount divides total across the weights, rounding each share to
// two places and assigning the rounding remainder to the last share so
// the split is exactly conserving.
func splitAmount(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	if len(weights) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	out := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights[:len(weights)-1] {
		out[i] = total.Mul(w).Div(sum).Round(splitPlaces)
		allocated = allocated.Add(out[i])
	}
	out[len(weights)-1] = total.Sub(allocated)
	return out
}

// checkConservation verifies draft amounts sum to the record amount
// within the tolerance. A violation is a critical transformation
// finding.
func checkConservation(r Record, drafts []Draft) (Finding, bool) {
	if len(drafts) == 0 {
		return Finding{}, true
	}
	sum := decimal.Zero
	for _, d := range drafts {
		sum = sum.Add(d.Amount)
	}
	if sum.Sub(r.Amount).Abs().LessThanOrEqual(amountTolerance) {
		return Finding{}, true
	}
	return Finding{
		Kind: KindTransformation, Severity: SeverityCritical, Code: CodeSumImbalance,
		EntityID: r.ID,
		Message: fmt.Sprintf("draft amounts for record %q sum to %s, want %s (diff %s)",
			r.ID, sum, r.Amount, sum.Sub(r.Amount)),
	}, false
}
