package veritas

import (
	"fmt"

	"github.com/veritas-ledger/veritas/expr"
)

// TransformationValidator cross-checks the matcher's output after
// matching and before aggregation. It re-derives what the matcher
// asserted: every record either produced drafts or a no-match finding,
// every account used exists, amounts are conserved, and rules asserted
// to match really do match when re-evaluated. The last one catches
// matcher implementation bugs, not user data problems.
type TransformationValidator struct {
	rules     *RuleSet
	hierarchy *Hierarchy
}

// NewTransformationValidator returns a validator bound to the immutable
// rule set and hierarchy used by the run.
func NewTransformationValidator(rules *RuleSet, h *Hierarchy) *TransformationValidator {
	return &TransformationValidator{rules: rules, hierarchy: h}
}

// Validate inspects all per-record match results. It never halts the
// pipeline; it only accumulates findings.
func (v *TransformationValidator) Validate(results []MatchResult) []Finding {
	var findings []Finding
	for _, res := range results {
		findings = append(findings, v.validateResult(res)...)
	}
	return findings
}

func (v *TransformationValidator) validateResult(res MatchResult) []Finding {
	var findings []Finding

	// Every record produced drafts, or carries an explicit no-match
	// finding. A result with neither means something was silently lost.
	if len(res.Drafts) == 0 && !hasCode(res.Findings, CodeNoMatch) {
		findings = append(findings, Finding{
			Kind: KindTransformation, Severity: SeverityCritical, Code: CodeMissingPostings,
			EntityID: res.Record.ID,
			Message:  fmt.Sprintf("record %q produced no drafts and no no-match finding", res.Record.ID),
		})
	}

	for _, d := range res.Drafts {
		if v.hierarchy.Account(d.Account) == nil {
			findings = append(findings, Finding{
				Kind: KindTransformation, Severity: SeverityCritical, Code: CodeUnknownAccount,
				EntityID: d.RecordID, RuleID: d.RuleID, Value: d.Account,
				Message: fmt.Sprintf("draft for record %q uses account %q which does not exist in the hierarchy",
					d.RecordID, d.Account),
			})
		}
	}

	if f, ok := checkConservation(res.Record, res.Drafts); !ok {
		findings = append(findings, f)
	}

	// Re-evaluate every rule the matcher applied against the record. A
	// mismatch here is a matcher bug.
	env := res.Record.Env()
	for _, id := range res.Applied {
		cr, ok := v.compiled(id)
		if !ok || cr.program == nil {
			findings = append(findings, Finding{
				Kind: KindTransformation, Severity: SeverityCritical, Code: CodeMatchMismatch,
				EntityID: res.Record.ID, RuleID: id,
				Message: fmt.Sprintf("record %q was matched by rule %q which is not evaluable in the rule set", res.Record.ID, id),
			})
			continue
		}
		matched, err := expr.Eval(cr.program, env)
		if err != nil || !matched {
			findings = append(findings, Finding{
				Kind: KindTransformation, Severity: SeverityCritical, Code: CodeMatchMismatch,
				EntityID: res.Record.ID, RuleID: id,
				Message: fmt.Sprintf("rule %q was applied to record %q but does not match on re-evaluation",
					id, res.Record.ID),
			})
		}
	}
	return findings
}

func (v *TransformationValidator) compiled(id string) (compiledRule, bool) {
	for _, cr := range v.rules.rules {
		if cr.ID == id {
			return cr, true
		}
	}
	return compiledRule{}, false
}

func hasCode(findings []Finding, code string) bool {
	for _, f := range findings {
		if f.Code == code {
			return true
		}
	}
	return false
}
