package veritas

import (
	"errors"
	"fmt"
	"iter"

	"github.com/shopspring/decimal"
	"github.com/veritas-ledger/veritas/expr"
)

// Target is one destination of a rule: an account code with an optional
// split weight. A zero weight means "unspecified" and defaults to an
// equal share.
type Target struct {
	Account string          `json:"account"`
	Weight  decimal.Decimal `json:"weight,omitempty"`
}

// Rule maps records matching a condition to one or more target accounts.
// Rules are immutable after load; a change in source produces a new
// RuleSet.
type Rule struct {
	ID        string   `json:"id"`
	Condition string   `json:"condition"`
	Targets   []Target `json:"targets"`
	Priority  int      `json:"priority"`           // higher is evaluated first
	OneToMany bool     `json:"one_to_many,omitempty"`
	Metadata  string   `json:"metadata,omitempty"` // free text
}

// compiledRule pairs a rule with its compiled condition. A rule whose
// condition failed to compile keeps its place in declaration order but
// never matches.
type compiledRule struct {
	Rule
	program expr.Expr // nil when broken
}

// RuleSet is an immutable, compiled, ordered collection of rules.
// Conditions are compiled once at load time and reused across all
// records; the set is safe for concurrent readers and is never mutated
// in place. Hot reload builds a new RuleSet.
type RuleSet struct {
	rules []compiledRule // declaration order
}

// NewRuleSet compiles rules into an immutable set. Structural problems
// (bad syntax, duplicate id, empty condition or target list, priority
// below 1) become rule findings; offending rules stay in the set as
// never-matching so the declaration order used for tie-breaking is
// preserved for the rest.
func NewRuleSet(rules []Rule) (*RuleSet, []Finding) {
	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	var findings []Finding
	seen := make(map[string]bool, len(rules))

	for _, r := range rules {
		cr := compiledRule{Rule: r}
		switch {
		case r.ID == "":
			findings = append(findings, Finding{
				Kind: KindRule, Severity: SeverityError, Code: CodeInvalidRule,
				EntityID: r.ID, Message: "rule has no id",
			})
		case seen[r.ID]:
			findings = append(findings, Finding{
				Kind: KindRule, Severity: SeverityError, Code: CodeDuplicateRule,
				EntityID: r.ID, RuleID: r.ID,
				Message: fmt.Sprintf("duplicate rule id %q", r.ID),
			})
		}
		seen[r.ID] = true

		if len(r.Targets) == 0 {
			findings = append(findings, Finding{
				Kind: KindRule, Severity: SeverityError, Code: CodeInvalidRule,
				EntityID: r.ID, RuleID: r.ID,
				Message: fmt.Sprintf("rule %q has no target accounts", r.ID),
			})
			rs.rules = append(rs.rules, cr)
			continue
		}
		if r.Priority < 1 {
			findings = append(findings, Finding{
				Kind: KindRule, Severity: SeverityWarning, Code: CodeInvalidRule,
				EntityID: r.ID, RuleID: r.ID,
				Message: fmt.Sprintf("rule %q has priority %d, expected 1 or higher", r.ID, r.Priority),
			})
		}
		program, err := expr.Parse(r.Condition)
		if err != nil {
			findings = append(findings, compileFinding(r, err))
			rs.rules = append(rs.rules, cr)
			continue
		}
		cr.program = program
		rs.rules = append(rs.rules, cr)
	}
	return rs, findings
}

func compileFinding(r Rule, err error) Finding {
	var syntaxErr *expr.SyntaxError
	code := CodeRuleEval
	if errors.As(err, &syntaxErr) {
		code = CodeRuleSyntax
	}
	return Finding{
		Kind: KindRule, Severity: SeverityError, Code: code,
		EntityID: r.ID, RuleID: r.ID,
		Message: fmt.Sprintf("invalid condition in rule %q: %v (condition: %s)", r.ID, err, r.Condition),
	}
}

// Len returns the number of rules, broken ones included.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// All iterates over the rules in declaration order.
func (rs *RuleSet) All() iter.Seq2[int, Rule] {
	return func(yield func(int, Rule) bool) {
		for i, cr := range rs.rules {
			if !yield(i, cr.Rule) {
				return
			}
		}
	}
}

// Rule returns the rule with this id, or nil if unknown.
func (rs *RuleSet) Rule(id string) *Rule {
	for _, cr := range rs.rules {
		if cr.ID == id {
			r := cr.Rule
			return &r
		}
	}
	return nil
}

// UnknownAccounts returns transformation findings for every rule target
// that references an account code absent from the hierarchy. Checking at
// load time surfaces configuration mistakes before the first record is
// matched; the same condition is caught again per-draft by the
// transformer.
func (rs *RuleSet) UnknownAccounts(h *Hierarchy) []Finding {
	var findings []Finding
	for _, cr := range rs.rules {
		for _, t := range cr.Targets {
			if h.Account(t.Account) == nil {
				findings = append(findings, Finding{
					Kind: KindTransformation, Severity: SeverityCritical, Code: CodeUnknownAccount,
					EntityID: cr.ID, RuleID: cr.ID, Value: t.Account,
					Message: fmt.Sprintf("rule %q targets account %q which does not exist in the hierarchy", cr.ID, t.Account),
				})
			}
		}
	}
	return findings
}
