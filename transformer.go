package veritas

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Posting is one finalized ledger entry. Postings are created only by
// the Transformer and never mutated afterwards: corrections produce new
// postings plus an audit note.
type Posting struct {
	ID          string          `json:"id"`
	Account     string          `json:"account"`
	AccountPath string          `json:"account_path"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Period      Period          `json:"period"`
	Description string          `json:"description"`
	RecordID    string          `json:"record_id"`
	RuleID      string          `json:"rule_id"`
}

// Transformer converts posting drafts into fully formed postings,
// resolving account codes through the hierarchy and stamping full path,
// period and provenance. The mapping is 1:1; splitting already happened
// during matching.
type Transformer struct {
	hierarchy *Hierarchy
}

// NewTransformer returns a transformer resolving accounts against h.
func NewTransformer(h *Hierarchy) *Transformer {
	return &Transformer{hierarchy: h}
}

// Transform maps the record's drafts to postings. A draft referencing an
// account absent from the hierarchy yields a critical finding and no
// posting, never a silent drop, while the remaining drafts proceed
// normally.
//
// Posting ids are derived from provenance so that identical input
// produces identical output.
func (t *Transformer) Transform(r Record, drafts []Draft) ([]Posting, []Finding) {
	var postings []Posting
	var findings []Finding
	for _, d := range drafts {
		path, err := t.hierarchy.Path(d.Account)
		if err != nil {
			findings = append(findings, Finding{
				Kind: KindTransformation, Severity: SeverityCritical, Code: CodeUnknownAccount,
				EntityID: d.RecordID, RuleID: d.RuleID, Value: d.Account,
				Message: fmt.Sprintf("rule %q maps record %q to account %q which does not exist in the hierarchy",
					d.RuleID, d.RecordID, d.Account),
			})
			continue
		}
		postings = append(postings, Posting{
			ID:          postingID(d),
			Account:     d.Account,
			AccountPath: path,
			Amount:      d.Amount,
			Date:        r.Date,
			Period:      r.Period(),
			Description: r.Description,
			RecordID:    d.RecordID,
			RuleID:      d.RuleID,
		})
	}
	return postings, findings
}

func postingID(d Draft) string {
	return fmt.Sprintf("P-%s-%s-%s", d.RecordID, d.RuleID, d.Account)
}
