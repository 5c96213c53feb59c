package veritas

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/veritas-ledger/veritas/expr"
)

// Record is one source financial event (a journal entry). Records are
// immutable once read; corrections produce new Records, never in-place
// edits.
type Record struct {
	ID          string          `json:"id"`
	Year        int             `json:"year"`
	Quarter     int             `json:"quarter,omitempty"` // 1..4, or 0 when the period is the whole year
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

// Period returns the record's reporting period. When the record carries
// no explicit quarter, the quarter is derived from the date.
func (r Record) Period() Period {
	q := r.Quarter
	if q == 0 && !r.Date.IsZero() {
		q = QuarterOf(r.Date)
	}
	return Period{Year: r.Year, Quarter: q}
}

// Env projects the record to the field→value mapping seen by rule
// conditions. The schema is fixed: a condition referencing any other
// field fails with an unknown-field error.
func (r Record) Env() expr.Env {
	return expr.Env{
		"id":          expr.String(r.ID),
		"year":        expr.Number(decimal.NewFromInt(int64(r.Year))),
		"quarter":     expr.Number(decimal.NewFromInt(int64(r.Quarter))),
		"description": expr.String(r.Description),
		"type":        expr.String(r.Type),
		"amount":      expr.Number(r.Amount),
		"date":        expr.String(r.Date.Format("2006-01-02")),
	}
}

// dupKey identifies records that are duplicates of one another:
// same period, description, type and amount.
func (r Record) dupKey() string {
	return r.Period().String() + "\x00" + r.Description + "\x00" + r.Type + "\x00" + r.Amount.String()
}
