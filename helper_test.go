package veritas

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// testAccounts is a small four-level tree used across the tests.
//
//	OP  Operations
//	├── OP-L  Leases
//	│   └── A1  Office Leases
//	│       ├── A1-1  Office Rent
//	│       └── A1-2  Office Charges
//	└── OP-S  Services
//	    └── B1  Consulting
//	FIN Finance
func testAccounts() []Account {
	return []Account{
		{Code: "OP", Name: "Operations", Level: 1},
		{Code: "OP-L", Name: "Leases", Level: 2, Parent: "OP"},
		{Code: "A1", Name: "Office Leases", Level: 3, Parent: "OP-L"},
		{Code: "A1-1", Name: "Office Rent", Level: 4, Parent: "A1"},
		{Code: "A1-2", Name: "Office Charges", Level: 4, Parent: "A1"},
		{Code: "OP-S", Name: "Services", Level: 2, Parent: "OP"},
		{Code: "B1", Name: "Consulting", Level: 3, Parent: "OP-S"},
		{Code: "FIN", Name: "Finance", Level: 1},
	}
}

func testHierarchy(t *testing.T) *Hierarchy {
	t.Helper()
	h, err := NewHierarchy(testAccounts())
	if err != nil {
		t.Fatalf("NewHierarchy() error = %v", err)
	}
	return h
}

// mustRuleSet compiles rules and fails the test on any load finding.
func mustRuleSet(t *testing.T, rules ...Rule) *RuleSet {
	t.Helper()
	rs, findings := NewRuleSet(rules)
	if len(findings) > 0 {
		t.Fatalf("NewRuleSet() findings = %v", findings)
	}
	return rs
}

// rec builds a record whose declared year matches its date.
func rec(id, typ string, amount float64, date string) Record {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return Record{
		ID:          id,
		Year:        d.Year(),
		Description: "test record " + id,
		Type:        typ,
		Amount:      decimal.NewFromFloat(amount),
		Date:        d,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// findCode returns the findings carrying this code.
func findCode(findings []Finding, code string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}
