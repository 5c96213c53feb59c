package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/veritas-ledger/veritas"
)

func testHierarchy(t *testing.T) *veritas.Hierarchy {
	t.Helper()
	h, err := veritas.NewHierarchy([]veritas.Account{
		{Code: "OP", Name: "Operations", Level: 1},
		{Code: "OP-L", Name: "Leases", Level: 2, Parent: "OP"},
		{Code: "A1", Name: "Office Leases", Level: 3, Parent: "OP-L"},
		{Code: "A1-1", Name: "Office Rent", Level: 4, Parent: "A1"},
	})
	if err != nil {
		t.Fatalf("NewHierarchy() error = %v", err)
	}
	return h
}

func TestQuarterlyMarkdown(t *testing.T) {
	h := testHierarchy(t)
	postings := []veritas.Posting{{
		ID: "P-e1-r1-A1-1", Account: "A1-1", Amount: decimal.NewFromInt(1000),
		Period: veritas.Period{Year: 2024, Quarter: 2}, RecordID: "e1", RuleID: "r1",
		Date: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	}}
	totals := veritas.Aggregate(postings, h)

	md := QuarterlyMarkdown(totals, h, 2024, "EUR")
	if !strings.Contains(md, "# Quarterly Report 2024") {
		t.Errorf("missing title:\n%s", md)
	}
	// every account on the path shows the rolled-up amount
	for _, name := range []string{"Operations", "Leases", "Office Rent"} {
		if !strings.Contains(md, name) {
			t.Errorf("missing account %q:\n%s", name, md)
		}
	}
	if !strings.Contains(md, "€") {
		t.Errorf("missing formatted amount:\n%s", md)
	}
}

func TestFindingsMarkdown(t *testing.T) {
	findings := []veritas.Finding{
		{Kind: veritas.KindData, Severity: veritas.SeverityCritical, Code: veritas.CodeUnknownAccount,
			EntityID: "e1", Message: "account missing"},
		{Kind: veritas.KindData, Severity: veritas.SeverityInfo, Code: veritas.CodeMultipleMatches,
			EntityID: "e2", Message: "several matched"},
	}

	md := FindingsMarkdown(findings, veritas.SeverityInfo)
	if !strings.Contains(md, "## Critical") || !strings.Contains(md, "## Info") {
		t.Errorf("missing severity sections:\n%s", md)
	}

	md = FindingsMarkdown(findings, veritas.SeverityError)
	if strings.Contains(md, "## Info") {
		t.Errorf("info section should be filtered out:\n%s", md)
	}

	md = FindingsMarkdown(nil, veritas.SeverityInfo)
	if !strings.Contains(md, "No findings") {
		t.Errorf("missing empty message:\n%s", md)
	}
}

func TestFindingsMarkdown_FixCell(t *testing.T) {
	findings := []veritas.Finding{{
		Kind: veritas.KindData, Severity: veritas.SeverityError, Code: veritas.CodeUnknownType,
		EntityID: "e1", Message: "unknown type", Value: "ol",
		Fix: &veritas.Fix{Field: "type", Before: "ol", After: "OL",
			Reason: "case mismatch", Confidence: veritas.ConfidenceHigh},
	}}
	md := FindingsMarkdown(findings, veritas.SeverityInfo)
	if !strings.Contains(md, `"ol" -> "OL"`) || !strings.Contains(md, "high confidence") {
		t.Errorf("missing fix cell:\n%s", md)
	}
	if !strings.Contains(md, "pending") {
		t.Errorf("missing review status:\n%s", md)
	}
}

func TestSummaryMarkdown(t *testing.T) {
	s := veritas.Summary{
		Status: "warning", Records: 10, Warnings: 2,
		Confidence: veritas.ConfidenceHigh,
		Factors:    []string{"2 warnings"},
	}
	md := SummaryMarkdown(s)
	for _, want := range []string{"**warning**", "| Records | 10 |", "2 warnings"} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q:\n%s", want, md)
		}
	}
}

func TestTraceMarkdown(t *testing.T) {
	trace := veritas.Trace{
		Entry: veritas.AuditEntry{
			RecordID: "e1",
			Record: veritas.Record{ID: "e1", Description: "rent feb", Type: "OL",
				Amount: decimal.NewFromInt(1000), Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
			Evaluated:  []veritas.RuleOutcome{{RuleID: "r1", Matched: true}, {RuleID: "r2"}},
			Matched:    []string{"r1"},
			PostingIDs: []string{"P-e1-r1-A1-1"},
		},
		Notes: []veritas.AuditNote{{RecordID: "e1", Action: "correction", Detail: "checked by hand"}},
	}
	md := TraceMarkdown(trace)
	for _, want := range []string{"# Audit Trace for e1", "Applied rules: r1.", "P-e1-r1-A1-1", "## Rules Evaluated", "checked by hand"} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q:\n%s", want, md)
		}
	}
}

func TestTraceMarkdown_NoMatch(t *testing.T) {
	trace := veritas.Trace{Entry: veritas.AuditEntry{
		RecordID: "e1",
		Record:   veritas.Record{ID: "e1", Type: "ZZ", Amount: decimal.NewFromInt(50)},
		NoMatch:  true,
	}}
	md := TraceMarkdown(trace)
	if !strings.Contains(md, "No rule matched") {
		t.Errorf("missing no-match line:\n%s", md)
	}
}
