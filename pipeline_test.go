package veritas

import (
	"bytes"
	"context"
	"reflect"
	"testing"
)

func pipelineFixture(t *testing.T) ([]Record, *RuleSet, *Hierarchy) {
	t.Helper()
	records := []Record{
		rec("e1", "OL", 1000, "2024-02-10"),
		rec("e2", "OL", 1200, "2024-05-20"),
		rec("e3", "CS", 900, "2024-08-05"),
		rec("e4", "ZZ", 50, "2024-11-03"), // never matches
	}
	rs := mustRuleSet(t,
		Rule{ID: "rent", Condition: `type == "OL" and amount <= 1000`, Priority: 10,
			Targets: []Target{{Account: "A1-1"}}},
		Rule{ID: "rent-split", Condition: `type == "OL" and amount > 1000`, Priority: 10,
			Targets: []Target{{Account: "A1-1", Weight: dec("2")}, {Account: "A1-2", Weight: dec("1")}}},
		Rule{ID: "consulting", Condition: `type == "CS"`, Priority: 5,
			Targets: []Target{{Account: "B1"}}},
	)
	return records, rs, testHierarchy(t)
}

func TestProcess(t *testing.T) {
	records, rs, h := pipelineFixture(t)
	result, err := Process(context.Background(), records, rs, h, Options{})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// e1 posts once, e2 splits in two, e3 posts once, e4 not at all.
	if len(result.Postings) != 4 {
		t.Fatalf("Process() postings = %d, want 4", len(result.Postings))
	}
	if fs := findCode(result.Findings, CodeNoMatch); len(fs) != 1 || fs[0].EntityID != "e4" {
		t.Errorf("Process() no-match findings = %v", fs)
	}
	if result.Audit.Len() != len(records) {
		t.Errorf("Process() audit entries = %d, want %d", result.Audit.Len(), len(records))
	}

	// Conservation per record.
	sums := make(map[string]string)
	for _, p := range result.Postings {
		sums[p.RecordID] = sums[p.RecordID] + "+" + p.Amount.String()
	}
	total := result.Totals.Total("OP", Period{Year: 2024})
	if !total.Equal(dec("3100")) {
		t.Errorf("Process() OP total = %s, want 3100 (per-record sums: %v)", total, sums)
	}
}

// Completeness: postings plus no-match findings cover every input record.
func TestProcess_Completeness(t *testing.T) {
	records, rs, h := pipelineFixture(t)
	result, err := Process(context.Background(), records, rs, h, Options{})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	covered := make(map[string]bool)
	for _, p := range result.Postings {
		covered[p.RecordID] = true
	}
	for _, f := range findCode(result.Findings, CodeNoMatch) {
		covered[f.EntityID] = true
	}
	if len(covered) != len(records) {
		t.Errorf("covered %d of %d records", len(covered), len(records))
	}
	if fs := findCode(result.Findings, CodeCountMismatch); len(fs) != 0 {
		t.Errorf("Process() count findings = %v", fs)
	}
}

// Two runs over identical input produce identical postings, totals and
// findings, regardless of worker count.
func TestProcess_Deterministic(t *testing.T) {
	records, rs, h := pipelineFixture(t)

	run := func(workers int) *Result {
		result, err := Process(context.Background(), records, rs, h, Options{Workers: workers})
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		return result
	}
	first := run(1)
	second := run(8)

	if !reflect.DeepEqual(first.Postings, second.Postings) {
		t.Error("postings differ between runs")
	}
	if !reflect.DeepEqual(first.Findings, second.Findings) {
		t.Error("findings differ between runs")
	}

	var a, b bytes.Buffer
	if err := EncodeTotals(&a, first.Totals); err != nil {
		t.Fatal(err)
	}
	if err := EncodeTotals(&b, second.Totals); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("encoded totals differ between runs")
	}
}

func TestProcess_Cancellation(t *testing.T) {
	records, rs, h := pipelineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Process(ctx, records, rs, h, Options{}); err == nil {
		t.Error("Process() with a cancelled context should fail")
	}
}

func TestProcess_NilInputs(t *testing.T) {
	records, rs, h := pipelineFixture(t)
	if _, err := Process(context.Background(), records, nil, h, Options{}); err == nil {
		t.Error("Process() with a nil rule set should fail")
	}
	if _, err := Process(context.Background(), records, rs, nil, Options{}); err == nil {
		t.Error("Process() with a nil hierarchy should fail")
	}
}

// A rule targeting an unknown account yields critical findings and no
// postings for its drafts, while everything else proceeds.
func TestProcess_UnknownAccountTarget(t *testing.T) {
	records := []Record{
		rec("e1", "OL", 100, "2024-02-10"),
		rec("e2", "CS", 200, "2024-03-10"),
	}
	rs := mustRuleSet(t,
		Rule{ID: "bad", Condition: `type == "OL"`, Priority: 10, Targets: []Target{{Account: "Q9"}}},
		Rule{ID: "good", Condition: `type == "CS"`, Priority: 10, Targets: []Target{{Account: "B1"}}},
	)
	result, err := Process(context.Background(), records, rs, testHierarchy(t), Options{})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(result.Postings) != 1 || result.Postings[0].Account != "B1" {
		t.Errorf("Process() postings = %+v, want only B1", result.Postings)
	}
	fs := findCode(result.Findings, CodeUnknownAccount)
	if len(fs) == 0 {
		t.Fatal("Process() missed the unknown account")
	}
	for _, f := range fs {
		if f.Severity != SeverityCritical {
			t.Errorf("unknown-account severity = %s, want critical", f.Severity)
		}
	}
	if result.Summary.Status != "fail" {
		t.Errorf("Process() status = %q, want fail", result.Summary.Status)
	}
}

// Unknown record types get pending fix suggestions in the classified
// findings when a close known type exists.
func TestProcess_SuggestsTypeFix(t *testing.T) {
	records := []Record{rec("e1", "ol", 100, "2024-02-10")}
	rs := mustRuleSet(t, Rule{
		ID: "r1", Condition: `type == "OL"`, Priority: 10,
		Targets: []Target{{Account: "A1-1"}},
	})
	result, err := Process(context.Background(), records, rs, testHierarchy(t),
		Options{KnownTypes: []string{"OL", "CS"}})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	fs := findCode(result.Findings, CodeUnknownType)
	if len(fs) != 1 || fs[0].Fix == nil {
		t.Fatalf("Process() unknown-type findings = %+v", fs)
	}
	fix := fs[0].Fix
	if fix.After != "OL" || fix.Confidence != ConfidenceHigh || fs[0].Status != ReviewPending {
		t.Errorf("suggested fix = %+v", fix)
	}
}
