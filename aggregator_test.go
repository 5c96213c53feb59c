package veritas

import (
	"testing"
)

func testPostings(t *testing.T, h *Hierarchy) []Posting {
	t.Helper()
	tr := NewTransformer(h)
	var postings []Posting
	batches := []struct {
		r Record
		d Draft
	}{
		{rec("e1", "OL", 1000, "2024-02-10"), Draft{RecordID: "e1", Account: "A1-1", RuleID: "r1", Amount: dec("1000")}},
		{rec("e2", "OL", 500, "2024-05-20"), Draft{RecordID: "e2", Account: "A1-1", RuleID: "r1", Amount: dec("500")}},
		{rec("e3", "OC", 200, "2024-05-25"), Draft{RecordID: "e3", Account: "A1-2", RuleID: "r2", Amount: dec("200")}},
		{rec("e4", "CS", 900, "2024-11-03"), Draft{RecordID: "e4", Account: "B1", RuleID: "r3", Amount: dec("900")}},
	}
	for _, b := range batches {
		ps, fs := tr.Transform(b.r, []Draft{b.d})
		if len(fs) != 0 {
			t.Fatalf("Transform() findings = %v", fs)
		}
		postings = append(postings, ps...)
	}
	return postings
}

func TestAggregate(t *testing.T) {
	h := testHierarchy(t)
	totals := Aggregate(testPostings(t, h), h)

	y := Period{Year: 2024}
	testCases := []struct {
		account string
		period  Period
		want    string
	}{
		{"A1-1", y, "1500"},
		{"A1-1", Period{Year: 2024, Quarter: 1}, "1000"},
		{"A1-1", Period{Year: 2024, Quarter: 2}, "500"},
		{"A1", y, "1700"},                          // rent + charges
		{"OP-L", y, "1700"},                        // rolled up
		{"OP", y, "2600"},                          // leases + consulting
		{"OP", Period{Year: 2024, Quarter: 4}, "900"},
		{"FIN", y, "0"}, // no postings
	}
	for _, tc := range testCases {
		got := totals.Total(tc.account, tc.period)
		if !got.Equal(dec(tc.want)) {
			t.Errorf("Total(%s, %s) = %s, want %s", tc.account, tc.period, got, tc.want)
		}
	}

	if got := totals.Count("A1-1", y); got != 2 {
		t.Errorf("Count(A1-1, 2024) = %d, want 2", got)
	}
	if got := totals.Count("A1", y); got != 0 {
		t.Errorf("Count(A1, 2024) = %d, want 0 direct postings", got)
	}
}

// The rollup invariant holds for every non-leaf account and period.
func TestAggregate_RollupsHold(t *testing.T) {
	h := testHierarchy(t)
	totals := Aggregate(testPostings(t, h), h)
	if fs := totals.CheckRollups(); len(fs) != 0 {
		t.Errorf("CheckRollups() = %v, want none", fs)
	}
}

func TestAggregate_KeysAreSorted(t *testing.T) {
	h := testHierarchy(t)
	totals := Aggregate(testPostings(t, h), h)

	var prev *TotalKey
	for k := range totals.Keys() {
		if prev != nil {
			if c := comparePeriods(prev.Period, k.Period); c > 0 ||
				(c == 0 && prev.Account > k.Account) {
				t.Fatalf("Keys() out of order: %v before %v", *prev, k)
			}
		}
		kk := k
		prev = &kk
	}
}
