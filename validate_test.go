package veritas

import (
	"testing"
	"time"
)

func TestInputValidator_MissingFields(t *testing.T) {
	v := InputValidator{}
	r := Record{ID: "e1", Year: 2024} // no type, description or date

	findings := v.Validate([]Record{r})
	missing := findCode(findings, CodeMissingField)
	if len(missing) != 3 {
		t.Errorf("Validate() missing-field findings = %d, want 3: %v", len(missing), findings)
	}
}

func TestInputValidator_Ranges(t *testing.T) {
	min, _ := time.Parse("2006-01-02", "2024-01-01")
	max, _ := time.Parse("2006-01-02", "2024-12-31")
	v := InputValidator{MinDate: min, MaxDate: max, KnownTypes: []string{"OL", "CS"}}

	t.Run("clean record", func(t *testing.T) {
		if fs := v.Validate([]Record{rec("e1", "OL", 100, "2024-06-01")}); len(fs) != 0 {
			t.Errorf("Validate() = %v, want none", fs)
		}
	})
	t.Run("date before bound", func(t *testing.T) {
		fs := v.Validate([]Record{rec("e1", "OL", 100, "2023-06-01")})
		if len(findCode(fs, CodeDateOutOfRange)) != 1 {
			t.Errorf("Validate() = %v", fs)
		}
	})
	t.Run("unknown type carries the value", func(t *testing.T) {
		fs := findCode(v.Validate([]Record{rec("e1", "XX", 100, "2024-06-01")}), CodeUnknownType)
		if len(fs) != 1 || fs[0].Value != "XX" {
			t.Errorf("Validate() = %v", fs)
		}
	})
	t.Run("year mismatch is a warning", func(t *testing.T) {
		r := rec("e1", "OL", 100, "2024-06-01")
		r.Year = 2023
		fs := findCode(v.Validate([]Record{r}), CodeDateOutOfRange)
		if len(fs) != 1 || fs[0].Severity != SeverityWarning {
			t.Errorf("Validate() = %v", fs)
		}
	})
	t.Run("quarter out of range", func(t *testing.T) {
		r := rec("e1", "OL", 100, "2024-06-01")
		r.Quarter = 5
		if len(findCode(v.Validate([]Record{r}), CodeInvalidQuarter)) != 1 {
			t.Error("Validate() missed the invalid quarter")
		}
	})
}

func TestInputValidator_Duplicates(t *testing.T) {
	v := InputValidator{}
	a := rec("e1", "OL", 100, "2024-06-01")
	b := rec("e2", "OL", 100, "2024-06-01")
	b.Description = a.Description // same period, description, type, amount

	fs := findCode(v.Validate([]Record{a, b}), CodeDuplicateRecord)
	if len(fs) != 1 || fs[0].EntityID != "e2" {
		t.Errorf("Validate() duplicate findings = %v", fs)
	}
}

func TestTransformationValidator(t *testing.T) {
	h := testHierarchy(t)
	rs := mustRuleSet(t, Rule{
		ID: "r1", Condition: `type == "OL"`, Priority: 10,
		Targets: []Target{{Account: "A1-1"}},
	})
	v := NewTransformationValidator(rs, h)

	t.Run("clean result", func(t *testing.T) {
		res := rs.Match(rec("e1", "OL", 100, "2024-06-01"))
		if fs := v.Validate([]MatchResult{res}); len(fs) != 0 {
			t.Errorf("Validate() = %v, want none", fs)
		}
	})
	t.Run("imbalance is critical", func(t *testing.T) {
		res := rs.Match(rec("e1", "OL", 100, "2024-06-01"))
		res.Drafts[0].Amount = dec("90")
		fs := findCode(v.Validate([]MatchResult{res}), CodeSumImbalance)
		if len(fs) != 1 || fs[0].Severity != SeverityCritical {
			t.Errorf("Validate() = %v", fs)
		}
	})
	t.Run("applied rule must re-match", func(t *testing.T) {
		res := rs.Match(rec("e1", "OL", 100, "2024-06-01"))
		res.Record.Type = "XX" // simulate a matcher bug
		if len(findCode(v.Validate([]MatchResult{res}), CodeMatchMismatch)) != 1 {
			t.Error("Validate() missed the re-evaluation mismatch")
		}
	})
	t.Run("lost record is critical", func(t *testing.T) {
		res := MatchResult{Record: rec("e1", "OL", 100, "2024-06-01")}
		if len(findCode(v.Validate([]MatchResult{res}), CodeMissingPostings)) != 1 {
			t.Error("Validate() missed the lost record")
		}
	})
}

func TestOutputValidator(t *testing.T) {
	h := testHierarchy(t)
	rs := mustRuleSet(t, Rule{
		ID: "r1", Condition: `type == "OL"`, Priority: 10,
		Targets: []Target{{Account: "A1-1"}},
	})
	tr := NewTransformer(h)
	v := NewOutputValidator(h)

	records := []Record{
		rec("e1", "OL", 1000, "2024-02-10"),
		rec("e2", "ZZ", 50, "2024-05-20"), // unmatched
	}
	var results []MatchResult
	var postings []Posting
	for _, r := range records {
		res := rs.Match(r)
		ps, _ := tr.Transform(r, res.Drafts)
		results = append(results, res)
		postings = append(postings, ps...)
	}
	totals := Aggregate(postings, h)

	t.Run("clean run", func(t *testing.T) {
		if fs := v.Validate(records, results, postings, totals); len(fs) != 0 {
			t.Errorf("Validate() = %v, want none", fs)
		}
	})
	t.Run("lost record is a count mismatch", func(t *testing.T) {
		extra := append([]Record{rec("e3", "OL", 10, "2024-06-01")}, records...)
		fs := findCode(v.Validate(extra, results, postings, totals), CodeCountMismatch)
		// one per-record finding plus the batch-level one
		if len(fs) != 2 {
			t.Errorf("Validate() count findings = %v", fs)
		}
	})
	t.Run("spot check catches a tampered posting", func(t *testing.T) {
		tampered := make([]Posting, len(postings))
		copy(tampered, postings)
		tampered[0].Amount = tampered[0].Amount.Add(dec("5"))
		fs := findCode(v.Validate(records, results, tampered, totals), CodeSpotCheckFailed)
		if len(fs) != 1 {
			t.Errorf("Validate() spot-check findings = %v", fs)
		}
	})
}
