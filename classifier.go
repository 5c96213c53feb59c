package veritas

import (
	"fmt"
	"slices"
	"strings"
)

// Classifier aggregates findings from every cascade stage: it
// deduplicates overlapping findings (same entity, same root cause),
// assigns the global severity ordering, and proposes reviewable
// auto-fixes for a fixed whitelist of recoverable patterns. It is the
// only component that ranks findings across stages.
type Classifier struct {
	hierarchy  *Hierarchy
	knownTypes []string
}

// NewClassifier returns a classifier suggesting fixes against the run's
// hierarchy and type whitelist.
func NewClassifier(h *Hierarchy, knownTypes []string) *Classifier {
	return &Classifier{hierarchy: h, knownTypes: knownTypes}
}

// Classify deduplicates and orders findings, attaching fix suggestions
// where one of the whitelisted recoverable patterns applies. Fixes are
// never applied here: they are attached with review status pending.
func (c *Classifier) Classify(findings []Finding) []Finding {
	// Dedupe by (entity, root cause), keeping the worst severity and the
	// first message seen for it.
	type key struct {
		entity string
		code   string
	}
	index := make(map[key]int)
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		k := key{entity: f.EntityID, code: f.Code}
		if i, dup := index[k]; dup {
			if f.Severity > out[i].Severity {
				out[i].Severity = f.Severity
			}
			continue
		}
		index[k] = len(out)
		out = append(out, f)
	}

	// Worst first; entity then code keep the order deterministic.
	slices.SortStableFunc(out, func(a, b Finding) int {
		if a.Severity != b.Severity {
			return int(b.Severity) - int(a.Severity)
		}
		if a.EntityID != b.EntityID {
			return strings.Compare(a.EntityID, b.EntityID)
		}
		return strings.Compare(a.Code, b.Code)
	})

	for i := range out {
		if out[i].Fix == nil {
			out[i].Fix = c.suggestFix(out[i])
		}
	}
	return out
}

// suggestFix proposes at most one candidate fix for a whitelisted
// recoverable pattern: surrounding whitespace, a case mismatch, a common
// single-character typo, or a near-identical account code within edit
// distance one. Anything else returns nil.
func (c *Classifier) suggestFix(f Finding) *Fix {
	if f.Value == "" {
		return nil
	}
	switch f.Code {
	case CodeUnknownType:
		return suggestValue(f.Value, "type", c.knownTypes)
	case CodeUnknownAccount:
		if c.hierarchy == nil {
			return nil
		}
		return suggestValue(f.Value, "account", c.hierarchy.Codes())
	default:
		return nil
	}
}

func suggestValue(actual, field string, candidates []string) *Fix {
	if len(candidates) == 0 {
		return nil
	}
	// Leading/trailing whitespace.
	if trimmed := strings.TrimSpace(actual); trimmed != actual && slices.Contains(candidates, trimmed) {
		return &Fix{
			Field: field, Before: actual, After: trimmed,
			Reason:     "surrounding whitespace",
			Confidence: ConfidenceHigh,
		}
	}
	// Case mismatch.
	for _, cand := range candidates {
		if strings.EqualFold(actual, cand) && actual != cand {
			return &Fix{
				Field: field, Before: actual, After: cand,
				Reason:     fmt.Sprintf("case mismatch with %q", cand),
				Confidence: ConfidenceHigh,
			}
		}
	}
	// Common single-character typo (O/0, I/1, S/5, Z/2).
	for _, cand := range candidates {
		if isLikelyTypo(strings.ToUpper(actual), strings.ToUpper(cand)) {
			return &Fix{
				Field: field, Before: actual, After: cand,
				Reason:     fmt.Sprintf("likely typo of %q", cand),
				Confidence: ConfidenceHigh,
			}
		}
	}
	// Near match within edit distance one: only when a single candidate
	// qualifies, otherwise the suggestion would be a guess.
	var close []string
	for _, cand := range candidates {
		if editDistance(strings.ToLower(actual), strings.ToLower(cand)) == 1 {
			close = append(close, cand)
		}
	}
	if len(close) == 1 {
		return &Fix{
			Field: field, Before: actual, After: close[0],
			Reason:     fmt.Sprintf("close match to %q", close[0]),
			Confidence: ConfidenceMedium,
		}
	}
	return nil
}

// typoPairs are character confusions common in manually keyed data.
var typoPairs = map[[2]byte]bool{
	{'0', 'O'}: true, {'O', '0'}: true,
	{'1', 'I'}: true, {'I', '1'}: true,
	{'5', 'S'}: true, {'S', '5'}: true,
	{'2', 'Z'}: true, {'Z', '2'}: true,
}

// isLikelyTypo reports whether actual differs from expected in exactly
// one position and that position is a known confusion pair.
func isLikelyTypo(actual, expected string) bool {
	if len(actual) != len(expected) || actual == expected {
		return false
	}
	diffs := 0
	pair := false
	for i := 0; i < len(actual); i++ {
		if actual[i] != expected[i] {
			diffs++
			pair = typoPairs[[2]byte{actual[i], expected[i]}]
		}
	}
	return diffs == 1 && pair
}

// editDistance is the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// ApplyFix produces a corrected copy of a record from an approved
// finding. The original record is never mutated: the caller records the
// correction in the audit trail and feeds the new record into the next
// run.
func ApplyFix(r Record, f Finding) (Record, error) {
	if f.Fix == nil {
		return Record{}, fmt.Errorf("finding %s/%s carries no fix", f.EntityID, f.Code)
	}
	if f.Status != ReviewApproved {
		return Record{}, fmt.Errorf("finding %s/%s is %s, fixes apply only after approval", f.EntityID, f.Code, f.Status)
	}
	if f.EntityID != r.ID {
		return Record{}, fmt.Errorf("finding targets %q, record is %q", f.EntityID, r.ID)
	}
	fixed := r
	switch f.Fix.Field {
	case "type":
		if r.Type != f.Fix.Before {
			return Record{}, fmt.Errorf("record %q type is %q, fix expects %q", r.ID, r.Type, f.Fix.Before)
		}
		fixed.Type = f.Fix.After
	case "description":
		if r.Description != f.Fix.Before {
			return Record{}, fmt.Errorf("record %q description does not match the fix", r.ID)
		}
		fixed.Description = f.Fix.After
	default:
		return Record{}, fmt.Errorf("fix field %q is not applicable to a record", f.Fix.Field)
	}
	return fixed, nil
}

// Summary condenses a classified finding list into overall status and
// confidence indicators.
type Summary struct {
	Status     string     `json:"status"` // pass, warning or fail
	Records    int        `json:"records"`
	Critical   int        `json:"critical"`
	Errors     int        `json:"errors"`
	Warnings   int        `json:"warnings"`
	Infos      int        `json:"infos"`
	Confidence Confidence `json:"confidence"`
	Factors    []string   `json:"factors,omitempty"`
}

// Summarize computes the overall validation status and a coarse
// confidence grade for a processed batch.
func Summarize(findings []Finding, records int) Summary {
	s := Summary{Records: records, Status: "pass", Confidence: ConfidenceHigh}
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	switch {
	case s.Critical > 0 || s.Errors > 0:
		s.Status = "fail"
	case s.Warnings > 0:
		s.Status = "warning"
	}

	if records == 0 {
		s.Confidence = ConfidenceLow
		s.Factors = append(s.Factors, "no records processed")
		return s
	}
	score := 1.0 - float64(s.Errors)/float64(records)
	if score < 0 {
		score = 0
	}
	if s.Critical > 0 {
		score *= 0.5
		s.Factors = append(s.Factors, fmt.Sprintf("%d critical findings", s.Critical))
	}
	if s.Warnings > 0 {
		penalty := float64(s.Warnings) / float64(records) * 0.5
		if penalty > 0.2 {
			penalty = 0.2
		}
		score *= 1.0 - penalty
		s.Factors = append(s.Factors, fmt.Sprintf("%d warnings", s.Warnings))
	}
	switch {
	case score >= 0.8:
		s.Confidence = ConfidenceHigh
	case score >= 0.5:
		s.Confidence = ConfidenceMedium
	default:
		s.Confidence = ConfidenceLow
	}
	return s
}
