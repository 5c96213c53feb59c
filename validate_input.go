package veritas

import (
	"fmt"
	"slices"
	"time"
)

// InputValidator checks the record table before any matching happens:
// schema completeness, field ranges, duplicate detection.
type InputValidator struct {
	// MinDate and MaxDate bound acceptable record dates. Zero values
	// disable the corresponding bound.
	MinDate, MaxDate time.Time
	// KnownTypes, when non-empty, is the whitelist of acceptable record
	// type strings. Unknown types are reported (and are candidates for
	// auto-fix suggestions downstream).
	KnownTypes []string
}

// Validate returns data findings for the batch. It never fails: every
// problem is a finding and processing continues.
func (v InputValidator) Validate(records []Record) []Finding {
	var findings []Finding
	seen := make(map[string]string, len(records)) // dupKey → first record id

	for _, r := range records {
		findings = append(findings, v.validateRecord(r)...)

		key := r.dupKey()
		if first, dup := seen[key]; dup {
			findings = append(findings, Finding{
				Kind: KindData, Severity: SeverityWarning, Code: CodeDuplicateRecord,
				EntityID: r.ID,
				Message: fmt.Sprintf("record %q duplicates record %q (same period, description, type and amount)",
					r.ID, first),
			})
		} else {
			seen[key] = r.ID
		}
	}
	return findings
}

func (v InputValidator) validateRecord(r Record) []Finding {
	var findings []Finding
	missing := func(field string) Finding {
		return Finding{
			Kind: KindData, Severity: SeverityError, Code: CodeMissingField,
			EntityID: r.ID,
			Message:  fmt.Sprintf("record %q has no %s", r.ID, field),
		}
	}
	if r.ID == "" {
		f := missing("id")
		f.Message = "record has no id"
		findings = append(findings, f)
	}
	if r.Type == "" {
		findings = append(findings, missing("type"))
	}
	if r.Description == "" {
		findings = append(findings, missing("description"))
	}
	if r.Date.IsZero() {
		findings = append(findings, missing("date"))
	}
	if r.Year == 0 {
		findings = append(findings, missing("year"))
	} else if !r.Date.IsZero() && r.Date.Year() != r.Year {
		findings = append(findings, Finding{
			Kind: KindData, Severity: SeverityWarning, Code: CodeDateOutOfRange,
			EntityID: r.ID,
			Message:  fmt.Sprintf("record %q is dated %s but declares year %d", r.ID, r.Date.Format("2006-01-02"), r.Year),
		})
	}
	if r.Quarter < 0 || r.Quarter > 4 {
		findings = append(findings, Finding{
			Kind: KindData, Severity: SeverityError, Code: CodeInvalidQuarter,
			EntityID: r.ID,
			Message:  fmt.Sprintf("record %q has quarter %d, want 1..4 or none", r.ID, r.Quarter),
		})
	}
	if !r.Date.IsZero() {
		if !v.MinDate.IsZero() && r.Date.Before(v.MinDate) {
			findings = append(findings, v.dateFinding(r, "before", v.MinDate))
		}
		if !v.MaxDate.IsZero() && r.Date.After(v.MaxDate) {
			findings = append(findings, v.dateFinding(r, "after", v.MaxDate))
		}
	}
	if len(v.KnownTypes) > 0 && r.Type != "" && !slices.Contains(v.KnownTypes, r.Type) {
		findings = append(findings, Finding{
			Kind: KindData, Severity: SeverityError, Code: CodeUnknownType,
			EntityID: r.ID, Value: r.Type,
			Message: fmt.Sprintf("record %q has unknown type %q", r.ID, r.Type),
		})
	}
	return findings
}

func (v InputValidator) dateFinding(r Record, rel string, bound time.Time) Finding {
	return Finding{
		Kind: KindData, Severity: SeverityError, Code: CodeDateOutOfRange,
		EntityID: r.ID,
		Message: fmt.Sprintf("record %q is dated %s, %s the configured bound %s",
			r.ID, r.Date.Format("2006-01-02"), rel, bound.Format("2006-01-02")),
	}
}
