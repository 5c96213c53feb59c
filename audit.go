package veritas

import (
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
)

// AuditEntry records why one record produced the postings it did: the
// rules evaluated (in deep mode), the rules applied, and the posting ids
// that came out. Entries are append-only; corrections never rewrite
// history, they append notes.
type AuditEntry struct {
	RecordID  string        `json:"record_id"`
	Record    Record        `json:"record"`
	Timestamp time.Time     `json:"timestamp"`
	Evaluated []RuleOutcome `json:"evaluated,omitempty"` // deep mode only
	Matched   []string      `json:"matched,omitempty"`   // rule ids, application order
	PostingIDs []string     `json:"posting_ids,omitempty"`
	NoMatch   bool          `json:"no_match,omitempty"`
}

// AuditNote documents a correction or review decision taken after a run.
type AuditNote struct {
	RecordID  string    `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"` // e.g. fix-approved, fix-rejected, correction
	Detail    string    `json:"detail"`
}

// AuditTrail is the append-only provenance log of one processing run.
// The run id distinguishes runs; everything else about the trail is
// deterministic for identical input.
type AuditTrail struct {
	RunID   string    `json:"run_id"`
	Started time.Time `json:"started"`
	Deep    bool      `json:"deep"`

	entries []AuditEntry
	notes   []AuditNote
	byID    map[string]int // record id → entry index
}

// NewAuditTrail starts an empty trail for a new run.
func NewAuditTrail(deep bool) *AuditTrail {
	return &AuditTrail{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Deep:    deep,
		byID:    make(map[string]int),
	}
}

// Record appends the provenance of one processed record. In deep mode
// the full per-rule evaluation outcomes are kept; otherwise only the
// applied rules and resulting posting ids.
func (a *AuditTrail) Record(res MatchResult, postings []Posting) {
	e := AuditEntry{
		RecordID:  res.Record.ID,
		Record:    res.Record,
		Timestamp: time.Now(),
		Matched:   res.Applied,
		NoMatch:   len(res.Applied) == 0,
	}
	if a.Deep {
		e.Evaluated = res.Outcomes
	}
	for _, p := range postings {
		e.PostingIDs = append(e.PostingIDs, p.ID)
	}
	a.byID[e.RecordID] = len(a.entries)
	a.entries = append(a.entries, e)
}

// Note appends a correction or review note. Notes never modify entries.
func (a *AuditTrail) Note(recordID, action, detail string) {
	a.notes = append(a.notes, AuditNote{
		RecordID:  recordID,
		Timestamp: time.Now(),
		Action:    action,
		Detail:    detail,
	})
}

// Len returns the number of entries.
func (a *AuditTrail) Len() int { return len(a.entries) }

// Entry returns the audit entry for a record id.
func (a *AuditTrail) Entry(recordID string) (AuditEntry, error) {
	i, ok := a.byID[recordID]
	if !ok {
		return AuditEntry{}, fmt.Errorf("no audit entry for record %q", recordID)
	}
	return a.entries[i], nil
}

// Entries iterates over entries in append order.
func (a *AuditTrail) Entries() iter.Seq[AuditEntry] {
	return func(yield func(AuditEntry) bool) {
		for _, e := range a.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Notes iterates over notes in append order.
func (a *AuditTrail) Notes() iter.Seq[AuditNote] {
	return func(yield func(AuditNote) bool) {
		for _, n := range a.notes {
			if !yield(n) {
				return
			}
		}
	}
}

// Trace is the reconstructed path of one record through the pipeline,
// assembled from the trail for reporting.
type Trace struct {
	Entry AuditEntry
	Notes []AuditNote
}

// Trace reconstructs the full record → rules → postings path for one
// record, including any notes appended after the run.
func (a *AuditTrail) Trace(recordID string) (Trace, error) {
	e, err := a.Entry(recordID)
	if err != nil {
		return Trace{}, err
	}
	t := Trace{Entry: e}
	for _, n := range a.notes {
		if n.RecordID == recordID {
			t.Notes = append(t.Notes, n)
		}
	}
	return t, nil
}
