package veritas

import "fmt"

// FindingKind categorizes a validation finding by the stage of the
// pipeline that owns its root cause.
type FindingKind int

const (
	// KindData marks malformed, missing or out-of-range record fields.
	KindData FindingKind = iota
	// KindRule marks unparseable conditions, unknown field references and
	// type mismatches inside rule conditions.
	KindRule
	// KindTransformation marks amount-split imbalance, unknown account
	// references and unmatched records.
	KindTransformation
	// KindOutput marks hierarchical sum mismatches and record/posting
	// count mismatches.
	KindOutput
)

func (k FindingKind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindRule:
		return "rule"
	case KindTransformation:
		return "transformation"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Severity ranks findings. Higher is worse.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity parses a severity name.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity: %q", s)
	}
}

// Confidence grades an auto-fix suggestion.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ReviewStatus tracks the human review state of a suggested fix.
// The only legal transitions are pending → approved and pending → rejected.
type ReviewStatus int

const (
	ReviewPending ReviewStatus = iota
	ReviewApproved
	ReviewRejected
)

func (s ReviewStatus) String() string {
	switch s {
	case ReviewPending:
		return "pending"
	case ReviewApproved:
		return "approved"
	case ReviewRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Root-cause codes. The pair (entity id, code) identifies a root cause
// for deduplication across validator stages.
const (
	CodeMissingField     = "missing-field"
	CodeDateOutOfRange   = "date-out-of-range"
	CodeInvalidQuarter   = "invalid-quarter"
	CodeDuplicateRecord  = "duplicate-record"
	CodeUnknownType      = "unknown-type"
	CodeRuleSyntax       = "rule-syntax"
	CodeRuleEval         = "rule-eval"
	CodeDuplicateRule    = "duplicate-rule"
	CodeInvalidRule      = "invalid-rule"
	CodeNoMatch          = "no-match"
	CodeMultipleMatches  = "multiple-matches"
	CodeSumImbalance     = "sum-imbalance"
	CodeUnknownAccount   = "unknown-account"
	CodeMatchMismatch    = "match-mismatch"
	CodeMissingPostings  = "missing-postings"
	CodeRollupMismatch   = "rollup-mismatch"
	CodeCountMismatch    = "count-mismatch"
	CodeQuarterMismatch  = "quarter-mismatch"
	CodeSpotCheckFailed  = "spot-check-failed"
)

// Fix is a suggested correction attached to a Finding. It is never
// applied automatically: application is gated behind the finding's
// review status.
type Fix struct {
	Field      string     `json:"field"`
	Before     string     `json:"before"`
	After      string     `json:"after"`
	Reason     string     `json:"reason"`
	Confidence Confidence `json:"confidence"`
}

// Finding is one structured validation result. Findings always start
// pending; only an explicit external decision moves them to approved or
// rejected.
type Finding struct {
	Kind     FindingKind  `json:"kind"`
	Severity Severity     `json:"severity"`
	Code     string       `json:"code"`
	EntityID string       `json:"entity_id"`
	RuleID   string       `json:"rule_id,omitempty"`
	Message  string       `json:"message"`
	Value    string       `json:"value,omitempty"` // the offending value, when one exists
	Fix      *Fix         `json:"fix,omitempty"`
	Status   ReviewStatus `json:"status"`
}

// Approve transitions the finding from pending to approved.
func (f *Finding) Approve() error {
	if f.Status != ReviewPending {
		return fmt.Errorf("finding %s/%s is %s, only pending findings can be approved", f.EntityID, f.Code, f.Status)
	}
	f.Status = ReviewApproved
	return nil
}

// Reject transitions the finding from pending to rejected.
func (f *Finding) Reject() error {
	if f.Status != ReviewPending {
		return fmt.Errorf("finding %s/%s is %s, only pending findings can be rejected", f.EntityID, f.Code, f.Status)
	}
	f.Status = ReviewRejected
	return nil
}

func (f Finding) String() string {
	rule := ""
	if f.RuleID != "" {
		rule = " rule=" + f.RuleID
	}
	return fmt.Sprintf("[%s/%s] %s%s: %s", f.Severity, f.Kind, f.EntityID, rule, f.Message)
}
