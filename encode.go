package veritas

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DecodeRecords reads records from a JSONL stream, one record per line.
// Empty lines are skipped. Decoding is strict on JSON shape but not on
// content: content problems are the input validator's job.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var records []Record
	if err := decodeLines(r, func(line []byte, n int) error {
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("record on line %d: %w", n, err)
		}
		records = append(records, rec)
		return nil
	}); err != nil {
		return nil, err
	}
	return records, nil
}

// DecodeRules reads mapping rules from a JSONL stream. Compilation and
// structural checks happen in NewRuleSet, not here.
func DecodeRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	if err := decodeLines(r, func(line []byte, n int) error {
		var rule Rule
		if err := json.Unmarshal(line, &rule); err != nil {
			return fmt.Errorf("rule on line %d: %w", n, err)
		}
		rules = append(rules, rule)
		return nil
	}); err != nil {
		return nil, err
	}
	return rules, nil
}

// DecodeHierarchy reads account definitions from a JSONL stream and
// builds the validated hierarchy.
func DecodeHierarchy(r io.Reader) (*Hierarchy, error) {
	var accounts []Account
	if err := decodeLines(r, func(line []byte, n int) error {
		var a Account
		if err := json.Unmarshal(line, &a); err != nil {
			return fmt.Errorf("account on line %d: %w", n, err)
		}
		accounts = append(accounts, a)
		return nil
	}); err != nil {
		return nil, err
	}
	return NewHierarchy(accounts)
}

func decodeLines(r io.Reader, fn func(line []byte, n int) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line, n); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// EncodePostings writes postings as JSONL, one per line, in slice order.
func EncodePostings(w io.Writer, postings []Posting) error {
	return encodeLines(w, len(postings), func(i int) any { return postings[i] })
}

// EncodeFindings writes findings as JSONL in slice order.
func EncodeFindings(w io.Writer, findings []Finding) error {
	return encodeLines(w, len(findings), func(i int) any { return findings[i] })
}

// totalLine is the JSONL shape of one aggregated total.
type totalLine struct {
	Account string          `json:"account"`
	Period  string          `json:"period"`
	Total   decimal.Decimal `json:"total"`
	Direct  decimal.Decimal `json:"direct"`
	Count   int             `json:"count"`
}

// EncodeTotals writes the aggregated totals as JSONL, sorted by period
// then account so identical input yields byte-identical output.
func EncodeTotals(w io.Writer, t *Totals) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for k := range t.Keys() {
		line := totalLine{
			Account: k.Account,
			Period:  k.Period.String(),
			Total:   t.Total(k.Account, k.Period),
			Direct:  t.Direct(k.Account, k.Period),
			Count:   t.Count(k.Account, k.Period),
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// auditHeader is the first JSONL line of an exported trail.
type auditHeader struct {
	RunID   string `json:"run_id"`
	Started string `json:"started"`
	Deep    bool   `json:"deep"`
}

// EncodeAudit writes the audit trail as JSONL: one header line, then
// entries in append order, then notes in append order.
func EncodeAudit(w io.Writer, a *AuditTrail) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	if err := enc.Encode(auditHeader{RunID: a.RunID, Started: a.Started.Format("2006-01-02T15:04:05Z07:00"), Deep: a.Deep}); err != nil {
		return err
	}
	for e := range a.Entries() {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	for n := range a.Notes() {
		if err := enc.Encode(n); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeLines(w io.Writer, n int, at func(int) any) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range n {
		if err := enc.Encode(at(i)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
