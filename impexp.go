package veritas

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// ImportMapping describes how to pull records out of a foreign JSON
// document using jsonpath expressions. Rows selects the list of source
// objects; the field paths are evaluated relative to each row.
type ImportMapping struct {
	Rows        string `json:"rows"`
	ID          string `json:"id"`
	Date        string `json:"date"`
	DateFormat  string `json:"date_format,omitempty"` // defaults to 2006-01-02
	Description string `json:"description"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Year        string `json:"year,omitempty"`    // derived from the date when empty
	Quarter     string `json:"quarter,omitempty"` // derived from the date when empty
}

// ImportRecords extracts records from a foreign JSON export using the
// mapping. Rows that fail extraction are returned as data findings, not
// errors: a single bad row never aborts the import.
func ImportRecords(r io.Reader, m ImportMapping) ([]Record, []Finding, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("import: invalid JSON: %w", err)
	}
	jrows, err := jsonpath.Get(m.Rows, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("import: rows path %q: %w", m.Rows, err)
	}
	rows, ok := jrows.([]any)
	if !ok {
		// A path selecting a single object still imports as one row.
		rows = []any{jrows}
	}

	var records []Record
	var findings []Finding
	for i, row := range rows {
		rec, err := m.extract(row)
		if err != nil {
			findings = append(findings, Finding{
				Kind: KindData, Severity: SeverityError, Code: CodeMissingField,
				EntityID: fmt.Sprintf("row-%d", i),
				Message:  fmt.Sprintf("import row %d: %v", i, err),
			})
			continue
		}
		records = append(records, rec)
	}
	return records, findings, nil
}

func (m ImportMapping) extract(row any) (Record, error) {
	var rec Record
	var err error

	if rec.ID, err = pathString(m.ID, row); err != nil {
		return rec, fmt.Errorf("id: %w", err)
	}
	if rec.Description, err = pathString(m.Description, row); err != nil {
		return rec, fmt.Errorf("description: %w", err)
	}
	if rec.Type, err = pathString(m.Type, row); err != nil {
		return rec, fmt.Errorf("type: %w", err)
	}
	if rec.Amount, err = pathDecimal(m.Amount, row); err != nil {
		return rec, fmt.Errorf("amount: %w", err)
	}

	format := m.DateFormat
	if format == "" {
		format = "2006-01-02"
	}
	dateStr, err := pathString(m.Date, row)
	if err != nil {
		return rec, fmt.Errorf("date: %w", err)
	}
	if rec.Date, err = time.Parse(format, dateStr); err != nil {
		return rec, fmt.Errorf("date: %w", err)
	}

	rec.Year = rec.Date.Year()
	if m.Year != "" {
		n, err := pathInt(m.Year, row)
		if err != nil {
			return rec, fmt.Errorf("year: %w", err)
		}
		rec.Year = n
	}
	if m.Quarter != "" {
		n, err := pathInt(m.Quarter, row)
		if err != nil {
			return rec, fmt.Errorf("quarter: %w", err)
		}
		rec.Quarter = n
	}
	return rec, nil
}

// unwrap keeps the first element when jsonpath returns a list of one,
// which it does for some path shapes.
func unwrap(v any) any {
	if list, ok := v.([]any); ok && len(list) > 0 {
		return list[0]
	}
	return v
}

func pathValue(path string, row any) (any, error) {
	v, err := jsonpath.Get(path, row)
	if err != nil {
		return nil, fmt.Errorf("path %q: %w", path, err)
	}
	return unwrap(v), nil
}

func pathString(path string, row any) (string, error) {
	v, err := pathValue(path, row)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("path %q: not a string: %v", path, v)
	}
}

func pathDecimal(path string, row any) (decimal.Decimal, error) {
	v, err := pathValue(path, row)
	if err != nil {
		return decimal.Zero, err
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		// Exports sometimes quote numbers and use comma decimals.
		n = strings.ReplaceAll(strings.TrimSpace(n), ",", ".")
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, fmt.Errorf("path %q: invalid amount %q", path, n)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("path %q: not a number: %v", path, v)
	}
}

func pathInt(path string, row any) (int, error) {
	v, err := pathValue(path, row)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("path %q: invalid integer %q", path, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("path %q: not an integer: %v", path, v)
	}
}
