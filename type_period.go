package veritas

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period identifies a reporting period: a year, optionally narrowed to a
// quarter. The zero Quarter means the whole year.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter,omitempty"`
}

// IsQuarterly reports whether the period is a single quarter.
func (p Period) IsQuarterly() bool { return p.Quarter != 0 }

// YearPeriod returns the whole-year period containing p.
func (p Period) YearPeriod() Period { return Period{Year: p.Year} }

func (p Period) String() string {
	if p.Quarter == 0 {
		return strconv.Itoa(p.Year)
	}
	return fmt.Sprintf("%dQ%d", p.Year, p.Quarter)
}

// ParsePeriod parses "2024" or "2024Q3".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	year, quarter, found := strings.Cut(strings.ToUpper(s), "Q")
	y, err := strconv.Atoi(year)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	if !found {
		return Period{Year: y}, nil
	}
	q, err := strconv.Atoi(quarter)
	if err != nil || q < 1 || q > 4 {
		return Period{}, fmt.Errorf("invalid quarter in period %q", s)
	}
	return Period{Year: y, Quarter: q}, nil
}

// QuarterOf returns the calendar quarter (1..4) containing t.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// comparePeriods orders periods by year, then whole-year before
// quarters, then by quarter.
func comparePeriods(a, b Period) int {
	if a.Year != b.Year {
		return a.Year - b.Year
	}
	return a.Quarter - b.Quarter
}
