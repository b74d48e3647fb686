package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// TotalKey is the reserved snapshot key holding the aggregate row in the
// coverage tool's summary export.
const TotalKey = "total"

// UnknownPercent is the pct value Istanbul emits for a category with no
// countable units.
const UnknownPercent = "Unknown"

// ErrMalformedSnapshot is returned when a snapshot lacks a required key or
// violates the summary schema.
var ErrMalformedSnapshot = errors.New("malformed coverage snapshot")

// Category is one coverage dimension.
type Category string

const (
	CategoryLines      Category = "lines"
	CategoryStatements Category = "statements"
	CategoryBranches   Category = "branches"
	CategoryFunctions  Category = "functions"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryLines,
	CategoryStatements,
	CategoryBranches,
	CategoryFunctions,
}

// CategoryCount holds the counters one category reports for one file.
type CategoryCount struct {
	Total   int     `json:"total"`
	Covered int     `json:"covered"`
	Skipped int     `json:"skipped"`
	Pct     float64 `json:"pct"`
}

// UnmarshalJSON accepts pct as a number or as "Unknown", which decodes to
// 100 since a category with nothing to cover is vacuously covered.
func (c *CategoryCount) UnmarshalJSON(data []byte) error {
	var raw struct {
		Total   int             `json:"total"`
		Covered int             `json:"covered"`
		Skipped int             `json:"skipped"`
		Pct     json.RawMessage `json:"pct"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Total = raw.Total
	c.Covered = raw.Covered
	c.Skipped = raw.Skipped
	c.Pct = 100

	pct := bytes.TrimSpace(raw.Pct)
	if len(pct) == 0 || bytes.Equal(pct, []byte("null")) {
		return nil
	}
	if pct[0] == '"' {
		var s string
		if err := json.Unmarshal(pct, &s); err != nil {
			return err
		}
		if s != UnknownPercent {
			return fmt.Errorf("invalid pct %q", s)
		}
		return nil
	}
	return json.Unmarshal(pct, &c.Pct)
}

// FileCoverage is the per-category breakdown for one file (or the aggregate).
type FileCoverage struct {
	Lines      CategoryCount `json:"lines"`
	Statements CategoryCount `json:"statements"`
	Branches   CategoryCount `json:"branches"`
	Functions  CategoryCount `json:"functions"`
}

// Get returns the counters for a category. Unknown categories yield a zero
// count.
func (f FileCoverage) Get(c Category) CategoryCount {
	switch c {
	case CategoryLines:
		return f.Lines
	case CategoryStatements:
		return f.Statements
	case CategoryBranches:
		return f.Branches
	case CategoryFunctions:
		return f.Functions
	default:
		return CategoryCount{}
	}
}

// Validate checks the covered <= total invariant for every category.
func (f FileCoverage) Validate() error {
	for _, c := range Categories {
		count := f.Get(c)
		if count.Total < 0 || count.Covered < 0 {
			return fmt.Errorf("%s: negative counter", c)
		}
		if count.Covered > count.Total {
			return fmt.Errorf("%s: covered %d exceeds total %d", c, count.Covered, count.Total)
		}
	}
	return nil
}

// FileEntry pairs a file path with its coverage.
type FileEntry struct {
	Path     string       `json:"path"`
	Coverage FileCoverage `json:"coverage"`
}

// Snapshot is one point-in-time coverage summary: the aggregate row plus
// every file, kept in the order the coverage tool emitted them.
type Snapshot struct {
	Aggregate *FileCoverage
	Files     []FileEntry

	index map[string]int
}

// NewSnapshot builds a snapshot. A path that appears more than once keeps
// its first position and its last coverage value.
func NewSnapshot(aggregate *FileCoverage, files []FileEntry) *Snapshot {
	s := &Snapshot{
		Aggregate: aggregate,
		Files:     make([]FileEntry, 0, len(files)),
		index:     make(map[string]int, len(files)),
	}
	for _, f := range files {
		if i, ok := s.index[f.Path]; ok {
			s.Files[i].Coverage = f.Coverage
			continue
		}
		s.index[f.Path] = len(s.Files)
		s.Files = append(s.Files, f)
	}
	return s
}

// Lookup returns the coverage recorded for path.
func (s *Snapshot) Lookup(path string) (FileCoverage, bool) {
	if s == nil {
		return FileCoverage{}, false
	}
	if s.index == nil {
		for _, f := range s.Files {
			if f.Path == path {
				return f.Coverage, true
			}
		}
		return FileCoverage{}, false
	}
	i, ok := s.index[path]
	if !ok {
		return FileCoverage{}, false
	}
	return s.Files[i].Coverage, true
}

// Len returns the number of files, excluding the aggregate.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Files)
}

// MarshalJSON writes the snapshot back in the summary export shape, with
// the aggregate under "total" followed by files in order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, fc FileCoverage) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(fc)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if s.Aggregate != nil {
		if err := write(TotalKey, *s.Aggregate); err != nil {
			return nil, err
		}
	}
	for _, f := range s.Files {
		if err := write(f.Path, f.Coverage); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Severity is the traffic-light band a percentage falls into.
type Severity string

const (
	SeverityRed   Severity = "red"
	SeverityAmber Severity = "amber"
	SeverityGreen Severity = "green"
)

// Icon returns the emoji shown in report tables.
func (s Severity) Icon() string {
	switch s {
	case SeverityRed:
		return "🔴"
	case SeverityAmber:
		return "🟠"
	default:
		return "🟢"
	}
}

// Classification is the bucket a file lands in when compared to a baseline.
type Classification string

const (
	ClassRegression Classification = "regression"
	ClassAdded      Classification = "added"
	ClassHealthy    Classification = "healthy"
)

// ComparisonRow is one file's line in a coverage report. BaselinePercent
// and Delta are nil when the file has no baseline counterpart.
type ComparisonRow struct {
	Path            string         `json:"path"`
	Percent         float64        `json:"percent"`
	BaselinePercent *float64       `json:"baseline_percent,omitempty"`
	Delta           *float64       `json:"delta,omitempty"`
	Severity        Severity       `json:"severity"`
	Classification  Classification `json:"classification,omitempty"`
}

// CategoryRow is one line of the aggregate table.
type CategoryRow struct {
	Category Category `json:"category"`
	Percent  float64  `json:"percent"`
	Change   *float64 `json:"change,omitempty"`
	Severity Severity `json:"severity"`
}

// Align is the horizontal alignment of a table column.
type Align string

const (
	AlignLeft  Align = "left"
	AlignRight Align = "right"
)

// Table is a rendered table: a header, string rows and one alignment per
// column.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Align  []Align    `json:"align"`
}
