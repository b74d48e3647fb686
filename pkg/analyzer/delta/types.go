package delta

import (
	"github.com/panbanda/couette/pkg/analyzer/coverage"
	"github.com/panbanda/couette/pkg/models"
)

// Mode tells which rendering path produced a report.
type Mode string

const (
	ModeSingle     Mode = "single"
	ModeComparison Mode = "comparison"
)

func (m Mode) String() string { return string(m) }

// Options configures rendering.
type Options struct {
	// RepositoryRoot is stripped from the front of file paths so tables show
	// repository-relative paths. Empty disables stripping.
	RepositoryRoot string
}

// SingleResult is the output of single-snapshot rendering.
type SingleResult struct {
	Aggregate models.Table           `json:"aggregate"`
	Files     models.Table           `json:"files"`
	Totals    []models.CategoryRow   `json:"totals"`
	Rows      []models.ComparisonRow `json:"rows"`
}

// ComparisonResult is the output of comparing a snapshot to a baseline.
// Every file of the current snapshot appears in exactly one of Regressions,
// Added or Healthy.
type ComparisonResult struct {
	Aggregate   models.Table           `json:"aggregate"`
	Regressions models.Table           `json:"regressions"`
	Added       models.Table           `json:"added"`
	Healthy     models.Table           `json:"healthy"`
	Totals      []models.CategoryRow   `json:"totals"`
	Rows        []models.ComparisonRow `json:"rows"`
}

// Report is the mode-independent result handed to formatters. Exactly one
// of Single and Comparison is set.
type Report struct {
	Mode            Mode              `json:"mode"`
	BaselineMissing bool              `json:"baseline_missing"`
	Single          *SingleResult     `json:"single,omitempty"`
	Comparison      *ComparisonResult `json:"comparison,omitempty"`
	Stats           coverage.Stats    `json:"stats"`
}

// Totals returns the aggregate rows of whichever mode produced the report.
func (r *Report) Totals() []models.CategoryRow {
	if r.Comparison != nil {
		return r.Comparison.Totals
	}
	if r.Single != nil {
		return r.Single.Totals
	}
	return nil
}

// Rows returns the per-file rows of whichever mode produced the report.
func (r *Report) Rows() []models.ComparisonRow {
	if r.Comparison != nil {
		return r.Comparison.Rows
	}
	if r.Single != nil {
		return r.Single.Rows
	}
	return nil
}

// Filter returns the rows with the given classification, in snapshot order.
func (r *Report) Filter(class models.Classification) []models.ComparisonRow {
	var out []models.ComparisonRow
	for _, row := range r.Rows() {
		if row.Classification == class {
			out = append(out, row)
		}
	}
	return out
}
