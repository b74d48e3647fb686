// Package delta composes coverage reports from one or two snapshots.
//
// With a single snapshot it lists the aggregate and every file. With a
// baseline it adds a change column and classifies each file as a
// regression, a new file or a healthy one. Rendering is a pure function of
// its inputs.
package delta

import (
	"fmt"
	"strings"

	"github.com/panbanda/couette/pkg/analyzer/coverage"
	"github.com/panbanda/couette/pkg/models"
)

// AddedChange is the change cell shown for files with no baseline.
const AddedChange = "new"

var (
	singleAggregateHeader  = []string{"", "total", "coverage"}
	singleFilesHeader      = []string{"", "module", "coverage"}
	compareAggregateHeader = []string{"", "total", "coverage", "change"}
	compareFilesHeader     = []string{"", "module", "coverage", "change"}

	singleAlign  = []models.Align{models.AlignLeft, models.AlignLeft, models.AlignRight}
	compareAlign = []models.Align{models.AlignLeft, models.AlignLeft, models.AlignRight, models.AlignRight}
)

// Render produces a report for current, comparing against baseline when one
// is available. A nil baseline falls back to single-snapshot rendering and
// sets BaselineMissing.
func Render(current, baseline *models.Snapshot, opts Options) (*Report, error) {
	if baseline == nil {
		single, err := RenderSingle(current, opts)
		if err != nil {
			return nil, err
		}
		return &Report{
			Mode:            ModeSingle,
			BaselineMissing: true,
			Single:          single,
			Stats:           coverage.Distribution(current),
		}, nil
	}

	cmp, err := RenderComparison(current, baseline, opts)
	if err != nil {
		return nil, err
	}
	return &Report{
		Mode:       ModeComparison,
		Comparison: cmp,
		Stats:      coverage.Distribution(current),
	}, nil
}

// RenderSingle lists the aggregate categories and every file of a snapshot
// without any comparison column.
func RenderSingle(snap *models.Snapshot, opts Options) (*SingleResult, error) {
	if err := requireAggregate(snap, "snapshot"); err != nil {
		return nil, err
	}

	res := &SingleResult{
		Aggregate: newTable(singleAggregateHeader, singleAlign),
		Files:     newTable(singleFilesHeader, singleAlign),
	}

	for _, c := range models.Categories {
		pct := coverage.RoundValue(snap.Aggregate.Get(c).Pct)
		sev := coverage.SeverityOf(pct)
		res.Totals = append(res.Totals, models.CategoryRow{
			Category: c,
			Percent:  pct,
			Severity: sev,
		})
		res.Aggregate.Rows = append(res.Aggregate.Rows, []string{
			sev.Icon(),
			string(c),
			coverage.FormatPercent(pct),
		})
	}

	for _, f := range snap.Files {
		pct := coverage.RoundPercent(coverage.CombinedPercent(f.Coverage))
		row := models.ComparisonRow{
			Path:     NormalizePath(f.Path, opts.RepositoryRoot),
			Percent:  pct,
			Severity: coverage.SeverityOf(pct),
		}
		res.Rows = append(res.Rows, row)
		res.Files.Rows = append(res.Files.Rows, []string{
			row.Severity.Icon(),
			row.Path,
			coverage.FormatPercent(pct),
		})
	}

	return res, nil
}

// RenderComparison compares current against baseline. Files missing from
// the baseline are added; the rest are regressions when their rounded
// combined percent dropped and healthy otherwise. Files only present in the
// baseline are not reported.
func RenderComparison(current, baseline *models.Snapshot, opts Options) (*ComparisonResult, error) {
	if err := requireAggregate(current, "current snapshot"); err != nil {
		return nil, err
	}
	if err := requireAggregate(baseline, "baseline snapshot"); err != nil {
		return nil, err
	}

	res := &ComparisonResult{
		Aggregate:   newTable(compareAggregateHeader, compareAlign),
		Regressions: newTable(compareFilesHeader, compareAlign),
		Added:       newTable(compareFilesHeader, compareAlign),
		Healthy:     newTable(compareFilesHeader, compareAlign),
	}

	for _, c := range models.Categories {
		pct := coverage.RoundValue(current.Aggregate.Get(c).Pct)
		change := coverage.RoundValue(current.Aggregate.Get(c).Pct - baseline.Aggregate.Get(c).Pct)
		sev := coverage.SeverityOf(pct)
		res.Totals = append(res.Totals, models.CategoryRow{
			Category: c,
			Percent:  pct,
			Change:   &change,
			Severity: sev,
		})
		res.Aggregate.Rows = append(res.Aggregate.Rows, []string{
			sev.Icon(),
			string(c),
			coverage.FormatPercent(pct),
			coverage.FormatChange(change),
		})
	}

	for _, f := range current.Files {
		row := classify(f, baseline, opts)
		res.Rows = append(res.Rows, row)

		cells := []string{
			row.Severity.Icon(),
			row.Path,
			coverage.FormatPercent(row.Percent),
			AddedChange,
		}
		if row.Delta != nil {
			cells[3] = coverage.FormatChange(*row.Delta)
		}

		switch row.Classification {
		case models.ClassRegression:
			res.Regressions.Rows = append(res.Regressions.Rows, cells)
		case models.ClassAdded:
			res.Added.Rows = append(res.Added.Rows, cells)
		default:
			res.Healthy.Rows = append(res.Healthy.Rows, cells)
		}
	}

	return res, nil
}

func classify(f models.FileEntry, baseline *models.Snapshot, opts Options) models.ComparisonRow {
	current := coverage.CombinedPercent(f.Coverage)
	pct := coverage.RoundPercent(current)
	row := models.ComparisonRow{
		Path:     NormalizePath(f.Path, opts.RepositoryRoot),
		Percent:  pct,
		Severity: coverage.SeverityOf(pct),
	}

	base, ok := baseline.Lookup(f.Path)
	if !ok {
		row.Classification = models.ClassAdded
		return row
	}

	previous := coverage.CombinedPercent(base)
	basePct := coverage.RoundPercent(previous)
	d := coverage.RoundPercent(current - previous)
	row.BaselinePercent = &basePct
	row.Delta = &d

	if d < 0 {
		row.Classification = models.ClassRegression
	} else {
		row.Classification = models.ClassHealthy
	}
	return row
}

// NormalizePath strips root from the front of path along with the
// separator that follows it. Paths outside root are returned unchanged.
func NormalizePath(path, root string) string {
	if root == "" {
		return path
	}
	root = strings.TrimRight(root, `/\`)
	if root == "" {
		// filesystem root: every absolute path is inside it
		return strings.TrimLeft(path, `/\`)
	}
	if !strings.HasPrefix(path, root) {
		return path
	}
	rest := path[len(root):]
	if rest != "" && rest[0] != '/' && rest[0] != '\\' {
		// root is only a textual prefix of a sibling directory
		return path
	}
	return strings.TrimLeft(rest, `/\`)
}

func requireAggregate(s *models.Snapshot, what string) error {
	if s == nil || s.Aggregate == nil {
		return fmt.Errorf("%w: %s has no %q entry", models.ErrMalformedSnapshot, what, models.TotalKey)
	}
	return nil
}

func newTable(header []string, align []models.Align) models.Table {
	return models.Table{
		Header: header,
		Rows:   [][]string{},
		Align:  align,
	}
}
