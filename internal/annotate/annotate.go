// Package annotate turns coverage findings into CI annotations.
package annotate

import (
	"fmt"
	"io"
	"strings"

	"github.com/panbanda/couette/pkg/analyzer/coverage"
	"github.com/panbanda/couette/pkg/analyzer/delta"
	"github.com/panbanda/couette/pkg/models"
)

// Level is the annotation severity understood by the CI runner.
type Level string

const (
	LevelNotice  Level = "notice"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Annotation is a message attached to a file.
type Annotation struct {
	Level   Level  `json:"level"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// FromReport annotates every regression, and every new file whose coverage
// is below threshold. Single-mode reports have nothing to annotate.
func FromReport(report *delta.Report, threshold float64) []Annotation {
	if report == nil || report.Mode != delta.ModeComparison {
		return nil
	}

	var out []Annotation
	for _, row := range report.Rows() {
		switch row.Classification {
		case models.ClassRegression:
			if row.Delta == nil {
				continue
			}
			out = append(out, Annotation{
				Level: LevelWarning,
				File:  row.Path,
				Line:  1,
				Title: "Coverage regression",
				Message: fmt.Sprintf("Coverage decreased by %s to %s",
					coverage.FormatPercent(-*row.Delta), coverage.FormatPercent(row.Percent)),
			})
		case models.ClassAdded:
			if row.Percent >= threshold {
				continue
			}
			out = append(out, Annotation{
				Level: LevelNotice,
				File:  row.Path,
				Line:  1,
				Title: "Low coverage on new file",
				Message: fmt.Sprintf("New file has %s coverage, below %s",
					coverage.FormatPercent(row.Percent), coverage.FormatPercent(threshold)),
			})
		}
	}
	return out
}

// WriteWorkflowCommands writes one workflow command per annotation.
func WriteWorkflowCommands(w io.Writer, annotations []Annotation) error {
	for _, a := range annotations {
		if _, err := fmt.Fprintln(w, a.Command()); err != nil {
			return err
		}
	}
	return nil
}

// Command formats a as a workflow command line.
func (a Annotation) Command() string {
	var props []string
	if a.File != "" {
		props = append(props, "file="+escapeProperty(a.File))
	}
	if a.Line > 0 {
		props = append(props, fmt.Sprintf("line=%d", a.Line))
	}
	if a.Title != "" {
		props = append(props, "title="+escapeProperty(a.Title))
	}

	level := a.Level
	if level == "" {
		level = LevelNotice
	}

	var b strings.Builder
	b.WriteString("::")
	b.WriteString(string(level))
	if len(props) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(props, ","))
	}
	b.WriteString("::")
	b.WriteString(escapeData(a.Message))
	return b.String()
}

var (
	dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string     { return dataEscaper.Replace(s) }
func escapeProperty(s string) string { return propEscaper.Replace(s) }
