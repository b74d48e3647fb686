// Package output writes coverage reports in the configured format.
package output

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/panbanda/couette/internal/comment"
	"github.com/panbanda/couette/internal/output"
	"github.com/panbanda/couette/pkg/analyzer/coverage"
	"github.com/panbanda/couette/pkg/analyzer/delta"
	"github.com/panbanda/couette/pkg/models"
)

// Format represents output format.
type Format = output.Format

// Supported formats (re-exported for convenience).
const (
	FormatText     = output.FormatText
	FormatJSON     = output.FormatJSON
	FormatMarkdown = output.FormatMarkdown
	FormatTOON     = output.FormatTOON
)

// Service handles output formatting.
type Service struct {
	format   Format
	writer   io.Writer
	colored  bool
	marker   string
	filePath string
	file     *os.File
}

// Option configures a Service.
type Option func(*Service)

// WithFormat sets the output format.
func WithFormat(f Format) Option {
	return func(s *Service) {
		s.format = f
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(s *Service) {
		s.writer = w
	}
}

// WithColor enables or disables colored output.
func WithColor(enabled bool) Option {
	return func(s *Service) {
		s.colored = enabled
	}
}

// WithFile sets output to a file.
func WithFile(path string) Option {
	return func(s *Service) {
		s.filePath = path
	}
}

// WithMarker sets the heading of markdown reports.
func WithMarker(marker string) Option {
	return func(s *Service) {
		s.marker = marker
	}
}

// New creates a new output service. Reports default to markdown on stdout.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		format:  FormatMarkdown,
		writer:  os.Stdout,
		colored: true,
		marker:  comment.DefaultMarker,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.filePath != "" {
		f, err := os.Create(s.filePath)
		if err != nil {
			return nil, err
		}
		s.file = f
		s.writer = f
		s.colored = false
	}

	return s, nil
}

// Close closes the output service and any open files.
func (s *Service) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// Format returns the current format.
func (s *Service) Format() Format {
	return s.format
}

// Writer returns the current writer.
func (s *Service) Writer() io.Writer {
	return s.writer
}

// Colored returns whether output should be colored.
func (s *Service) Colored() bool {
	return s.colored
}

// Formatter returns a formatter bound to the service's writer.
func (s *Service) Formatter() *output.Formatter {
	return output.NewWriterFormatter(s.format, s.writer, s.colored)
}

// WriteReport writes report in the service's format.
func (s *Service) WriteReport(report *delta.Report) error {
	return s.Formatter().Output(NewReportView(report, s.marker))
}

// FormatReport renders report to a string.
func FormatReport(report *delta.Report, format Format, marker string) (string, error) {
	var buf bytes.Buffer
	f := output.NewWriterFormatter(format, &buf, false)
	if err := f.Output(NewReportView(report, marker)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) Format {
	return output.ParseFormat(s)
}

// ReportView adapts a report to the formatter: markdown is the comment
// body, text is a set of tables, JSON and TOON carry the report itself.
type ReportView struct {
	report *delta.Report
	marker string
}

// NewReportView wraps report. An empty marker uses the default heading.
func NewReportView(report *delta.Report, marker string) *ReportView {
	return &ReportView{report: report, marker: marker}
}

func (v *ReportView) RenderData() any {
	return v.report
}

func (v *ReportView) RenderMarkdown(w io.Writer) error {
	_, err := fmt.Fprintln(w, comment.Compose(v.report, comment.WithMarker(v.marker)))
	return err
}

func (v *ReportView) RenderText(w io.Writer, colored bool) error {
	return v.textReport(colored).RenderText(w, colored)
}

// textReport lays out the text view: the missing-baseline notice, the
// tables of whichever mode ran, and a distribution summary line.
func (v *ReportView) textReport(colored bool) *output.Report {
	r := v.report
	doc := &output.Report{Data: r}
	if r.BaselineMissing {
		doc.Add(&output.Section{Content: comment.MissingBaselineNotice, Severity: models.SeverityAmber})
	}

	if c := r.Comparison; c != nil {
		doc.Add(
			output.FromModel("Coverage", c.Aggregate, nil),
			output.FromModel("Regressions", c.Regressions, nil),
			output.FromModel("New files", c.Added, nil),
			output.FromModel("Components", c.Healthy, nil),
		)
	} else if s := r.Single; s != nil {
		doc.Add(
			output.FromModel("Coverage", s.Aggregate, nil),
			output.FromModel("Files", s.Files, nil),
		)
	}

	if st := r.Stats; st.Files > 0 {
		mean := coverage.FormatPercent(st.Mean)
		if colored {
			mean = output.SeverityColor(coverage.SeverityOf(st.Mean), mean)
		}
		doc.Add(&output.Section{Content: fmt.Sprintf("%d files, mean %s, median %s, min %s, max %s",
			st.Files, mean,
			coverage.FormatPercent(st.Median),
			coverage.FormatPercent(st.Min),
			coverage.FormatPercent(st.Max))})
	}
	return doc
}
