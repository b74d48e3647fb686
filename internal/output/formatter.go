package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/panbanda/couette/pkg/models"
	toon "github.com/toon-format/toon-go"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	default:
		return FormatText
	}
}

// Renderable defines data that can render itself in multiple formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the underlying data for JSON and TOON serialization.
	RenderData() any
}

// Formatter handles output formatting.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a new formatter writing to stdout, or to output when
// it is set. Color is always off for file output.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	var writer io.Writer = os.Stdout
	var file *os.File

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return nil, err
		}
		writer = f
		file = f
		colored = false
	}

	return &Formatter{
		format:  format,
		writer:  writer,
		file:    file,
		colored: colored,
	}, nil
}

// NewWriterFormatter creates a formatter around an existing writer.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the formatter's writer if it's a file.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Colored returns whether colored output is enabled.
func (f *Formatter) Colored() bool {
	return f.colored
}

// Output writes data in the configured format.
func (f *Formatter) Output(data any) error {
	if r, ok := data.(Renderable); ok {
		return f.render(r)
	}
	return f.outputRaw(data)
}

func (f *Formatter) render(r Renderable) error {
	switch f.format {
	case FormatJSON:
		return f.outputJSON(r.RenderData())
	case FormatTOON:
		return f.outputTOON(r.RenderData())
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	default:
		return r.RenderText(f.writer, f.colored)
	}
}

func (f *Formatter) outputRaw(data any) error {
	switch f.format {
	case FormatTOON:
		return f.outputTOON(data)
	case FormatMarkdown:
		fmt.Fprintln(f.writer, "```json")
		if err := f.outputJSON(data); err != nil {
			return err
		}
		fmt.Fprintln(f.writer, "```")
		return nil
	default:
		return f.outputJSON(data)
	}
}

func (f *Formatter) outputJSON(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (f *Formatter) outputTOON(data any) error {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return err
	}
	if _, err := f.writer.Write(out); err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.writer)
	return err
}

// Table is a Renderable table with headers, rows, per-column alignment and
// an optional footer.
type Table struct {
	Title   string         `json:"-"`
	Headers []string       `json:"-"`
	Rows    [][]string     `json:"-"`
	Align   []models.Align `json:"-"`
	Footer  []string       `json:"-"`
	Data    any            `json:"data,omitempty"`
}

// NewTable creates a table that wraps structured data for serialization.
func NewTable(title string, headers []string, rows [][]string, footer []string, data any) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Rows:    rows,
		Footer:  footer,
		Data:    data,
	}
}

// FromModel wraps a rendered report table.
func FromModel(title string, t models.Table, data any) *Table {
	return &Table{
		Title:   title,
		Headers: t.Header,
		Rows:    t.Rows,
		Align:   t.Align,
		Data:    data,
	}
}

func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	result := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string)
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		result[i] = m
	}
	return result
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		if colored {
			color.New(color.Bold).Fprintln(w, t.Title)
		} else {
			fmt.Fprintln(w, t.Title)
		}
		fmt.Fprintln(w, strings.Repeat("=", len(t.Title)))
		fmt.Fprintln(w)
	}

	rowAlign := tw.CellAlignment{Global: tw.AlignLeft}
	if len(t.Align) > 0 {
		rowAlign.PerColumn = textAlign(t.Align)
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: rowAlign,
			},
			Footer: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)

	table.Header(t.Headers)
	for _, row := range t.Rows {
		table.Append(row)
	}
	if len(t.Footer) > 0 {
		footerArgs := make([]any, len(t.Footer))
		for i, f := range t.Footer {
			footerArgs[i] = f
		}
		table.Footer(footerArgs...)
	}
	return table.Render()
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}

	model := models.Table{Header: t.Headers, Rows: t.Rows, Align: t.Align}
	if len(t.Footer) > 0 {
		model.Rows = append(append([][]string{}, t.Rows...), t.Footer)
	}
	fmt.Fprintln(w, MarkdownTable(model))
	fmt.Fprintln(w)
	return nil
}

func textAlign(align []models.Align) []tw.Align {
	out := make([]tw.Align, len(align))
	for i, a := range align {
		if a == models.AlignRight {
			out[i] = tw.AlignRight
		} else {
			out[i] = tw.AlignLeft
		}
	}
	return out
}

// MarkdownTable serializes a table as GitHub-flavored markdown. Columns
// without an alignment get a plain delimiter. The result has no trailing
// newline.
func MarkdownTable(t models.Table) string {
	var b strings.Builder

	writeRow := func(cells []string) {
		escaped := make([]string, len(t.Header))
		for i := range escaped {
			if i < len(cells) {
				escaped[i] = strings.ReplaceAll(cells[i], "|", `\|`)
			}
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(escaped, " | "))
		b.WriteString(" |")
	}

	writeRow(t.Header)
	b.WriteByte('\n')

	seps := make([]string, len(t.Header))
	for i := range seps {
		var a models.Align
		if i < len(t.Align) {
			a = t.Align[i]
		}
		switch a {
		case models.AlignLeft:
			seps[i] = ":--"
		case models.AlignRight:
			seps[i] = "--:"
		default:
			seps[i] = "---"
		}
	}
	b.WriteString("| ")
	b.WriteString(strings.Join(seps, " | "))
	b.WriteString(" |")

	for _, row := range t.Rows {
		b.WriteByte('\n')
		writeRow(row)
	}
	return b.String()
}

// Section is a short block of prose in a report: a notice, a summary line.
// Severity, when set, tints the content in colored text output.
type Section struct {
	Title    string          `json:"title,omitempty"`
	Content  string          `json:"content"`
	Severity models.Severity `json:"severity,omitempty"`
}

func (s *Section) RenderData() any {
	return s
}

func (s *Section) RenderText(w io.Writer, colored bool) error {
	if s.Title != "" {
		if colored {
			color.New(color.Bold).Fprintln(w, s.Title)
		} else {
			fmt.Fprintln(w, s.Title)
		}
		fmt.Fprintln(w, strings.Repeat("-", len(s.Title)))
	}
	content := s.Content
	if colored && s.Severity != "" {
		content = SeverityColor(s.Severity, content)
	}
	_, err := fmt.Fprintln(w, content)
	return err
}

func (s *Section) RenderMarkdown(w io.Writer) error {
	if s.Title != "" {
		fmt.Fprintf(w, "### %s\n", s.Title)
	}
	_, err := fmt.Fprintln(w, s.Content)
	return err
}

// Report stacks sections and tables, separated by blank lines. Data, when
// set, replaces the sections in JSON and TOON output.
type Report struct {
	Sections []Renderable `json:"-"`
	Data     any          `json:"data,omitempty"`
}

// Add appends sections and returns r.
func (r *Report) Add(sections ...Renderable) *Report {
	r.Sections = append(r.Sections, sections...)
	return r
}

func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	parts := make([]any, len(r.Sections))
	for i, s := range r.Sections {
		parts[i] = s.RenderData()
	}
	return parts
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	return r.render(w, func(s Renderable) error { return s.RenderText(w, colored) })
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	return r.render(w, func(s Renderable) error { return s.RenderMarkdown(w) })
}

func (r *Report) render(w io.Writer, each func(Renderable) error) error {
	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := each(s); err != nil {
			return err
		}
	}
	return nil
}

// Message helpers for colored output

func (f *Formatter) Success(format string, args ...any) {
	if f.colored {
		color.New(color.FgGreen).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, format+"\n", args...)
	}
}

func (f *Formatter) Warning(format string, args ...any) {
	if f.colored {
		color.New(color.FgYellow).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, "WARNING: "+format+"\n", args...)
	}
}

func (f *Formatter) Error(format string, args ...any) {
	if f.colored {
		color.New(color.FgRed).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, "ERROR: "+format+"\n", args...)
	}
}

func (f *Formatter) Info(format string, args ...any) {
	if f.colored {
		color.New(color.FgCyan).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, format+"\n", args...)
	}
}

// SeverityColor colors text by coverage band.
func SeverityColor(severity models.Severity, text string) string {
	switch severity {
	case models.SeverityRed:
		return color.RedString(text)
	case models.SeverityAmber:
		return color.YellowString(text)
	case models.SeverityGreen:
		return color.GreenString(text)
	default:
		return text
	}
}
