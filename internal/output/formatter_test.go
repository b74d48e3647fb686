package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/couette/pkg/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"MARKDOWN", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFormat(tt.input)
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		colored bool
	}{
		{"text_stdout_colored", FormatText, true},
		{"json_stdout_nocolor", FormatJSON, false},
		{"markdown_stdout_colored", FormatMarkdown, true},
		{"toon_stdout_nocolor", FormatTOON, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.format, "", tt.colored)
			if err != nil {
				t.Fatalf("NewFormatter() error: %v", err)
			}
			defer f.Close()

			if f.Format() != tt.format {
				t.Errorf("Format() = %q, want %q", f.Format(), tt.format)
			}
			if f.Colored() != tt.colored {
				t.Errorf("Colored() = %v, want %v", f.Colored(), tt.colored)
			}
			if f.file != nil {
				t.Error("file should be nil for stdout")
			}
			if f.Writer() == nil {
				t.Error("Writer() should not be nil")
			}
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.md")

	f, err := NewFormatter(FormatMarkdown, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.file == nil {
		t.Error("file should not be nil for file output")
	}
	if f.Colored() {
		t.Error("colored should be false when writing to file")
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		t.Error("output file should exist")
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/directory/file.txt", false)
	if err == nil {
		t.Error("NewFormatter() should error for invalid path")
	}
}

func sampleTable() models.Table {
	return models.Table{
		Header: []string{"", "module", "coverage", "change"},
		Rows: [][]string{
			{"🔴", "src/a.ts", "60%", "-20%"},
			{"🟢", "src/c.ts", "100%", "0%"},
		},
		Align: []models.Align{models.AlignLeft, models.AlignLeft, models.AlignRight, models.AlignRight},
	}
}

func TestMarkdownTable(t *testing.T) {
	got := MarkdownTable(sampleTable())
	want := "| " + " | module | coverage | change |\n" +
		"| :-- | :-- | --: | --: |\n" +
		"| 🔴 | src/a.ts | 60% | -20% |\n" +
		"| 🟢 | src/c.ts | 100% | 0% |"

	if got != want {
		t.Errorf("MarkdownTable() =\n%s\nwant\n%s", got, want)
	}
}

func TestMarkdownTableEmptyRows(t *testing.T) {
	table := sampleTable()
	table.Rows = nil

	got := MarkdownTable(table)
	if strings.Count(got, "\n") != 1 {
		t.Errorf("header-only table should have two lines, got %q", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("MarkdownTable() should not end with a newline")
	}
}

func TestMarkdownTableEscapesPipes(t *testing.T) {
	table := models.Table{
		Header: []string{"module"},
		Rows:   [][]string{{"src/a|b.ts"}},
	}
	got := MarkdownTable(table)
	if !strings.Contains(got, `src/a\|b.ts`) {
		t.Errorf("pipe should be escaped, got %q", got)
	}
	if !strings.Contains(got, "| --- |") {
		t.Errorf("unaligned column should use a plain delimiter, got %q", got)
	}
}

func TestMarkdownTableShortRow(t *testing.T) {
	table := models.Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1"}},
	}
	got := MarkdownTable(table)
	if !strings.HasSuffix(got, "| 1 |  |") {
		t.Errorf("short row should be padded, got %q", got)
	}
}

func TestTableRenderText(t *testing.T) {
	table := FromModel("Files", sampleTable(), nil)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Files", "=====", "MODULE", "COVERAGE", "src/a.ts", "-20%"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got:\n%s", want, output)
		}
	}
}

func TestTableRenderTextWithFooter(t *testing.T) {
	table := NewTable("", []string{"Name", "Value"}, [][]string{{"a", "1"}}, []string{"Total", "1"}, nil)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if !strings.Contains(buf.String(), "Total") {
		t.Errorf("output should contain footer, got:\n%s", buf.String())
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := FromModel("Regressions", sampleTable(), nil)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	output := buf.String()
	if !strings.HasPrefix(output, "## Regressions\n\n") {
		t.Errorf("markdown should start with title, got:\n%s", output)
	}
	if !strings.Contains(output, "| :-- | :-- | --: | --: |") {
		t.Errorf("markdown should carry alignment row, got:\n%s", output)
	}
}

func TestTableRenderData(t *testing.T) {
	t.Run("explicit data", func(t *testing.T) {
		data := map[string]int{"files": 2}
		table := NewTable("", nil, nil, nil, data)
		got, ok := table.RenderData().(map[string]int)
		if !ok || got["files"] != 2 {
			t.Errorf("RenderData() = %v, want explicit data", table.RenderData())
		}
	})

	t.Run("rows as maps", func(t *testing.T) {
		table := NewTable("", []string{"module", "coverage"}, [][]string{{"src/a.ts", "60%"}}, nil, nil)
		got, ok := table.RenderData().([]map[string]string)
		if !ok || len(got) != 1 {
			t.Fatalf("RenderData() = %v", table.RenderData())
		}
		if got[0]["coverage"] != "60%" {
			t.Errorf("coverage = %q, want 60%%", got[0]["coverage"])
		}
	})
}

func TestFormatterOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatJSON, &buf, false)

	table := NewTable("t", []string{"a"}, [][]string{{"1"}}, nil, map[string]float64{"lines": 80})
	if err := f.Output(table); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var decoded map[string]float64
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if decoded["lines"] != 80 {
		t.Errorf("lines = %v, want 80", decoded["lines"])
	}
}

func TestFormatterOutputTOON(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatTOON, &buf, false)

	data := map[string]any{"files": 3}
	if err := f.Output(data); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "files") || !strings.Contains(output, "3") {
		t.Errorf("TOON output should contain the field, got %q", output)
	}
}

func TestFormatterOutputRawMarkdown(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, false)

	if err := f.Output(map[string]int{"files": 1}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	output := buf.String()
	if !strings.HasPrefix(output, "```json\n") || !strings.HasSuffix(output, "```\n") {
		t.Errorf("raw markdown output should be fenced, got %q", output)
	}
}

func TestSectionRender(t *testing.T) {
	tests := []struct {
		name     string
		section  Section
		wantText string
		wantMD   string
	}{
		{
			name:     "content only",
			section:  Section{Content: "base branch coverage report not found."},
			wantText: "base branch coverage report not found.\n",
			wantMD:   "base branch coverage report not found.\n",
		},
		{
			name:     "titled",
			section:  Section{Title: "Summary", Content: "3 files"},
			wantText: "Summary\n-------\n3 files\n",
			wantMD:   "### Summary\n3 files\n",
		},
		{
			name:     "severity ignored without color",
			section:  Section{Content: "mean 50%", Severity: models.SeverityRed},
			wantText: "mean 50%\n",
			wantMD:   "mean 50%\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var text, md bytes.Buffer
			if err := tt.section.RenderText(&text, false); err != nil {
				t.Fatalf("RenderText() error: %v", err)
			}
			if text.String() != tt.wantText {
				t.Errorf("RenderText() = %q, want %q", text.String(), tt.wantText)
			}
			if err := tt.section.RenderMarkdown(&md); err != nil {
				t.Fatalf("RenderMarkdown() error: %v", err)
			}
			if md.String() != tt.wantMD {
				t.Errorf("RenderMarkdown() = %q, want %q", md.String(), tt.wantMD)
			}
		})
	}
}

func TestReportRender(t *testing.T) {
	r := (&Report{}).Add(
		&Section{Content: "base branch coverage report not found."},
		FromModel("Coverage", sampleTable(), nil),
		&Section{Content: "2 files"},
	)

	var text bytes.Buffer
	if err := r.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	output := text.String()
	if !strings.HasPrefix(output, "base branch coverage report not found.\n\nCoverage\n") {
		t.Errorf("sections should be separated by a blank line, got:\n%s", output)
	}
	if !strings.HasSuffix(output, "\n2 files\n") {
		t.Errorf("report should end with the last section, got:\n%s", output)
	}
	if !strings.Contains(output, "src/a.ts") {
		t.Errorf("report should contain the table rows, got:\n%s", output)
	}

	var md bytes.Buffer
	if err := r.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(md.String(), "## Coverage") {
		t.Errorf("markdown should contain the table heading, got:\n%s", md.String())
	}

	parts, ok := r.RenderData().([]any)
	if !ok || len(parts) != 3 {
		t.Fatalf("RenderData() = %#v, want 3 parts", r.RenderData())
	}

	r.Data = map[string]int{"files": 2}
	if _, ok := r.RenderData().(map[string]int); !ok {
		t.Errorf("Data should replace sections in RenderData(), got %T", r.RenderData())
	}
}

func TestMessageHelpers(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)

	f.Success("saved %s", "baseline")
	f.Warning("baseline %s", "missing")
	f.Error("bad %d", 1)
	f.Info("files: %d", 3)

	output := buf.String()
	for _, want := range []string{"saved baseline\n", "WARNING: baseline missing\n", "ERROR: bad 1\n", "files: 3\n"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got %q", want, output)
		}
	}
}

func TestSeverityColor(t *testing.T) {
	for _, sev := range []models.Severity{models.SeverityRed, models.SeverityAmber, models.SeverityGreen} {
		if got := SeverityColor(sev, "80%"); !strings.Contains(got, "80%") {
			t.Errorf("SeverityColor(%v) = %q, should contain text", sev, got)
		}
	}
	if got := SeverityColor(models.Severity("purple"), "x"); got != "x" {
		t.Errorf("unknown severity should return text unchanged, got %q", got)
	}
}
