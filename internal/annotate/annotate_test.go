package annotate

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/panbanda/couette/pkg/analyzer/delta"
	"github.com/panbanda/couette/pkg/models"
	"github.com/panbanda/couette/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureReport(t *testing.T, withBaseline bool) *delta.Report {
	t.Helper()
	dir := filepath.Join("..", "..", "pkg", "snapshot", "testdata")
	current, err := snapshot.Load(filepath.Join(dir, "current.json"))
	require.NoError(t, err)

	var baseline *models.Snapshot
	if withBaseline {
		baseline, err = snapshot.Load(filepath.Join(dir, "baseline.json"))
		require.NoError(t, err)
	}

	report, err := delta.Render(current, baseline, delta.Options{RepositoryRoot: "/repo"})
	require.NoError(t, err)
	return report
}

func TestFromReport(t *testing.T) {
	report := fixtureReport(t, true)

	got := FromReport(report, 70)
	require.Len(t, got, 2)

	assert.Equal(t, Annotation{
		Level:   LevelWarning,
		File:    "src/b.ts",
		Line:    1,
		Title:   "Coverage regression",
		Message: "Coverage decreased by 30% to 50%",
	}, got[0])

	assert.Equal(t, LevelNotice, got[1].Level)
	assert.Equal(t, "src/a.ts", got[1].File)
	assert.Equal(t, "New file has 60% coverage, below 70%", got[1].Message)
}

func TestFromReportThreshold(t *testing.T) {
	report := fixtureReport(t, true)

	got := FromReport(report, 60)
	require.Len(t, got, 1, "a new file exactly at the threshold is not annotated")
	assert.Equal(t, LevelWarning, got[0].Level)

	got = FromReport(report, 0)
	assert.Len(t, got, 1)
}

func TestFromReportSingleMode(t *testing.T) {
	assert.Empty(t, FromReport(fixtureReport(t, false), 100))
	assert.Empty(t, FromReport(nil, 100))
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name string
		in   Annotation
		want string
	}{
		{
			name: "full",
			in:   Annotation{Level: LevelWarning, File: "src/b.ts", Line: 1, Title: "Coverage regression", Message: "Coverage decreased by 30% to 50%"},
			want: "::warning file=src/b.ts,line=1,title=Coverage regression::Coverage decreased by 30%25 to 50%25",
		},
		{
			name: "no properties",
			in:   Annotation{Level: LevelError, Message: "failed"},
			want: "::error::failed",
		},
		{
			name: "default level",
			in:   Annotation{File: "a.ts", Message: "m"},
			want: "::notice file=a.ts::m",
		},
		{
			name: "escapes properties",
			in:   Annotation{Level: LevelNotice, File: "C:\\src\\a,b.ts", Title: "x:y", Message: "line1\nline2\r"},
			want: "::notice file=C%3A\\src\\a%2Cb.ts,title=x%3Ay::line1%0Aline2%0D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Command())
		})
	}
}

func TestWriteWorkflowCommands(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkflowCommands(&buf, []Annotation{
		{Level: LevelWarning, Message: "one"},
		{Level: LevelNotice, Message: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "::warning::one\n::notice::two\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("closed") }

func TestWriteWorkflowCommandsError(t *testing.T) {
	err := WriteWorkflowCommands(failingWriter{}, []Annotation{{Message: "x"}})
	assert.Error(t, err)
}
