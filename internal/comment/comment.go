// Package comment builds the pull request comment body for a coverage
// report and keeps a single such comment up to date.
package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/couette/internal/output"
	"github.com/panbanda/couette/pkg/analyzer/delta"
)

// DefaultMarker opens every report body and identifies the report comment.
const DefaultMarker = "## Coverage report"

// MissingBaselineNotice is printed when no baseline snapshot was found.
const MissingBaselineNotice = "base branch coverage report not found."

// Option configures Compose.
type Option func(*options)

type options struct {
	marker string
}

// WithMarker replaces the heading that opens the body.
func WithMarker(marker string) Option {
	return func(o *options) {
		if marker != "" {
			o.marker = marker
		}
	}
}

// Compose renders report as a markdown comment body.
func Compose(report *delta.Report, opts ...Option) string {
	o := &options{marker: DefaultMarker}
	for _, opt := range opts {
		opt(o)
	}

	var b strings.Builder
	b.WriteString(o.marker)
	b.WriteString("\n")
	if report.BaselineMissing {
		b.WriteString(MissingBaselineNotice)
		b.WriteString("\n")
	}

	if report.Mode == delta.ModeComparison && report.Comparison != nil {
		c := report.Comparison
		fmt.Fprintf(&b, "\n### Coverage\n%s", output.MarkdownTable(c.Aggregate))
		fmt.Fprintf(&b, "\n### Regressions\n%s", output.MarkdownTable(c.Regressions))
		fmt.Fprintf(&b, "\n### New files\n%s", output.MarkdownTable(c.Added))
		fmt.Fprintf(&b, "\n### Components\n%s", output.MarkdownTable(c.Healthy))
		return b.String()
	}

	if s := report.Single; s != nil {
		fmt.Fprintf(&b, "\n\n%s\n\n%s", output.MarkdownTable(s.Aggregate), output.MarkdownTable(s.Files))
	}
	return b.String()
}

// Comment is an existing comment on the pull request.
type Comment struct {
	ID   int64
	Body string
}

// Store lists, creates and updates pull request comments. The host
// integration provides it.
type Store interface {
	List(ctx context.Context) ([]Comment, error)
	Create(ctx context.Context, body string) error
	Update(ctx context.Context, id int64, body string) error
}

// Action is what Upsert did.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// ErrEmptyMarker is returned when Upsert has no marker to search for.
var ErrEmptyMarker = errors.New("comment marker must not be empty")

// Fingerprint hashes a comment body.
func Fingerprint(body string) uint64 {
	return xxhash.Sum64String(body)
}

// Find returns the first comment whose body starts with marker.
func Find(comments []Comment, marker string) (Comment, bool) {
	for _, c := range comments {
		if strings.HasPrefix(c.Body, marker) {
			return c, true
		}
	}
	return Comment{}, false
}

// Upsert replaces the body of the first comment starting with marker, or
// creates a new comment when there is none. An existing comment with the
// same body is left alone.
func Upsert(ctx context.Context, store Store, marker, body string) (Action, error) {
	if marker == "" {
		return "", ErrEmptyMarker
	}

	comments, err := store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing comments: %w", err)
	}

	existing, ok := Find(comments, marker)
	if !ok {
		if err := store.Create(ctx, body); err != nil {
			return "", fmt.Errorf("creating comment: %w", err)
		}
		return ActionCreated, nil
	}

	if Fingerprint(existing.Body) == Fingerprint(body) {
		return ActionUnchanged, nil
	}
	if err := store.Update(ctx, existing.ID, body); err != nil {
		return "", fmt.Errorf("updating comment %d: %w", existing.ID, err)
	}
	return ActionUpdated, nil
}
