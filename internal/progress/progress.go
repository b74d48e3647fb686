// Package progress shows status on stderr while snapshots load.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for snapshot loading. A nil bar makes every
// method a no-op.
type Tracker struct {
	bar   *progressbar.ProgressBar
	w     io.Writer
	label string
}

// Option configures a Tracker.
type Option func(*settings)

type settings struct {
	w       io.Writer
	enabled bool
}

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(s *settings) { s.w = w }
}

// Enabled turns the tracker off when on is false, e.g. for --quiet or
// machine-readable output.
func Enabled(on bool) Option {
	return func(s *settings) { s.enabled = on }
}

func apply(opts []Option) settings {
	s := settings{w: os.Stderr, enabled: true}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewSpinner creates a spinner for operations with unknown total count.
func NewSpinner(label string, opts ...Option) *Tracker {
	s := apply(opts)
	if !s.enabled {
		return &Tracker{w: s.w, label: label}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, w: s.w, label: label}
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int, opts ...Option) *Tracker {
	s := apply(opts)
	if !s.enabled {
		return &Tracker{w: s.w, label: label}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, w: s.w, label: label}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t.bar != nil {
		t.bar.Add(1)
	}
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	t.clear()
}

// FinishSkipped clears the bar and prints a skip message.
func (t *Tracker) FinishSkipped(reason string) {
	t.clear()
	fmt.Fprintf(t.w, "  %s skipped (%s)\n", t.label, reason)
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	t.clear()
	fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
}

func (t *Tracker) clear() {
	if t.bar == nil {
		return
	}
	t.bar.Finish()
	t.bar.Clear()
}
