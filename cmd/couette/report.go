package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/couette/internal/annotate"
	"github.com/panbanda/couette/internal/service/analysis"
	"github.com/panbanda/couette/pkg/analyzer/delta"
	"github.com/panbanda/couette/pkg/config"
	"github.com/panbanda/couette/pkg/watch"
	"github.com/urfave/cli/v2"
)

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "current",
			Usage: "Coverage summary for this branch (default from config: coverage/coverage-summary.json)",
		},
		&cli.StringFlag{
			Name:  "baseline",
			Usage: "Coverage summary for the base branch",
		},
		&cli.StringFlag{
			Name:  "baseline-ref",
			Usage: "Git revision whose saved baseline is used (see 'couette baseline save')",
		},
		&cli.StringFlag{
			Name:  "root",
			Usage: "Repository root stripped from file paths (default: git worktree root)",
		},
	}
}

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Render the coverage report comment",
		ArgsUsage: " ",
		Description: `Compares the current coverage summary against the base branch and renders
the report. Without a baseline only the current coverage is shown.

Examples:
  couette report --current coverage/coverage-summary.json --baseline base.json
  couette report --baseline-ref origin/main
  couette -f text report`,
		Flags: append(inputFlags(),
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-render whenever the coverage summaries change",
			},
		),
		Action: runReportCmd,
	}
}

func annotateCmd() *cli.Command {
	return &cli.Command{
		Name:  "annotate",
		Usage: "Print CI annotations for regressions and poorly covered new files",
		Description: `Writes GitHub Actions workflow commands (::warning file=...::) for each
file whose coverage dropped, and a notice for each new file below
annotations.added_threshold. Requires a baseline.`,
		Flags: append(inputFlags(),
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Annotate new files below this percentage (default from config)",
			},
		),
		Action: runAnnotateCmd,
	}
}

func requestFromFlags(c *cli.Context) analysis.Request {
	return analysis.Request{
		Current:        c.String("current"),
		Baseline:       c.String("baseline"),
		BaselineRef:    c.String("baseline-ref"),
		RepositoryRoot: c.String("root"),
	}
}

// buildReport loads both snapshots behind a progress bar and reports which
// baseline was used.
func buildReport(c *cli.Context, cfg *config.Config) (*analysis.Result, error) {
	svc, err := newAnalysis(c, cfg)
	if err != nil {
		return nil, err
	}

	tracker := newSpinner(c, "Loading coverage", 2)
	req := requestFromFlags(c)
	req.OnProgress = tracker.Tick

	result, err := svc.Report(c.Context, req)
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()

	switch {
	case result.Baseline != nil && result.Baseline.Commit != "":
		verbosef(c, "Using baseline saved for %s (%s)", result.Baseline.Ref, result.Baseline.Commit)
	case result.Baseline != nil:
		verbosef(c, "Using baseline %s", result.Baseline.Path)
	case result.BaselineErr != nil:
		warnf(c, "Baseline not available: %v", result.BaselineErr)
	default:
		verbosef(c, "No baseline configured")
	}
	return result, nil
}

func runReportCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	if !c.Bool("watch") {
		return writeReport(c, cfg)
	}

	if err := writeReport(c, cfg); err != nil {
		color.New(color.FgRed).Fprintf(c.App.ErrWriter, "Error: %v\n", err)
	}

	files := []string{firstNonEmpty(c.String("current"), cfg.Inputs.Current)}
	if path := firstNonEmpty(c.String("baseline"), cfg.Inputs.Baseline); path != "" {
		files = append(files, path)
	}
	w, err := watch.NewWatcher(files, 0)
	if err != nil {
		return err
	}
	defer w.Stop()
	w.SetOutput(c.App.ErrWriter)
	w.SetCallback(func(string) {
		if err := writeReport(c, cfg); err != nil {
			color.New(color.FgRed).Fprintf(c.App.ErrWriter, "Error: %v\n", err)
		}
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func writeReport(c *cli.Context, cfg *config.Config) error {
	result, err := buildReport(c, cfg)
	if err != nil {
		return err
	}

	out, err := newOutput(c, cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	return out.WriteReport(result.Report)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func runAnnotateCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	if !cfg.Annotations.Enabled {
		verbosef(c, "Annotations disabled in configuration")
		return nil
	}

	threshold := cfg.Annotations.AddedThreshold
	if c.IsSet("threshold") {
		threshold = c.Float64("threshold")
	}
	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("threshold must be within 0-100, got %v", threshold)
	}

	result, err := buildReport(c, cfg)
	if err != nil {
		return err
	}
	if result.Report.Mode != delta.ModeComparison {
		return errors.New("annotations need a baseline; pass --baseline or --baseline-ref")
	}

	anns := annotate.FromReport(result.Report, threshold)
	verbosef(c, "%d annotations", len(anns))
	return annotate.WriteWorkflowCommands(c.App.Writer, anns)
}
