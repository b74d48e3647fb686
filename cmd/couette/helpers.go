package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/panbanda/couette/internal/baseline"
	"github.com/panbanda/couette/internal/cache"
	"github.com/panbanda/couette/internal/progress"
	"github.com/panbanda/couette/internal/service/analysis"
	outputSvc "github.com/panbanda/couette/internal/service/output"
	"github.com/panbanda/couette/pkg/config"
	"github.com/urfave/cli/v2"
)

// loadConfig loads the file named by --config, or searches the standard
// locations.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

// newResolver builds a baseline resolver over the configured cache.
func newResolver(cfg *config.Config) (*baseline.Resolver, error) {
	c, err := cache.New(cfg.Baseline.CacheDir, cfg.Baseline.TTL, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline cache: %w", err)
	}
	return baseline.NewResolver(c, "."), nil
}

// newAnalysis only opens the baseline cache when a ref will be looked up.
func newAnalysis(c *cli.Context, cfg *config.Config) (*analysis.Service, error) {
	if c.String("baseline-ref") == "" && cfg.Baseline.Ref == "" {
		return analysis.New(analysis.WithConfig(cfg)), nil
	}
	resolver, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}
	return analysis.New(analysis.WithConfig(cfg), analysis.WithResolver(resolver)), nil
}

// newOutput builds the output service from global flags, falling back to the
// configured format.
func newOutput(c *cli.Context, cfg *config.Config) (*outputSvc.Service, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	opts := []outputSvc.Option{
		outputSvc.WithFormat(outputSvc.ParseFormat(format)),
		outputSvc.WithWriter(c.App.Writer),
		outputSvc.WithColor(colorEnabled(c, cfg)),
		outputSvc.WithMarker(cfg.Report.Marker),
	}
	if path := c.String("output"); path != "" {
		opts = append(opts, outputSvc.WithFile(path))
	}
	return outputSvc.New(opts...)
}

func colorEnabled(c *cli.Context, cfg *config.Config) bool {
	return cfg.Output.Color && !c.Bool("no-color") && !color.NoColor
}

// newSpinner shows progress only on an interactive stderr.
func newSpinner(c *cli.Context, label string, total int) *progress.Tracker {
	interactive := c.App.ErrWriter == os.Stderr && isatty.IsTerminal(os.Stderr.Fd())
	return progress.NewTracker(label, total,
		progress.WithWriter(c.App.ErrWriter),
		progress.Enabled(interactive))
}

// verbosef prints a status line to stderr when --verbose is set.
func verbosef(c *cli.Context, format string, args ...any) {
	if !c.Bool("verbose") {
		return
	}
	color.New(color.FgCyan).Fprintf(c.App.ErrWriter, format+"\n", args...)
}

func warnf(c *cli.Context, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(c.App.ErrWriter, format+"\n", args...)
}

func successf(c *cli.Context, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(c.App.ErrWriter, format+"\n", args...)
}
