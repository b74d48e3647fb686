package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/panbanda/couette/internal/cache"
	"github.com/urfave/cli/v2"
)

func baselineCmd() *cli.Command {
	return &cli.Command{
		Name:  "baseline",
		Usage: "Save and inspect base branch coverage snapshots",
		Description: `Baselines are coverage summaries stored in the local cache under the commit
a ref resolves to. 'couette report --baseline-ref main' picks them up.`,
		Subcommands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "Store a coverage summary as the baseline for a ref",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ref", Value: "HEAD", Usage: "Git revision the snapshot belongs to"},
				},
				Action: runBaselineSave,
			},
			{
				Name:  "show",
				Usage: "Print the baseline saved for a ref",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ref", Required: true, Usage: "Git revision to look up"},
				},
				Action: runBaselineShow,
			},
			{
				Name:   "stats",
				Usage:  "Summarize the baseline cache",
				Action: runBaselineStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every saved baseline",
				Action: runBaselineClear,
			},
		},
	}
}

func runBaselineSave(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one coverage summary file")
	}
	path := c.Args().First()

	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	resolver, err := newResolver(loaded.Config)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src, err := resolver.Save(c.String("ref"), data)
	if err != nil {
		return fmt.Errorf("failed to save baseline from %s: %w", path, err)
	}

	successf(c, "Saved baseline for %s (%s)", src.Ref, src.Commit)
	return nil
}

func runBaselineShow(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	resolver, err := newResolver(loaded.Config)
	if err != nil {
		return err
	}

	data, src, err := resolver.Show(c.String("ref"))
	if err != nil {
		return err
	}
	verbosef(c, "Baseline for %s (%s)", src.Ref, src.Commit)

	_, err = c.App.Writer.Write(data)
	return err
}

func openCache(c *cli.Context) (*cache.Cache, error) {
	loaded, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config
	return cache.New(cfg.Baseline.CacheDir, cfg.Baseline.TTL, true)
}

func runBaselineStats(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Cache:   %s\n", store.Dir())
	fmt.Fprintf(w, "Entries: %d (%d bytes)\n", stats.Entries, stats.TotalSize)
	if stats.Entries == 0 {
		return nil
	}
	fmt.Fprintf(w, "Oldest:  %s ago\n", stats.OldestAge.Round(time.Second))
	fmt.Fprintf(w, "Newest:  %s ago\n", stats.NewestAge.Round(time.Second))
	for _, key := range stats.Keys {
		fmt.Fprintf(w, "  %s\n", key)
	}
	return nil
}

func runBaselineClear(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", store.Dir(), err)
	}
	successf(c, "Cleared %s", store.Dir())
	return nil
}
