// Package analysis loads coverage snapshots and builds reports. It is the
// shared entry point for the CLI and the MCP server.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/panbanda/couette/internal/baseline"
	"github.com/panbanda/couette/internal/cache"
	"github.com/panbanda/couette/internal/vcs"
	"github.com/panbanda/couette/pkg/analyzer/delta"
	"github.com/panbanda/couette/pkg/config"
	"github.com/panbanda/couette/pkg/models"
	"github.com/panbanda/couette/pkg/snapshot"
	"github.com/sourcegraph/conc/pool"
)

// Service orchestrates report building.
type Service struct {
	config   *config.Config
	opener   vcs.Opener
	resolver *baseline.Resolver
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithResolver sets the baseline resolver.
func WithResolver(r *baseline.Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// New creates a new analysis service. Without WithResolver, baselines can
// only be read from explicit paths.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		c, _ := cache.New("", 0, false)
		s.resolver = baseline.NewResolver(c, ".")
	}
	return s
}

// Request selects the snapshots to report on. Empty fields fall back to the
// configuration.
type Request struct {
	Current        string
	Baseline       string
	BaselineRef    string
	RepositoryRoot string
	// SkipBaseline renders the current snapshot on its own, ignoring any
	// configured baseline, without the missing-baseline notice.
	SkipBaseline bool
	// OnProgress is called once per loaded snapshot.
	OnProgress func()
}

// Result is a built report and where its inputs came from.
type Result struct {
	Report         *delta.Report    `json:"report"`
	Current        string           `json:"current"`
	Baseline       *baseline.Source `json:"baseline,omitempty"`
	RepositoryRoot string           `json:"repository_root,omitempty"`
	// BaselineErr explains why no baseline was used, when one was asked for.
	BaselineErr error `json:"-"`
}

// Report loads the current and baseline snapshots concurrently and renders
// the report. A missing baseline degrades to a single-snapshot report; a
// malformed one is an error.
func (s *Service) Report(ctx context.Context, req Request) (*Result, error) {
	req = s.withDefaults(req)
	if req.Current == "" {
		return nil, errors.New("no current coverage summary given")
	}

	var (
		current   *models.Snapshot
		base      *models.Snapshot
		source    *baseline.Source
		missedErr error
	)

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		defer s.tick(req)
		snap, err := snapshot.Load(req.Current)
		if err != nil {
			return fmt.Errorf("current snapshot %s: %w", req.Current, err)
		}
		current = snap
		return nil
	})
	p.Go(func(ctx context.Context) error {
		defer s.tick(req)
		if req.SkipBaseline {
			return nil
		}
		snap, src, err := s.resolver.Resolve(ctx, baseline.Request{Path: req.Baseline, Ref: req.BaselineRef})
		if errors.Is(err, baseline.ErrNotFound) {
			if req.Baseline != "" || req.BaselineRef != "" {
				missedErr = err
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("baseline snapshot: %w", err)
		}
		base, source = snap, src
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	report, err := delta.Render(current, base, delta.Options{RepositoryRoot: req.RepositoryRoot})
	if err != nil {
		return nil, err
	}
	if req.SkipBaseline {
		// nothing was missed; the caller asked for the current snapshot alone
		report.BaselineMissing = false
	}

	return &Result{
		Report:         report,
		Current:        req.Current,
		Baseline:       source,
		RepositoryRoot: req.RepositoryRoot,
		BaselineErr:    missedErr,
	}, nil
}

func (s *Service) withDefaults(req Request) Request {
	if req.Current == "" {
		req.Current = s.config.Inputs.Current
	}
	if req.SkipBaseline {
		req.Baseline, req.BaselineRef = "", ""
	} else if req.Baseline == "" && req.BaselineRef == "" {
		req.Baseline = s.config.Inputs.Baseline
		req.BaselineRef = s.config.Baseline.Ref
	}
	if req.RepositoryRoot == "" {
		req.RepositoryRoot = s.config.Report.RepositoryRoot
	}
	if req.RepositoryRoot == "" {
		req.RepositoryRoot = s.defaultRoot(filepath.Dir(req.Current))
	}
	return req
}

// defaultRoot is the worktree root around dir, or the working directory
// outside a repository.
func (s *Service) defaultRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	repo, err := s.opener.PlainOpenWithDetect(abs)
	if err == nil {
		if root, err := repo.Root(); err == nil {
			return root
		}
	}
	wd, err := filepath.Abs(".")
	if err != nil {
		return ""
	}
	return wd
}

func (s *Service) tick(req Request) {
	if req.OnProgress != nil {
		req.OnProgress()
	}
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}
