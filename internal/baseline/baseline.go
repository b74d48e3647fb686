// Package baseline finds the snapshot a report is compared against, either
// from an explicit file or from the cache entry saved for a git commit.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/panbanda/couette/internal/cache"
	"github.com/panbanda/couette/internal/vcs"
	"github.com/panbanda/couette/pkg/models"
	"github.com/panbanda/couette/pkg/snapshot"
)

// ErrNotFound means no baseline is available. Callers fall back to a
// single-snapshot report.
var ErrNotFound = errors.New("baseline not found")

// Request selects a baseline. Path wins over Ref when both are set.
type Request struct {
	Path string
	Ref  string
}

// Source tells where a resolved baseline came from.
type Source struct {
	Path   string `json:"path,omitempty"`
	Ref    string `json:"ref,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// RefResolver maps a git ref to a commit SHA.
type RefResolver func(ref string) (string, error)

// Resolver looks baselines up on disk and in the cache.
type Resolver struct {
	cache   *cache.Cache
	resolve RefResolver
}

// NewResolver creates a Resolver backed by c. Refs are resolved in the git
// repository containing repoPath.
func NewResolver(c *cache.Cache, repoPath string) *Resolver {
	return &Resolver{
		cache: c,
		resolve: func(ref string) (string, error) {
			return vcs.ResolveCommit(repoPath, ref)
		},
	}
}

// WithRefResolver replaces how refs are turned into commits.
func (r *Resolver) WithRefResolver(fn RefResolver) *Resolver {
	r.resolve = fn
	return r
}

// Resolve returns the baseline snapshot for req, or ErrNotFound. A baseline
// that exists but does not parse is an error, not a miss.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*models.Snapshot, *Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if req.Path != "" {
		snap, err := snapshot.Load(req.Path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s does not exist", ErrNotFound, req.Path)
		}
		if err != nil {
			return nil, nil, err
		}
		return snap, &Source{Path: req.Path}, nil
	}

	if req.Ref == "" {
		return nil, nil, ErrNotFound
	}

	commit, err := r.resolve(req.Ref)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	data, ok := r.cache.Get(commit)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no snapshot saved for %s (%s)", ErrNotFound, req.Ref, shortSHA(commit))
	}

	snap, err := snapshot.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("cached baseline for %s: %w", shortSHA(commit), err)
	}
	return snap, &Source{Ref: req.Ref, Commit: commit}, nil
}

// Save validates data and stores it as the baseline for ref.
func (r *Resolver) Save(ref string, data []byte) (*Source, error) {
	if _, err := snapshot.Parse(data); err != nil {
		return nil, err
	}

	commit, err := r.resolve(ref)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(commit, data); err != nil {
		return nil, fmt.Errorf("saving baseline for %s: %w", shortSHA(commit), err)
	}
	return &Source{Ref: ref, Commit: commit}, nil
}

// Show returns the raw snapshot saved for ref.
func (r *Resolver) Show(ref string) ([]byte, *Source, error) {
	commit, err := r.resolve(ref)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	entry, ok := r.cache.Lookup(commit)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no snapshot saved for %s (%s)", ErrNotFound, ref, shortSHA(commit))
	}
	return entry.Data, &Source{Ref: ref, Commit: commit}, nil
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
