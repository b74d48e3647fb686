// Package vcs provides the version control lookups couette needs: the
// worktree root for path normalization and ref-to-commit resolution for
// baseline lookups.
package vcs

import (
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository provides access to git repository operations.
type Repository interface {
	// Root returns the worktree root of the repository.
	Root() (string, error)
	// ResolveRevision resolves a branch, tag, short hash or revision
	// expression such as HEAD~1 to a commit hash.
	ResolveRevision(rev string) (plumbing.Hash, error)
	// CurrentRef returns the current branch name, or the commit SHA for a
	// detached HEAD.
	CurrentRef() (string, error)
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
