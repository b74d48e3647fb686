package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestNewGitOpener(t *testing.T) {
	if NewGitOpener() == nil {
		t.Fatal("NewGitOpener() returned nil")
	}
}

func TestGitOpener_PlainOpen(t *testing.T) {
	repoPath := initTestRepo(t)

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error: %v", err)
	}
	if repo == nil {
		t.Fatal("PlainOpen() returned nil repo")
	}
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	_, err := NewGitOpener().PlainOpen("/nonexistent/path")
	if err == nil {
		t.Error("PlainOpen() should error for non-existent path")
	}
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	repoPath := initTestRepo(t)
	subDir := filepath.Join(repoPath, "coverage", "lcov-report")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	repo, err := NewGitOpener().PlainOpenWithDetect(subDir)
	if err != nil {
		t.Fatalf("PlainOpenWithDetect() error: %v", err)
	}

	root, err := repo.Root()
	if err != nil {
		t.Fatalf("Root() error: %v", err)
	}
	if !samePath(t, root, repoPath) {
		t.Errorf("Root() = %q, want %q", root, repoPath)
	}
}

func TestGitRepository_ResolveRevision(t *testing.T) {
	repoPath, hashes := initTestRepoWithCommits(t, 2)

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	branch, err := repo.CurrentRef()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		rev  string
		want plumbing.Hash
	}{
		{"HEAD", hashes[1]},
		{"HEAD~1", hashes[0]},
		{branch, hashes[1]},
		{"v1", hashes[0]},
		{hashes[0].String(), hashes[0]},
	}

	for _, tt := range tests {
		t.Run(tt.rev, func(t *testing.T) {
			got, err := repo.ResolveRevision(tt.rev)
			if err != nil {
				t.Fatalf("ResolveRevision(%q) error: %v", tt.rev, err)
			}
			if got != tt.want {
				t.Errorf("ResolveRevision(%q) = %s, want %s", tt.rev, got, tt.want)
			}
		})
	}
}

func TestGitRepository_ResolveRevisionErrors(t *testing.T) {
	repoPath, _ := initTestRepoWithCommits(t, 1)

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.ResolveRevision(""); !errors.Is(err, ErrEmptyRevision) {
		t.Errorf("ResolveRevision(\"\") error = %v, want ErrEmptyRevision", err)
	}
	if _, err := repo.ResolveRevision("no-such-branch"); err == nil {
		t.Error("ResolveRevision() should error for an unknown ref")
	}
}

func TestGitRepository_CurrentRef(t *testing.T) {
	repoPath, hashes := initTestRepoWithCommits(t, 2)

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}

	ref, err := repo.CurrentRef()
	if err != nil {
		t.Fatalf("CurrentRef() error: %v", err)
	}
	if ref != "master" && ref != "main" {
		t.Errorf("CurrentRef() = %q, want the default branch", ref)
	}

	// Detach HEAD at the first commit
	gitRepo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := gitRepo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hashes[0]}); err != nil {
		t.Fatal(err)
	}

	ref, err = repo.CurrentRef()
	if err != nil {
		t.Fatalf("CurrentRef() error: %v", err)
	}
	if ref != hashes[0].String() {
		t.Errorf("CurrentRef() = %q, want %s", ref, hashes[0])
	}
}

func TestResolveCommit(t *testing.T) {
	repoPath, hashes := initTestRepoWithCommits(t, 2)

	sha, err := ResolveCommit(repoPath, "HEAD~1")
	if err != nil {
		t.Fatalf("ResolveCommit() error: %v", err)
	}
	if sha != hashes[0].String() {
		t.Errorf("ResolveCommit() = %s, want %s", sha, hashes[0])
	}

	if _, err := ResolveCommit(t.TempDir(), "HEAD"); err == nil {
		t.Error("ResolveCommit() should error outside a repository")
	}
}

func TestDefaultOpener(t *testing.T) {
	if DefaultOpener() == nil {
		t.Fatal("DefaultOpener() returned nil")
	}
}

func TestSetDefaultOpener(t *testing.T) {
	original := DefaultOpener()
	defer SetDefaultOpener(original)

	newOpener := NewGitOpener()
	SetDefaultOpener(newOpener)

	if DefaultOpener() != newOpener {
		t.Error("SetDefaultOpener() didn't change default opener")
	}
}

// Helper functions

func samePath(t *testing.T, a, b string) bool {
	t.Helper()
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		t.Fatal(err)
	}
	return filepath.Clean(ra) == filepath.Clean(rb)
}

func initTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	_, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}
	return repoPath
}

// initTestRepoWithCommits creates n commits and tags the first one v1.
func initTestRepoWithCommits(t *testing.T, n int) (string, []plumbing.Hash) {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	summary := filepath.Join(repoPath, "coverage-summary.json")
	var hashes []plumbing.Hash
	for i := 0; i < n; i++ {
		content := []byte{'{', '"', 'a' + byte(i), '"', ':', '1', '}', '\n'}
		if err := os.WriteFile(summary, content, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Add("coverage-summary.json"); err != nil {
			t.Fatal(err)
		}
		hash, err := w.Commit("commit", &git.CommitOptions{
			Author: &object.Signature{
				Name:  "Test",
				Email: "test@example.com",
				When:  time.Now(),
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		hashes = append(hashes, hash)
	}

	if _, err := repo.CreateTag("v1", hashes[0], nil); err != nil {
		t.Fatal(err)
	}
	return repoPath, hashes
}
