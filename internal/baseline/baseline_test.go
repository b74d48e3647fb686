package baseline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/couette/internal/cache"
	"github.com/panbanda/couette/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sha = "0123456789abcdef0123456789abcdef01234567"

var fixtures = filepath.Join("..", "..", "pkg", "snapshot", "testdata")

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 0, true)
	require.NoError(t, err)
	return NewResolver(c, ".").WithRefResolver(func(ref string) (string, error) {
		if ref == "main" {
			return sha, nil
		}
		return "", errors.New("reference not found")
	})
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtures, name))
	require.NoError(t, err)
	return data
}

func TestResolvePath(t *testing.T) {
	r := newResolver(t)

	snap, src, err := r.Resolve(context.Background(), Request{
		Path: filepath.Join(fixtures, "baseline.json"),
		Ref:  "main",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, filepath.Join(fixtures, "baseline.json"), src.Path)
	assert.Empty(t, src.Commit, "an explicit path wins over the ref")
}

func TestResolveMissingPath(t *testing.T) {
	r := newResolver(t)

	_, _, err := r.Resolve(context.Background(), Request{Path: filepath.Join(t.TempDir(), "nope.json")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveMalformedPath(t *testing.T) {
	r := newResolver(t)

	_, _, err := r.Resolve(context.Background(), Request{Path: filepath.Join(fixtures, "missing_total.json")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, models.ErrMalformedSnapshot)
}

func TestResolveNothingRequested(t *testing.T) {
	_, _, err := newResolver(t).Resolve(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newResolver(t).Resolve(ctx, Request{Ref: "main"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveAndResolveRef(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	_, _, err := r.Resolve(ctx, Request{Ref: "main"})
	assert.ErrorIs(t, err, ErrNotFound, "nothing saved yet")

	src, err := r.Save("main", readFixture(t, "baseline.json"))
	require.NoError(t, err)
	assert.Equal(t, sha, src.Commit)

	snap, src, err := r.Resolve(ctx, Request{Ref: "main"})
	require.NoError(t, err)
	assert.Equal(t, "main", src.Ref)
	assert.Equal(t, sha, src.Commit)

	fc, ok := snap.Lookup("/repo/src/b.ts")
	require.True(t, ok)
	assert.Equal(t, 4, fc.Lines.Covered)
}

func TestResolveUnknownRef(t *testing.T) {
	_, _, err := newResolver(t).Resolve(context.Background(), Request{Ref: "feature"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRejectsMalformed(t *testing.T) {
	r := newResolver(t)

	_, err := r.Save("main", readFixture(t, "missing_category.json"))
	assert.ErrorIs(t, err, models.ErrMalformedSnapshot)

	_, err = r.Save("main", []byte("not json"))
	assert.ErrorIs(t, err, models.ErrMalformedSnapshot)
}

func TestSaveUnknownRef(t *testing.T) {
	_, err := newResolver(t).Save("feature", readFixture(t, "current.json"))
	assert.Error(t, err)
}

func TestShow(t *testing.T) {
	r := newResolver(t)
	data := readFixture(t, "current.json")

	_, _, err := r.Show("main")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Save("main", data)
	require.NoError(t, err)

	got, src, err := r.Show("main")
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, sha, src.Commit)
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortSHA(sha))
	assert.Equal(t, "abc", shortSHA("abc"))
}
