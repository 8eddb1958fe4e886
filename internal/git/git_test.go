package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRepo_PlainDirectory(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepo(dir))
}

func TestIsRepo_InitializedRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	assert.True(t, IsRepo(dir))
}

func TestIsRepo_NestedDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	nested := filepath.Join(dir, "internal", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.True(t, IsRepo(nested))
}

func TestFindRepoRoot(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, FindRepoRoot(dir))

	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	root := FindRepoRoot(dir)
	require.NotEmpty(t, root)

	// Resolve symlinks so the comparison survives /tmp -> /private/tmp.
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHeadCommit_NoRepository(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := HeadCommit(ctx, t.TempDir())
	assert.Error(t, err)
}

func TestHeadCommit_RepositoryWithoutCommits(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = HeadCommit(ctx, dir)
	assert.Error(t, err, "HEAD does not resolve before the first commit")
}

func TestHeadCommit_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := HeadCommit(ctx, t.TempDir())
	assert.Error(t, err)
}
