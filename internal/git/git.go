// Package git answers the few repository questions the detector needs:
// is a path inside a repository, where is its root, and what is HEAD.
package git

import (
	"context"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// IsRepo reports whether path is a git repository or inside one.
// Checks for a .git entry first (instant for non-git dirs), then walks
// up through parents like git itself does.
func IsRepo(path string) bool {
	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		return true
	}

	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

// FindRepoRoot returns the repository root for a path, or "" when the path
// is not inside a repository.
func FindRepoRoot(path string) string {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return ""
	}
	return worktree.Filesystem.Root()
}

// HeadCommit returns the full HEAD commit hash for the repository
// containing path. The lookup runs in a goroutine so the ctx deadline
// bounds it even when repository metadata is slow to read.
func HeadCommit(ctx context.Context, path string) (string, error) {
	type result struct {
		hash string
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			ch <- result{err: err}
			return
		}
		head, err := repo.Head()
		if err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{hash: head.Hash().String()}
	}()

	select {
	case r := <-ch:
		return r.hash, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
