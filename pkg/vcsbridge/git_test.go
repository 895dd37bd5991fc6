// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package vcsbridge

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("git %v failed: %v", args, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	return dir
}

func TestGitBridge_IsRepo(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, filepath.Join(repo, "a.txt"), "hello\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	b := NewGitBridge(repo)
	assert.True(t, b.IsRepo())

	notRepo := NewGitBridge(t.TempDir())
	assert.False(t, notRepo.IsRepo())
}

func TestGitBridge_HeadShaAndBranch(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, filepath.Join(repo, "a.txt"), "hello\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	b := NewGitBridge(repo)
	sha, err := b.HeadSha()
	require.NoError(t, err)
	assert.Len(t, sha, 40)

	branch, err := b.CurrentBranch()
	require.NoError(t, err)
	assert.NotEmpty(t, branch)

	root, err := b.RepoRoot()
	require.NoError(t, err)
	resolvedRepo, err := filepath.EvalSymlinks(repo)
	require.NoError(t, err)
	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, resolvedRepo, resolvedRoot)
}

func TestGitBridge_DetectScope_PrefersWorkingOverStagedOverCommit(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, filepath.Join(repo, "a.txt"), "one\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	b := NewGitBridge(repo)
	ctx := context.Background()

	scope, err := b.DetectScope(ctx)
	require.NoError(t, err)
	assert.Equal(t, Commit, scope.Type)

	writeFile(t, filepath.Join(repo, "a.txt"), "two\n")
	runGit(t, repo, "add", ".")
	scope, err = b.DetectScope(ctx)
	require.NoError(t, err)
	assert.Equal(t, Staged, scope.Type)

	writeFile(t, filepath.Join(repo, "a.txt"), "three\n")
	scope, err = b.DetectScope(ctx)
	require.NoError(t, err)
	assert.Equal(t, Working, scope.Type)
}

func TestGitBridge_GetChangedFiles_Working(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, filepath.Join(repo, "a.txt"), "one\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	writeFile(t, filepath.Join(repo, "a.txt"), "two\n")
	writeFile(t, filepath.Join(repo, "b.txt"), "new\n")

	b := NewGitBridge(repo)
	ctx := context.Background()
	changes, err := b.GetChangedFiles(ctx, DiffScope{Type: Working})
	require.NoError(t, err)

	byPath := make(map[string]entity.FileChange, len(changes))
	for _, c := range changes {
		byPath[c.FilePath] = c
	}

	modified, ok := byPath["a.txt"]
	require.True(t, ok)
	assert.Equal(t, entity.FileModified, modified.Status)
	assert.Equal(t, "one\n", string(modified.BeforeContent))
	assert.Equal(t, "two\n", string(modified.AfterContent))

	added, ok := byPath["b.txt"]
	require.True(t, ok)
	assert.Equal(t, entity.FileAdded, added.Status)
	assert.Nil(t, added.BeforeContent)
	assert.Equal(t, "new\n", string(added.AfterContent))
}

func TestGitBridge_GetChangedFiles_ExcludesSemDir(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, filepath.Join(repo, "a.txt"), "one\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	writeFile(t, filepath.Join(repo, ".sem", "sem.db"), "binary\n")

	b := NewGitBridge(repo)
	changes, err := b.GetChangedFiles(context.Background(), DiffScope{Type: Working})
	require.NoError(t, err)

	for _, c := range changes {
		assert.NotContains(t, c.FilePath, ".sem/")
	}
}

func TestGitBridge_GetChangedFiles_Commit(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, filepath.Join(repo, "a.txt"), "one\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	writeFile(t, filepath.Join(repo, "a.txt"), "two\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "second")

	b := NewGitBridge(repo)
	head, err := b.HeadSha()
	require.NoError(t, err)

	changes, err := b.GetChangedFiles(context.Background(), DiffScope{Type: Commit, Sha: head})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "a.txt", changes[0].FilePath)
	assert.Equal(t, "one\n", string(changes[0].BeforeContent))
	assert.Equal(t, "two\n", string(changes[0].AfterContent))
}

func TestGitBridge_CommitsTouching(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, filepath.Join(repo, "a.txt"), "one\n")
	writeFile(t, filepath.Join(repo, "b.txt"), "unrelated\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	writeFile(t, filepath.Join(repo, "b.txt"), "changed\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "touch b only")

	writeFile(t, filepath.Join(repo, "a.txt"), "two\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "touch a again")

	b := NewGitBridge(repo)
	shas, err := b.CommitsTouching(context.Background(), "a.txt", 0)
	require.NoError(t, err)
	assert.Len(t, shas, 2)
}

func TestGitBridge_ShowFile_MissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)
	writeFile(t, filepath.Join(repo, "a.txt"), "one\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	b := NewGitBridge(repo)
	head, err := b.HeadSha()
	require.NoError(t, err)

	content := b.ShowFile(context.Background(), head, "nonexistent.txt")
	assert.Nil(t, content)

	content = b.ShowFile(context.Background(), head, "a.txt")
	assert.Equal(t, "one\n", string(content))
}
