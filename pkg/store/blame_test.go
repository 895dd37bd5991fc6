// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ataraxy-labs/sem/pkg/parser"
	"github.com/ataraxy-labs/sem/pkg/vcsbridge"
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

func newBlameTestRepo(t *testing.T) (string, *vcsbridge.GitBridge) {
	t.Helper()
	repo := t.TempDir()
	runGit(t, repo, "init")
	runGit(t, repo, "config", "user.email", "test@example.com")
	runGit(t, repo, "config", "user.name", "Test User")
	return repo, vcsbridge.NewGitBridge(repo)
}

func TestBlame_AttributesEachPropertyToItsIntroducingCommit(t *testing.T) {
	repo, bridge := newBlameTestRepo(t)
	configPath := filepath.Join(repo, "config.json")

	writeFile(t, configPath, `{"version":"1.0.0"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	writeFile(t, configPath, `{"version":"2.0.0","logLevel":"info"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "bump version, add logLevel")

	writeFile(t, configPath, `{"version":"2.0.0","logLevel":"debug"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "turn on debug logging")

	reg := parser.NewDefaultRegistry()
	entries, err := Blame(context.Background(), bridge, reg, "config.json", 0)
	require.NoError(t, err)

	byName := make(map[string]BlameEntry, len(entries))
	for _, e := range entries {
		byName[e.EntityName] = e
	}

	versionSha, err := bridge.CommitsTouching(context.Background(), "config.json", 0)
	require.NoError(t, err)
	require.Len(t, versionSha, 3)
	// versionSha is newest-first: [debug-commit, bump-commit, initial-commit]
	bumpCommit := versionSha[1]
	debugCommit := versionSha[0]

	version, ok := byName["/version"]
	require.True(t, ok)
	assert.Equal(t, bumpCommit, version.CommitSha)

	logLevel, ok := byName["/logLevel"]
	require.True(t, ok)
	assert.Equal(t, debugCommit, logLevel.CommitSha)
}

func TestBlame_NoPluginRegisteredYieldsNoEntries(t *testing.T) {
	repo, bridge := newBlameTestRepo(t)
	writeFile(t, filepath.Join(repo, "data.weird"), "whatever\n")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	reg := parser.NewRegistry() // empty: no fallback registered
	entries, err := Blame(context.Background(), bridge, reg, "data.weird", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
