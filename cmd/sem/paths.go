// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ataraxy-labs/sem/internal/errors"
	"github.com/ataraxy-labs/sem/pkg/vcsbridge"
)

// openBridge resolves repoPath (or the current directory) to a *GitBridge
// and confirms it actually points at a git repository.
func openBridge(repoPath string) (*vcsbridge.GitBridge, error) {
	if repoPath == "" {
		repoPath = "."
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, errors.NewInputError(
			"Invalid repository path",
			err.Error(),
			"Pass an existing directory with --repo",
			err,
		)
	}

	bridge := vcsbridge.NewGitBridge(abs)
	if !bridge.IsRepo() {
		return nil, errors.NewInputError(
			"Not a git repository",
			abs+" is not inside a git working tree",
			"Run sem from inside a git repository, or pass --repo",
			nil,
		)
	}
	return bridge, nil
}

// dataDir resolves the per-repository state directory: SEM_DATA_DIR if
// set, else <repo root>/.sem.
func dataDir(ctx context.Context, bridge *vcsbridge.GitBridge) (string, error) {
	if envDir := os.Getenv("SEM_DATA_DIR"); envDir != "" {
		return filepath.Abs(envDir)
	}

	root, err := bridge.RepoRoot()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot determine repository root",
			err.Error(),
			"",
			err,
		)
	}
	return filepath.Join(root, ".sem"), nil
}
