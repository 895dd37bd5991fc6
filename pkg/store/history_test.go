// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ataraxy-labs/sem/pkg/entity"
	"github.com/ataraxy-labs/sem/pkg/parser"
)

func TestHistory_TracksAddedThenModifiedByName(t *testing.T) {
	repo, bridge := newBlameTestRepo(t)
	configPath := filepath.Join(repo, "config.json")

	writeFile(t, configPath, `{"version":"1.0.0"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	writeFile(t, configPath, `{"version":"2.0.0","logLevel":"info"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "add logLevel")

	writeFile(t, configPath, `{"version":"2.0.0","logLevel":"debug"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "flip to debug")

	reg := parser.NewDefaultRegistry()
	entries, err := History(context.Background(), bridge, reg, "config.json", "/logLevel", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first: the debug flip (modified), then the original add.
	assert.Equal(t, entity.Modified, entries[0].ChangeType)
	assert.Equal(t, entity.Added, entries[1].ChangeType)
}

func TestHistory_ResolvesFullIDWithoutLookup(t *testing.T) {
	repo, bridge := newBlameTestRepo(t)
	configPath := filepath.Join(repo, "config.json")

	writeFile(t, configPath, `{"version":"1.0.0"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	writeFile(t, configPath, `{"version":"2.0.0"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "bump")

	reg := parser.NewDefaultRegistry()
	id := entity.BuildID("config.json", entity.Property, "/version", "")

	entries, err := History(context.Background(), bridge, reg, "config.json", id, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, entity.Modified, entries[0].ChangeType)
}

func TestHistory_UnknownNameReturnsError(t *testing.T) {
	repo, bridge := newBlameTestRepo(t)
	writeFile(t, filepath.Join(repo, "config.json"), `{"version":"1.0.0"}`)
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-m", "initial")

	reg := parser.NewDefaultRegistry()
	_, err := History(context.Background(), bridge, reg, "config.json", "/doesNotExist", 0)
	assert.Error(t, err)
}
