// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ataraxy-labs/sem/internal/errors"
	"github.com/ataraxy-labs/sem/internal/ui"
	"github.com/ataraxy-labs/sem/pkg/store"
)

// StatusResult is the JSON shape of 'sem status'.
type StatusResult struct {
	RepoRoot   string `json:"repoRoot"`
	Branch     string `json:"branch"`
	HeadSha    string `json:"headSha"`
	DataDir    string `json:"dataDir"`
	Entities   int    `json:"entities"`
	Changes    int    `json:"changes"`
	Error      string `json:"error,omitempty"`
}

// runStatus executes the 'status' command: report the repository's
// current position and a summary of what's been indexed into .sem/sem.db.
func runStatus(args []string, repoPath string, globals GlobalFlags) {
	bridge, err := openBridge(repoPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	root, _ := bridge.RepoRoot()
	branch, _ := bridge.CurrentBranch()
	headSha, _ := bridge.HeadSha()

	result := StatusResult{RepoRoot: root, Branch: branch, HeadSha: headSha}

	ctx := context.Background()
	dir, err := dataDir(ctx, bridge)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	result.DataDir = dir

	if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
		result.Error = "no .sem data directory; run 'sem diff' at least once"
		printStatus(result, globals)
		return
	}

	db, err := store.Open(dir)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Failed to open local database",
			err.Error(),
			"Try 'sem reset --yes' followed by 'sem diff'",
			err,
		), globals.JSON)
	}
	defer db.Close()
	globals.Logger.Debug("status.database.opened", "dir", dir)

	ents, err := db.GetEntities(ctx, store.DefaultSnapshot, "")
	if err == nil {
		result.Entities = len(ents)
	}
	changes, err := db.GetChanges(ctx, store.ChangeFilter{})
	if err == nil {
		result.Changes = len(changes)
	}

	printStatus(result, globals)
}

func printStatus(result StatusResult, globals GlobalFlags) {
	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	ui.Header("sem status")
	fmt.Printf("%s %s\n", ui.Label("repo:"), result.RepoRoot)
	fmt.Printf("%s %s\n", ui.Label("branch:"), result.Branch)
	fmt.Printf("%s %s\n", ui.Label("head:"), result.HeadSha)
	fmt.Printf("%s %s\n", ui.Label("data dir:"), result.DataDir)
	if result.Error != "" {
		ui.Warning(result.Error)
		return
	}
	fmt.Printf("%s %s\n", ui.Label("entities:"), ui.CountText(result.Entities))
	fmt.Printf("%s %s\n", ui.Label("changes:"), ui.CountText(result.Changes))
}
