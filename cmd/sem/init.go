// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/ataraxy-labs/sem/internal/errors"
	"github.com/ataraxy-labs/sem/internal/ui"
	"github.com/ataraxy-labs/sem/pkg/store"
)

// runInit executes the 'init' command: create the .sem state directory
// and its SQLite database ahead of the first 'sem diff'.
func runInit(args []string, repoPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sem init [options]

Description:
  Create the .sem state directory (and its sem.db database) for the
  current repository. Safe to run more than once.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	bridge, err := openBridge(repoPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx := context.Background()
	dir, err := dataDir(ctx, bridge)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	db, err := store.Open(dir)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Failed to create local database",
			err.Error(),
			"Check that the repository directory is writable",
			err,
		), globals.JSON)
	}
	defer db.Close()

	head, _ := bridge.HeadSha()
	_ = db.SetMeta(ctx, "initializedHeadSha", head)
	globals.Logger.Info("init.completed", "path", db.Path(), "head", head)

	ui.Success(fmt.Sprintf("Initialized %s", db.Path()))
}
