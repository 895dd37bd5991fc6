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
)

// runReset executes the 'reset' command, deleting the .sem state
// directory for the current repository.
func runReset(args []string, repoPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sem reset [options]

Description:
  WARNING: destructive. Deletes the .sem state directory, including
  every indexed entity and change record. Re-run 'sem diff' afterwards
  to rebuild it.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		errors.FatalError(errors.NewInputError(
			"Confirmation required",
			"The --yes flag is required to confirm this destructive operation",
			"Run 'sem reset --yes' to confirm",
			nil,
		), globals.JSON)
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

	if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
		fmt.Println("No local data found")
		return
	}

	if err := os.RemoveAll(dir); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot delete data directory",
			fmt.Sprintf("Failed to remove %s", dir),
			"Check directory permissions and ensure no other sem process is running",
			err,
		), globals.JSON)
	}
	globals.Logger.Info("reset.completed", "dir", dir)

	ui.Success("Reset complete. All local indexed data has been deleted.")
}
