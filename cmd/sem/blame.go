// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/ataraxy-labs/sem/internal/errors"
	"github.com/ataraxy-labs/sem/internal/ui"
	"github.com/ataraxy-labs/sem/pkg/parser"
	"github.com/ataraxy-labs/sem/pkg/store"
)

// runBlame executes the 'blame' command: attribute every entity currently
// in a file to the commit that last introduced or modified it.
func runBlame(args []string, repoPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("blame", flag.ExitOnError)
	depth := fs.Int("depth", 0, "Maximum commits to walk (0 = default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sem blame [options] <file>

Description:
  Attribute every entity currently in <file> to the commit that last
  added or modified it.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	rest := fs.Args()
	if len(rest) < 1 {
		errors.FatalError(errors.NewInputError(
			"Missing file argument",
			"sem blame requires a file path",
			"Run 'sem blame <file>'",
			nil,
		), globals.JSON)
	}
	filePath := rest[0]

	bridge, err := openBridge(repoPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx := context.Background()
	entries, err := store.Blame(ctx, bridge, parser.NewDefaultRegistry(), filePath, *depth)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to compute blame",
			err.Error(),
			"Confirm the file path is correct and tracked by git",
			err,
		), globals.JSON)
	}
	globals.Logger.Info("blame.computed", "file", filePath, "entries", len(entries))

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(entries)
		return
	}

	if len(entries) == 0 {
		fmt.Println(ui.DimText("no entities found"))
		return
	}

	for _, e := range entries {
		fmt.Printf("%s  %s  %s %s\n",
			ui.Dim.Sprint(shortSha(e.CommitSha)),
			string(e.EntityType),
			e.EntityName,
			ui.DimText(e.FilePath))
	}
}

func shortSha(sha string) string {
	if len(sha) > 10 {
		return sha[:10]
	}
	return sha
}
