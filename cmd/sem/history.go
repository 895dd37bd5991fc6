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

// runHistory executes the 'history' command: trace one entity's
// added/modified/deleted transitions across a file's commits.
func runHistory(args []string, repoPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	depth := fs.Int("depth", 0, "Maximum commits to walk (0 = default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sem history [options] <file> <entity-name-or-id>

Description:
  Show one entity's presence/hash transitions across <file>'s commit
  history, newest first. <entity-name-or-id> may be a bare name (resolved
  against the file's current entities) or a full "<file>::<type>::<name>"
  id.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	rest := fs.Args()
	if len(rest) < 2 {
		errors.FatalError(errors.NewInputError(
			"Missing arguments",
			"sem history requires a file path and an entity name or id",
			"Run 'sem history <file> <entity-name>'",
			nil,
		), globals.JSON)
	}
	filePath, entityQuery := rest[0], rest[1]

	bridge, err := openBridge(repoPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx := context.Background()
	entries, err := store.History(ctx, bridge, parser.NewDefaultRegistry(), filePath, entityQuery, *depth)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to compute history",
			err.Error(),
			"Confirm the entity name or id exists in the file's current version",
			err,
		), globals.JSON)
	}
	globals.Logger.Info("history.computed", "file", filePath, "entity", entityQuery, "entries", len(entries))

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(entries)
		return
	}

	if len(entries) == 0 {
		fmt.Println(ui.DimText("no history found"))
		return
	}

	for _, e := range entries {
		var marker string
		switch e.ChangeType {
		case "added":
			marker = ui.Green.Sprint("+")
		case "deleted":
			marker = ui.Red.Sprint("-")
		default:
			marker = ui.Yellow.Sprint("~")
		}
		fmt.Printf("%s %s  %s\n", marker, ui.Dim.Sprint(shortSha(e.CommitSha)), string(e.ChangeType))
	}
}
