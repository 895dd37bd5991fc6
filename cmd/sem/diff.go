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
	"github.com/ataraxy-labs/sem/pkg/diff"
	"github.com/ataraxy-labs/sem/pkg/entity"
	"github.com/ataraxy-labs/sem/pkg/parser"
	"github.com/ataraxy-labs/sem/pkg/store"
	"github.com/ataraxy-labs/sem/pkg/vcsbridge"
)

// runDiff executes the 'diff' command: resolve a scope (working tree,
// staged index, or a specific commit/range), extract entities on both
// sides of every changed file, match them, and report the result.
func runDiff(args []string, repoPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	staged := fs.Bool("staged", false, "Diff the index against HEAD")
	commitSha := fs.String("commit", "", "Diff a single commit against its parent")
	from := fs.String("from", "", "Range start revision (with --to)")
	to := fs.String("to", "", "Range end revision (with --from)")
	noStore := fs.Bool("no-store", false, "Don't persist the result to .sem/sem.db")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sem diff [options]

Description:
  Compute the semantic diff for one VCS scope. With no flags, sem
  auto-detects the scope: a dirty working tree wins, else the staged
  index, else HEAD against its parent.

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

	scope, err := resolveScope(ctx, bridge, *staged, *commitSha, *from, *to)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	globals.Logger.Info("diff.scope.resolved", "type", scope.Type)

	changedFiles, err := bridge.GetChangedFiles(ctx, scope)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to read changed files",
			err.Error(),
			"Confirm the repository and revisions are valid",
			err,
		), globals.JSON)
	}
	globals.Logger.Info("diff.files.changed", "file_count", len(changedFiles))

	headSha, _ := bridge.HeadSha()
	result, err := diff.ComputeSemanticDiff(ctx, changedFiles, parser.NewDefaultRegistry(), commitShaFor(scope, headSha), "")
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to compute semantic diff",
			err.Error(),
			"",
			err,
		), globals.JSON)
	}
	globals.Logger.Info("diff.result.computed",
		"added", result.Summary.Added,
		"modified", result.Summary.Modified,
		"deleted", result.Summary.Deleted,
		"moved", result.Summary.Moved,
		"renamed", result.Summary.Renamed)

	if !*noStore {
		if dir, derr := dataDir(ctx, bridge); derr == nil {
			if db, oerr := store.Open(dir); oerr == nil {
				if uerr := db.UpsertChanges(ctx, result.Changes); uerr != nil {
					globals.Logger.Warn("diff.store.upsert_failed", "dir", dir, "err", uerr)
				}
				db.Close()
			} else {
				globals.Logger.Warn("diff.store.open_failed", "dir", dir, "err", oerr)
			}
		}
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			errors.FatalError(errors.NewInternalError("Failed to encode result", err.Error(), "", err), globals.JSON)
		}
		return
	}

	printDiffResult(result)
}

// resolveScope turns the diff command's flags into a vcsbridge.DiffScope,
// falling back to bridge.DetectScope when none were given explicitly.
func resolveScope(ctx context.Context, bridge *vcsbridge.GitBridge, staged bool, commitSha, from, to string) (vcsbridge.DiffScope, error) {
	switch {
	case from != "" || to != "":
		if from == "" || to == "" {
			return vcsbridge.DiffScope{}, errors.NewInputError(
				"Incomplete range",
				"--from and --to must both be set",
				"Pass both --from <rev> and --to <rev>",
				nil,
			)
		}
		return vcsbridge.DiffScope{Type: vcsbridge.Range, From: from, To: to}, nil
	case commitSha != "":
		return vcsbridge.DiffScope{Type: vcsbridge.Commit, Sha: commitSha}, nil
	case staged:
		return vcsbridge.DiffScope{Type: vcsbridge.Staged}, nil
	default:
		scope, err := bridge.DetectScope(ctx)
		if err != nil {
			return vcsbridge.DiffScope{}, errors.NewInternalError(
				"Failed to detect diff scope",
				err.Error(),
				"",
				err,
			)
		}
		return scope, nil
	}
}

func commitShaFor(scope vcsbridge.DiffScope, headSha string) string {
	switch scope.Type {
	case vcsbridge.Commit:
		return scope.Sha
	case vcsbridge.Range:
		return scope.To
	default:
		return headSha
	}
}

func printDiffResult(result *diff.Result) {
	ui.Header(fmt.Sprintf("Semantic diff: %d file(s), %d change(s)", result.Summary.FileCount, result.Summary.Total))
	fmt.Printf("  %s %s  %s %s  %s %s  %s %s  %s %s\n",
		ui.Label("added"), ui.CountText(result.Summary.Added),
		ui.Label("modified"), ui.CountText(result.Summary.Modified),
		ui.Label("deleted"), ui.CountText(result.Summary.Deleted),
		ui.Label("moved"), ui.CountText(result.Summary.Moved),
		ui.Label("renamed"), ui.CountText(result.Summary.Renamed))

	if len(result.Changes) == 0 {
		fmt.Println(ui.DimText("no semantic changes"))
		return
	}

	fmt.Println()
	for _, c := range result.Changes {
		printChangeLine(c)
	}
}

func printChangeLine(c entity.SemanticChange) {
	switch c.ChangeType {
	case entity.Added:
		_, _ = ui.Green.Printf("+ %s", c.EntityName)
	case entity.Deleted:
		_, _ = ui.Red.Printf("- %s", c.EntityName)
	case entity.Modified:
		_, _ = ui.Yellow.Printf("~ %s", c.EntityName)
	case entity.Moved, entity.Renamed:
		_, _ = ui.Cyan.Printf("> %s", c.EntityName)
	}
	fmt.Printf("  %s  %s", string(c.EntityType), ui.DimText(c.FilePath))
	if c.OldFilePath != "" {
		fmt.Printf(" %s %s", ui.DimText("<-"), ui.DimText(c.OldFilePath))
	}
	fmt.Println()
}
