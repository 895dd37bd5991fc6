// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the sem CLI: a version-control-aware semantic
// diff tool.
//
// Usage:
//
//	sem [--json] diff [--staged|--commit <sha>|--from <a> --to <b>]
//	sem [--json] status
//	sem [--json] blame <file>
//	sem [--json] history <file> <entity-query>
//	sem [--json] query <sql>
//	sem init
//	sem reset --yes
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"github.com/ataraxy-labs/sem/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the global CLI flags that apply to all commands.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
	Logger  *slog.Logger
}

// newLogger builds the process-wide logger from the parsed verbosity/quiet
// flags, the same injectable-*slog.Logger-with-a-default pattern used by
// pkg/ingestion's constructors: --quiet drops to warn-and-above, plain sem
// logs at info, -vv raises to debug.
func newLogger(verbose int, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelWarn
	case verbose >= 2:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		repoPath    = flag.StringP("repo", "C", "", "Path to the git repository (default: current directory)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output (progress, info messages)")
	)

	// Stop parsing at the first non-flag argument so subcommand flags
	// (e.g. "diff --staged", "reset --yes") reach the subcommand's own
	// flag set instead of being rejected here.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `sem - semantic diff for version-controlled code

sem compares two revisions of a repository at the level of functions,
types, and other named entities instead of text lines, classifying each
change as added, modified, deleted, moved, or renamed.

Usage:
  sem <command> [options]

Commands:
  diff      Compute the semantic diff for the current scope
  status    Show the indexed project's summary
  blame     Attribute a file's current entities to the commit that last changed them
  history   Show one entity's change history across commits
  query     Run a read-only SQL query against the local database
  init      Create the .sem state directory
  reset     Delete all locally indexed data (destructive!)

Global Options:
  --json            Output in JSON format (for applicable commands)
  --no-color        Disable color output (respects NO_COLOR env var)
  -C, --repo        Path to the git repository (default: current directory)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output
  -V, --version     Show version and exit

Examples:
  sem diff                      Diff the working tree against HEAD
  sem diff --staged             Diff the index against HEAD
  sem diff --commit HEAD~3      Diff one commit against its parent
  sem diff --from v1.0 --to v2.0
  sem blame pkg/diff/orchestrator.go
  sem history pkg/diff/orchestrator.go ComputeSemanticDiff
  sem query "select change_type, count(*) from changes group by change_type"

For detailed command help: sem <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("sem version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if !*jsonOutput && !isatty.IsTerminal(os.Stdout.Fd()) {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}

	// JSON mode auto-enables quiet so progress output never corrupts the
	// JSON stream on stdout.
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
		Logger:  newLogger(*verbose, *quiet),
	}

	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	globals.Logger.Debug("cli.command.dispatch", "command", command, "repo", *repoPath)

	switch command {
	case "diff":
		runDiff(cmdArgs, *repoPath, globals)
	case "status":
		runStatus(cmdArgs, *repoPath, globals)
	case "blame":
		runBlame(cmdArgs, *repoPath, globals)
	case "history":
		runHistory(cmdArgs, *repoPath, globals)
	case "query":
		runQuery(cmdArgs, *repoPath, globals)
	case "init":
		runInit(cmdArgs, *repoPath, globals)
	case "reset":
		runReset(cmdArgs, *repoPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
