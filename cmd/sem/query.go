// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/ataraxy-labs/sem/internal/errors"
	"github.com/ataraxy-labs/sem/pkg/store"
)

// runQuery executes the 'query' command: run an arbitrary read-only SQL
// statement against .sem/sem.db and print the rows.
func runQuery(args []string, repoPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sem query [options] <sql>

Description:
  Run a read-only SQL query against the local entities/changes database.

Examples:
  sem query "select change_type, count(*) as n from changes group by change_type"
  sem --json query "select name, file_path from entities where entity_type = 'function'"

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		errors.FatalError(errors.NewInputError(
			"Missing query",
			"sem query requires a SQL statement",
			`Run 'sem query "select * from entities limit 10"'`,
			nil,
		), globals.JSON)
	}
	sqlText := rest[0]

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
			"Failed to open local database",
			err.Error(),
			"Run 'sem diff' first to populate .sem/sem.db",
			err,
		), globals.JSON)
	}
	defer db.Close()

	rows, err := db.Query(ctx, sqlText)
	if err != nil {
		globals.Logger.Warn("query.failed", "sql", sqlText, "err", err)
		errors.FatalError(errors.NewDatabaseError(
			"Query failed",
			err.Error(),
			"Check the SQL syntax; only read-only statements are supported",
			err,
		), globals.JSON)
	}
	globals.Logger.Debug("query.executed", "sql", sqlText, "rows", len(rows))

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rows)
		return
	}

	printRows(rows)
}

// printRows renders query rows as a tab-aligned table. Column order is
// taken from the first row's keys, sorted for stable output since
// database/sql gives no ordering guarantee over a map.
func printRows(rows []map[string]any) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprintf(w, "%v", row[c])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
