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

// Package ui is cmd/sem's terminal rendering layer: colored headers,
// labels, and status lines built on fatih/color.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Color handles, initialised by InitColors. Subcommands print through
// these rather than constructing *color.Color values themselves.
var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Cyan   = color.New(color.FgCyan)
	Dim    = color.New(color.Faint)
)

// InitColors disables color output across every handle above when
// noColor is true or the output isn't a terminal (caller decides which).
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Header prints a bold section header.
func Header(title string) {
	c := color.New(color.Bold)
	_, _ = c.Println(title)
}

// SubHeader prints a secondary, less prominent section header.
func SubHeader(title string) {
	_, _ = Dim.Println(title)
}

// Label formats a left-hand label for a "Label: value" line.
func Label(s string) string {
	c := color.New(color.Bold)
	return c.Sprint(s)
}

// DimText renders s in the faint color, for secondary detail on a line.
func DimText(s string) string {
	return Dim.Sprint(s)
}

// CountText renders a count, in yellow when zero and green otherwise --
// callers use this for summary lines like "Files: <count>".
func CountText(n int) string {
	if n == 0 {
		return Yellow.Sprint(n)
	}
	return Green.Sprint(n)
}

func Info(msg string)                     { fmt.Println(msg) }
func Infof(format string, args ...any)    { fmt.Printf(format+"\n", args...) }
func Success(msg string)                  { _, _ = Green.Println(msg) }
func Successf(format string, args ...any) { _, _ = Green.Printf(format+"\n", args...) }
func Warning(msg string)                  { _, _ = Yellow.Fprintln(os.Stderr, msg) }
func Warningf(format string, args ...any)  { _, _ = Yellow.Fprintf(os.Stderr, format+"\n", args...) }
