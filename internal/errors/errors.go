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

// Package errors gives cmd/sem one tagged user-facing error type, so the
// CLI can report a title, a detail, and a fix suggestion instead of a bare
// Go error string, and exit non-zero through a single FatalError path.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind classifies a UserError onto spec.md §7's error kinds.
type Kind string

const (
	KindConfig     Kind = "config"
	KindInput      Kind = "input"
	KindDatabase   Kind = "database"
	KindNetwork    Kind = "network"
	KindPermission Kind = "permission"
	KindInternal   Kind = "internal"
)

// UserError is a CLI-facing error: a short title, a longer detail, an
// actionable suggestion, and the underlying cause (if any).
type UserError struct {
	Kind       Kind
	Title      string
	Detail     string
	Suggestion string
	Cause      error
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *UserError) Unwrap() error { return e.Cause }

func newError(kind Kind, title, detail, suggestion string, cause error) *UserError {
	return &UserError{Kind: kind, Title: title, Detail: detail, Suggestion: suggestion, Cause: cause}
}

func NewConfigError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindConfig, title, detail, suggestion, cause)
}

func NewInputError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindInput, title, detail, suggestion, cause)
}

func NewDatabaseError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindDatabase, title, detail, suggestion, cause)
}

func NewNetworkError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindNetwork, title, detail, suggestion, cause)
}

func NewPermissionError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindPermission, title, detail, suggestion, cause)
}

func NewInternalError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindInternal, title, detail, suggestion, cause)
}

// jsonError is the shape FatalError prints in --json mode.
type jsonError struct {
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	Detail     string `json:"detail,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// FatalError prints err (as JSON when jsonMode, else as a short human
// message with the suggestion on its own line) and exits with status 1.
// A plain (non-UserError) err is reported as an internal error.
func FatalError(err error, jsonMode bool) {
	ue, ok := err.(*UserError)
	if !ok {
		ue = NewInternalError("Unexpected error", err.Error(), "", err)
	}

	if jsonMode {
		enc, encErr := json.Marshal(jsonError{
			Kind: ue.Kind, Title: ue.Title, Detail: ue.Detail, Suggestion: ue.Suggestion,
		})
		if encErr == nil {
			fmt.Fprintln(os.Stderr, string(enc))
		} else {
			fmt.Fprintln(os.Stderr, ue.Error())
		}
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", ue.Title)
		if ue.Detail != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", ue.Detail)
		}
		if ue.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", ue.Suggestion)
		}
	}

	os.Exit(1)
}
