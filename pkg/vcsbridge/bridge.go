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

// Package vcsbridge is the core's sole I/O suspension point: it reads file
// lists and blobs at revisions from an external version-control process.
// The core never shells out directly; it only consumes the Bridge
// interface.
package vcsbridge

import (
	"context"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// ScopeType is the kind of comparison a DiffScope describes.
type ScopeType string

const (
	Working ScopeType = "working" // HEAD vs worktree
	Staged  ScopeType = "staged"  // HEAD vs index
	Commit  ScopeType = "commit"  // parent vs commit
	Range   ScopeType = "range"   // from vs to
)

// DiffScope selects which two trees GetChangedFiles compares.
type DiffScope struct {
	Type ScopeType
	Sha  string // set when Type == Commit
	From string // set when Type == Range
	To   string // set when Type == Range
}

// Bridge is the VCS bridge interface the core consumes (spec §6). Every
// method may block on an external process; callers should pass a
// cancellable context through GetChangedFiles.
type Bridge interface {
	IsRepo() bool
	RepoRoot() (string, error)
	CurrentBranch() (string, error)
	HeadSha() (string, error)
	DetectScope(ctx context.Context) (DiffScope, error)
	GetChangedFiles(ctx context.Context, scope DiffScope) ([]entity.FileChange, error)

	// CommitsTouching returns, newest first, up to depth commit shas whose
	// tree changed filePath. Used by blame/history (spec.md §4.5).
	CommitsTouching(ctx context.Context, filePath string, depth int) ([]string, error)

	// ShowFile returns filePath's content at sha, or nil if it didn't
	// exist there.
	ShowFile(ctx context.Context, sha, filePath string) []byte
}

// semDir is the per-repository state directory; paths under it are never
// surfaced as file changes (spec §6 "On-disk state").
const semDir = ".sem/"
