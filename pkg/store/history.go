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

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ataraxy-labs/sem/pkg/entity"
	"github.com/ataraxy-labs/sem/pkg/parser"
	"github.com/ataraxy-labs/sem/pkg/vcsbridge"
)

const defaultHistoryDepth = 200

// HistoryEntry is one presence/hash transition of an entity across commits,
// newest first.
type HistoryEntry struct {
	CommitSha   string
	ChangeType  entity.ChangeType
	ContentHash string
}

// History tracks one entity backward through filePath's commits, recording
// added/modified/deleted transitions whenever its presence or hash flips
// (spec.md §4.5). entityQuery is either a full
// "<file>::<entityType>::<name>" id or a bare name resolved against
// filePath's current entities.
func History(ctx context.Context, bridge vcsbridge.Bridge, registry *parser.Registry, filePath, entityQuery string, depth int) ([]HistoryEntry, error) {
	if depth <= 0 {
		depth = defaultHistoryDepth
	}

	plugin := registry.GetPlugin(filePath)
	if plugin == nil {
		return nil, fmt.Errorf("store: no plugin registered for %q", filePath)
	}

	commits, err := bridge.CommitsTouching(ctx, filePath, depth+1)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}

	targetID, err := resolveTargetID(ctx, bridge, plugin, commits[0], filePath, entityQuery)
	if err != nil {
		return nil, err
	}

	var history []HistoryEntry

	for i := 0; i < len(commits); i++ {
		newerSha := commits[i]
		var olderSha string
		if i+1 < len(commits) {
			olderSha = commits[i+1]
		}

		newerEnts := extractAt(ctx, bridge, plugin, newerSha, filePath)
		var olderEnts []entity.Entity
		if olderSha != "" {
			olderEnts = extractAt(ctx, bridge, plugin, olderSha, filePath)
		}

		newerHash, newerPresent := findHash(newerEnts, targetID)
		olderHash, olderPresent := findHash(olderEnts, targetID)

		switch {
		case newerPresent && !olderPresent:
			history = append(history, HistoryEntry{CommitSha: newerSha, ChangeType: entity.Added, ContentHash: newerHash})
		case newerPresent && olderPresent && newerHash != olderHash:
			history = append(history, HistoryEntry{CommitSha: newerSha, ChangeType: entity.Modified, ContentHash: newerHash})
		case !newerPresent && olderPresent:
			history = append(history, HistoryEntry{CommitSha: newerSha, ChangeType: entity.Deleted})
		}

		if !newerPresent && !olderPresent {
			// The entity isn't present on either side of this pair; it
			// either hasn't been created yet (scanning backward) or is
			// genuinely absent from this file's whole tracked history.
			continue
		}
		if olderSha == "" {
			break
		}
	}

	return history, nil
}

func resolveTargetID(ctx context.Context, bridge vcsbridge.Bridge, plugin parser.Plugin, sha, filePath, query string) (string, error) {
	if strings.Contains(query, "::") {
		return query, nil
	}

	ents := extractAt(ctx, bridge, plugin, sha, filePath)
	for _, e := range ents {
		if e.Name == query {
			return e.ID, nil
		}
	}
	return "", fmt.Errorf("store: entity %q not found in current version of %q", query, filePath)
}

func findHash(ents []entity.Entity, id string) (string, bool) {
	for _, e := range ents {
		if e.ID == id {
			return e.ContentHash, true
		}
	}
	return "", false
}
