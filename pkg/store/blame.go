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

	"github.com/ataraxy-labs/sem/pkg/entity"
	"github.com/ataraxy-labs/sem/pkg/match"
	"github.com/ataraxy-labs/sem/pkg/parser"
	"github.com/ataraxy-labs/sem/pkg/vcsbridge"
)

// defaultBlameDepth bounds how many commits Blame walks before giving up
// on an entity that was never attributed (e.g. present since the repo's
// very first commit, beyond what was fetched).
const defaultBlameDepth = 200

// BlameEntry attributes one entity of the current version of a file to the
// commit that introduced or last changed it.
type BlameEntry struct {
	EntityID    string
	EntityName  string
	EntityType  entity.Type
	FilePath    string
	CommitSha   string
	ContentHash string
}

// Blame walks filePath's history newest-first, attributing every entity in
// its current version to the first commit (scanning backward) where that
// entity's hash differs from the next-older revision, or where the entity
// is freshly present (spec.md §4.5). It stops early once every current
// entity has been attributed.
func Blame(ctx context.Context, bridge vcsbridge.Bridge, registry *parser.Registry, filePath string, depth int) ([]BlameEntry, error) {
	if depth <= 0 {
		depth = defaultBlameDepth
	}

	commits, err := bridge.CommitsTouching(ctx, filePath, depth+1)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}

	plugin := registry.GetPlugin(filePath)
	if plugin == nil {
		return nil, nil
	}

	current := extractAt(ctx, bridge, plugin, commits[0], filePath)
	remaining := make(map[string]entity.Entity, len(current))
	for _, e := range current {
		remaining[e.ID] = e
	}

	attributed := make(map[string]BlameEntry, len(current))
	sim := similarityOf(plugin)

	for i := 0; i < len(commits) && len(remaining) > 0; i++ {
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

		changes := match.Entities(olderEnts, newerEnts, filePath, sim, newerSha, "")
		for _, c := range changes {
			if c.ChangeType != entity.Added && c.ChangeType != entity.Modified {
				continue
			}
			e, wanted := remaining[c.EntityID]
			if !wanted {
				continue
			}
			attributed[c.EntityID] = BlameEntry{
				EntityID:    e.ID,
				EntityName:  e.Name,
				EntityType:  e.EntityType,
				FilePath:    e.FilePath,
				CommitSha:   newerSha,
				ContentHash: e.ContentHash,
			}
			delete(remaining, c.EntityID)
		}
	}

	// Any entity that survived to the oldest fetched commit without a
	// detected change is attributed to that oldest commit: it existed
	// there already and we simply ran out of history to look further back.
	oldest := commits[len(commits)-1]
	for id, e := range remaining {
		attributed[id] = BlameEntry{
			EntityID:    e.ID,
			EntityName:  e.Name,
			EntityType:  e.EntityType,
			FilePath:    e.FilePath,
			CommitSha:   oldest,
			ContentHash: e.ContentHash,
		}
	}

	out := make([]BlameEntry, 0, len(current))
	for _, e := range current {
		if b, ok := attributed[e.ID]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func extractAt(ctx context.Context, bridge vcsbridge.Bridge, plugin parser.Plugin, sha, filePath string) []entity.Entity {
	content := bridge.ShowFile(ctx, sha, filePath)
	if content == nil {
		return nil
	}
	ents, err := plugin.ExtractEntities(content, filePath)
	if err != nil {
		return nil
	}
	return ents
}

func similarityOf(plugin parser.Plugin) match.Similarity {
	sp, ok := plugin.(parser.SimilarityPlugin)
	if !ok {
		return nil
	}
	fn := sp.Similarity()
	if fn == nil {
		return nil
	}
	return func(a, b entity.Entity) float64 { return fn(a, b) }
}
