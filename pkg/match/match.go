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

// Package match implements the three-phase entity matcher: exact identity,
// structural hash, and fuzzy similarity, in that strict order.
package match

import (
	"strings"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// fuzzyThreshold is the minimum Jaccard (or plugin-supplied) similarity
// score phase 3 accepts as a match.
const fuzzyThreshold = 0.80

// Similarity scores how alike two entities of the same EntityType are, in
// [0,1]. A plugin may substitute a language-aware implementation for
// DefaultSimilarity.
type Similarity func(a, b entity.Entity) float64

// DefaultSimilarity is Jaccard overlap over whitespace-split tokens of raw
// content (spec §4.3).
func DefaultSimilarity(a, b entity.Entity) float64 {
	ta := tokenSet(a.Content)
	tb := tokenSet(b.Content)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}

	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// Entities runs the three-phase matcher over before/after entity lists
// from the same filePath and returns the resulting changes in the order
// fixed by spec §5: phase order, then insertion order within a phase.
//
// sim defaults to DefaultSimilarity when nil. commitSha and author are
// stamped onto every emitted change as-is.
func Entities(before, after []entity.Entity, filePath string, sim Similarity, commitSha, author string) []entity.SemanticChange {
	_ = filePath // each entity already carries its own FilePath from the parser
	if sim == nil {
		sim = DefaultSimilarity
	}

	matchedBefore := make([]bool, len(before))
	matchedAfter := make([]bool, len(after))

	var changes []entity.SemanticChange

	// Phase 1: exact identity match on entity ID.
	beforeByID := make(map[string]int, len(before))
	for i, e := range before {
		beforeByID[e.ID] = i
	}
	for ai, a := range after {
		bi, ok := beforeByID[a.ID]
		if !ok {
			continue
		}
		matchedBefore[bi] = true
		matchedAfter[ai] = true
		b := before[bi]
		if b.ContentHash != a.ContentHash {
			changes = append(changes, modifiedChange(b, a, commitSha, author))
		}
	}

	// Phase 2: structural hash, one FIFO queue per hash over the
	// still-unmatched before entities, in their original insertion order.
	hashQueues := make(map[string][]int)
	for i, e := range before {
		if !matchedBefore[i] {
			hashQueues[e.ContentHash] = append(hashQueues[e.ContentHash], i)
		}
	}
	for ai, a := range after {
		if matchedAfter[ai] {
			continue
		}
		q := hashQueues[a.ContentHash]
		if len(q) == 0 {
			continue
		}
		bi := q[0]
		hashQueues[a.ContentHash] = q[1:]
		matchedBefore[bi] = true
		matchedAfter[ai] = true
		changes = append(changes, movedOrRenamedChange(before[bi], a, commitSha, author))
	}

	// Phase 3: greedy fuzzy match among same-EntityType residuals. A
	// before entity claimed by one pairing leaves the pool immediately, so
	// later after-entities never reconsider it.
	var residualBefore []int
	for i := range before {
		if !matchedBefore[i] {
			residualBefore = append(residualBefore, i)
		}
	}
	for ai := range after {
		if matchedAfter[ai] {
			continue
		}
		a := after[ai]

		bestPos, bestIdx, bestScore := -1, -1, -1.0
		for pos, bi := range residualBefore {
			b := before[bi]
			if b.EntityType != a.EntityType {
				continue
			}
			score := sim(b, a)
			if score > bestScore {
				bestScore, bestIdx, bestPos = score, bi, pos
			}
		}
		if bestIdx < 0 || bestScore < fuzzyThreshold {
			continue
		}

		matchedBefore[bestIdx] = true
		matchedAfter[ai] = true
		changes = append(changes, movedOrRenamedChange(before[bestIdx], a, commitSha, author))
		residualBefore = append(residualBefore[:bestPos], residualBefore[bestPos+1:]...)
	}

	// Terminal phase: whatever is left is a pure deletion or pure addition.
	for i, e := range before {
		if !matchedBefore[i] {
			changes = append(changes, deletedChange(e, commitSha, author))
		}
	}
	for ai, e := range after {
		if !matchedAfter[ai] {
			changes = append(changes, addedChange(e, commitSha, author))
		}
	}

	return changes
}

func modifiedChange(before, after entity.Entity, commitSha, author string) entity.SemanticChange {
	return entity.SemanticChange{
		ID:            changeID(entity.Modified, after.ID, commitSha),
		EntityID:      after.ID,
		ChangeType:    entity.Modified,
		EntityType:    after.EntityType,
		EntityName:    after.Name,
		FilePath:      after.FilePath,
		BeforeContent: before.Content,
		AfterContent:  after.Content,
		CommitSha:     commitSha,
		Author:        author,
	}
}

func movedOrRenamedChange(before, after entity.Entity, commitSha, author string) entity.SemanticChange {
	ct := entity.Renamed
	if before.FilePath != after.FilePath {
		ct = entity.Moved
	}
	return entity.SemanticChange{
		ID:            changeID(ct, after.ID, commitSha),
		EntityID:      after.ID,
		ChangeType:    ct,
		EntityType:    after.EntityType,
		EntityName:    after.Name,
		FilePath:      after.FilePath,
		OldFilePath:   before.FilePath,
		BeforeContent: before.Content,
		AfterContent:  after.Content,
		CommitSha:     commitSha,
		Author:        author,
	}
}

func deletedChange(before entity.Entity, commitSha, author string) entity.SemanticChange {
	return entity.SemanticChange{
		ID:            changeID(entity.Deleted, before.ID, commitSha),
		EntityID:      before.ID,
		ChangeType:    entity.Deleted,
		EntityType:    before.EntityType,
		EntityName:    before.Name,
		FilePath:      before.FilePath,
		BeforeContent: before.Content,
		CommitSha:     commitSha,
		Author:        author,
	}
}

func addedChange(after entity.Entity, commitSha, author string) entity.SemanticChange {
	return entity.SemanticChange{
		ID:           changeID(entity.Added, after.ID, commitSha),
		EntityID:     after.ID,
		ChangeType:   entity.Added,
		EntityType:   after.EntityType,
		EntityName:   after.Name,
		FilePath:     after.FilePath,
		AfterContent: after.Content,
		CommitSha:    commitSha,
		Author:       author,
	}
}

// changeID derives a stable identifier from the change's own fields, so
// that two runs over identical inputs produce byte-identical change IDs
// (spec §6 determinism) rather than a random UUID.
func changeID(ct entity.ChangeType, entityID, commitSha string) string {
	return entity.ContentHash(string(ct) + "::" + entityID + "::" + commitSha)
}
