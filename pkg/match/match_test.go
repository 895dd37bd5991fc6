// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

func fn(id, name, content string) entity.Entity {
	return entity.Entity{
		ID:          id,
		FilePath:    "test.ts",
		EntityType:  entity.Function,
		Name:        name,
		Content:     content,
		ContentHash: entity.ContentHash(content),
	}
}

func TestEntities_IdenticalSnapshotsYieldNoChanges(t *testing.T) {
	set := []entity.Entity{
		fn("test.ts::function::greet", "greet", "function greet(){}"),
		fn("test.ts::function::farewell", "farewell", "function farewell(){}"),
	}
	changes := Entities(set, set, "test.ts", nil, "sha1", "")
	assert.Empty(t, changes)
}

func TestEntities_EmptyBeforeYieldsAllAdded(t *testing.T) {
	after := []entity.Entity{
		fn("test.ts::function::a", "a", "function a(){}"),
		fn("test.ts::function::b", "b", "function b(){}"),
	}
	changes := Entities(nil, after, "test.ts", nil, "sha1", "")
	require.Len(t, changes, len(after))
	for _, c := range changes {
		assert.Equal(t, entity.Added, c.ChangeType)
	}
}

func TestEntities_EmptyAfterYieldsAllDeleted(t *testing.T) {
	before := []entity.Entity{
		fn("test.ts::function::a", "a", "function a(){}"),
		fn("test.ts::function::b", "b", "function b(){}"),
	}
	changes := Entities(before, nil, "test.ts", nil, "sha1", "")
	require.Len(t, changes, len(before))
	for _, c := range changes {
		assert.Equal(t, entity.Deleted, c.ChangeType)
	}
}

func TestEntities_EveryEntityAccountedForAtMostOnce(t *testing.T) {
	before := []entity.Entity{
		fn("test.ts::function::greet", "greet", "function greet(){return 'hi';}"),
		fn("test.ts::function::stale", "stale", "function stale(){}"),
	}
	after := []entity.Entity{
		fn("test.ts::function::greet", "greet", "function greet(){return 'hello';}"),
		fn("test.ts::function::fresh", "fresh", "function fresh(){}"),
	}
	changes := Entities(before, after, "test.ts", nil, "sha1", "")

	seen := make(map[string]int)
	for _, c := range changes {
		seen[c.EntityID]++
	}
	for id, n := range seen {
		assert.LessOrEqualf(t, n, 1, "entity %s counted more than once", id)
	}
	assert.Len(t, changes, 3) // greet modified, stale deleted, fresh added
}

func TestEntities_SameHashPairsUnderPhase2(t *testing.T) {
	content := "function greet(){return 'hi';}"
	before := []entity.Entity{fn("test.ts::function::greet", "greet", content)}
	after := []entity.Entity{fn("test.ts::function::sayHello", "sayHello", content)}

	changes := Entities(before, after, "test.ts", nil, "sha1", "")
	require.Len(t, changes, 1)
	assert.Equal(t, entity.Renamed, changes[0].ChangeType)
	assert.Equal(t, "sayHello", changes[0].EntityName)
}

func TestEntities_OrderWithinBeforeAfterDoesNotChangeResultSet(t *testing.T) {
	before := []entity.Entity{
		fn("test.ts::function::a", "a", "function a(){1}"),
		fn("test.ts::function::b", "b", "function b(){2}"),
	}
	reversedBefore := []entity.Entity{before[1], before[0]}

	after := []entity.Entity{
		fn("test.ts::function::a", "a", "function a(){1}"),
		fn("test.ts::function::b", "b", "function b(){changed}"),
	}

	c1 := Entities(before, after, "test.ts", nil, "sha1", "")
	c2 := Entities(reversedBefore, after, "test.ts", nil, "sha1", "")

	ids1 := changeIDs(c1)
	ids2 := changeIDs(c2)
	assert.ElementsMatch(t, ids1, ids2)
}

func changeIDs(changes []entity.SemanticChange) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.ID
	}
	return out
}

func TestEntities_Deterministic(t *testing.T) {
	before := []entity.Entity{fn("test.ts::function::greet", "greet", "function greet(){return 'hi';}")}
	after := []entity.Entity{fn("test.ts::function::greet", "greet", "function greet(){return 'hello';}")}

	c1 := Entities(before, after, "test.ts", nil, "deadbeef", "alice")
	c2 := Entities(before, after, "test.ts", nil, "deadbeef", "alice")
	require.Equal(t, c1, c2)
}

// Scenario 1: exact modification.
func TestEntities_ExactModification(t *testing.T) {
	before := []entity.Entity{fn("test.ts::function::greet", "greet", "function greet(){return 'hi';}")}
	after := []entity.Entity{fn("test.ts::function::greet", "greet", "function greet(){return 'hello';}")}

	changes := Entities(before, after, "test.ts", nil, "sha1", "")
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, entity.Modified, c.ChangeType)
	assert.Equal(t, "greet", c.EntityName)
	assert.Equal(t, "function greet(){return 'hi';}", c.BeforeContent)
	assert.Equal(t, "function greet(){return 'hello';}", c.AfterContent)
}

// Scenario 3: move across files, same hash.
func TestEntities_MoveAcrossFiles(t *testing.T) {
	content := "function greet(){return 'hi';}"
	before := entity.Entity{
		ID: "old.ts::function::greet", FilePath: "old.ts", EntityType: entity.Function,
		Name: "greet", Content: content, ContentHash: entity.ContentHash(content),
	}
	after := entity.Entity{
		ID: "new.ts::function::greet", FilePath: "new.ts", EntityType: entity.Function,
		Name: "greet", Content: content, ContentHash: entity.ContentHash(content),
	}

	changes := Entities([]entity.Entity{before}, []entity.Entity{after}, "new.ts", nil, "sha1", "")
	require.Len(t, changes, 1)
	assert.Equal(t, entity.Moved, changes[0].ChangeType)
	assert.Equal(t, "old.ts", changes[0].OldFilePath)
}

// Scenario 4: fuzzy rename, > 80% token overlap, differing id and name.
func TestEntities_FuzzyRename(t *testing.T) {
	before := fn("test.ts::function::calculateTotal", "calculateTotal", `function calculateTotal(items) {
	let total = 0;
	for (const item of items) {
		total += item.price * item.quantity;
	}
	return total;
}`)
	after := fn("test.ts::function::computeTotal", "computeTotal", `function computeTotal(items) {
	let total = 0;
	for (const item of items) {
		total += item.price * item.quantity;
	}
	return total;
}`)

	changes := Entities([]entity.Entity{before}, []entity.Entity{after}, "test.ts", nil, "sha1", "")
	require.Len(t, changes, 1)
	assert.Equal(t, entity.Renamed, changes[0].ChangeType)
	assert.Equal(t, "computeTotal", changes[0].EntityName)
}

func TestDefaultSimilarity_IdenticalContentScoresOne(t *testing.T) {
	a := fn("test.ts::function::a", "a", "hello world")
	b := fn("test.ts::function::a", "a", "hello world")
	assert.Equal(t, 1.0, DefaultSimilarity(a, b))
}
