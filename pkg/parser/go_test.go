// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ataraxy-labs/sem/pkg/entity"
	"github.com/ataraxy-labs/sem/pkg/match"
)

func newGoPlugin() *TreeSitterPlugin {
	return NewTreeSitterPlugin(goLanguageConfig())
}

func TestGoPlugin_ExtractsFunctionsAndStructs(t *testing.T) {
	p := newGoPlugin()
	content := []byte(`package main

type Point struct {
	X int
	Y int
}

func Add(a, b int) int {
	return a + b
}

func (pt Point) String() string {
	return "point"
}
`)
	ents, err := p.ExtractEntities(content, "main.go")
	require.NoError(t, err)

	byName := make(map[string]entity.Entity, len(ents))
	for _, e := range ents {
		byName[e.Name] = e
	}

	point, ok := byName["Point"]
	require.True(t, ok)
	assert.Equal(t, entity.Struct, point.EntityType)

	add, ok := byName["Add"]
	require.True(t, ok)
	assert.Equal(t, entity.Function, add.EntityType)
	assert.Equal(t, "a:int, b:int", add.Metadata["params"])

	str, ok := byName["String"]
	require.True(t, ok)
	assert.Equal(t, entity.Method, str.EntityType)
}

func TestGoPlugin_EmptyContentYieldsNoEntities(t *testing.T) {
	p := newGoPlugin()
	ents, err := p.ExtractEntities([]byte(""), "empty.go")
	require.NoError(t, err)
	assert.Empty(t, ents)
}

// Scenario 1: exact entity modification, function body changed, signature same.
func TestGoPlugin_FunctionBodyChangeIsModification(t *testing.T) {
	p := newGoPlugin()
	before, err := p.ExtractEntities([]byte("package main\n\nfunc sum(a, b int) int {\n\treturn a + b\n}\n"), "a.go")
	require.NoError(t, err)
	after, err := p.ExtractEntities([]byte("package main\n\nfunc sum(a, b int) int {\n\treturn a + b + 1\n}\n"), "a.go")
	require.NoError(t, err)

	changes := match.Entities(before, after, "a.go", nil, "sha1", "")
	require.Len(t, changes, 1)
	assert.Equal(t, entity.Modified, changes[0].ChangeType)
	assert.Equal(t, "sum", changes[0].EntityName)
}

// Scenario 4: fuzzy rename, function renamed with a near-identical body.
func TestGoPlugin_FuzzyRenameScenario(t *testing.T) {
	p := newGoPlugin()
	before, err := p.ExtractEntities([]byte(`package main

func calculateTotal(items []int) int {
	total := 0
	for _, item := range items {
		total += item
	}
	return total
}
`), "calc.go")
	require.NoError(t, err)

	after, err := p.ExtractEntities([]byte(`package main

func computeTotal(items []int) int {
	total := 0
	for _, item := range items {
		total += item
	}
	return total
}
`), "calc.go")
	require.NoError(t, err)

	changes := match.Entities(before, after, "calc.go", nil, "sha1", "")
	require.Len(t, changes, 1)
	assert.Equal(t, entity.Renamed, changes[0].ChangeType)
	assert.Equal(t, "computeTotal", changes[0].EntityName)
}
