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

func TestJSONPlugin_EmptyFileYieldsNoEntities(t *testing.T) {
	p := NewJSONPlugin()
	ents, err := p.ExtractEntities([]byte(""), "config.json")
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestJSONPlugin_PointerNaming(t *testing.T) {
	p := NewJSONPlugin()
	ents, err := p.ExtractEntities([]byte(`{"version":"1.0.0","nested":{"key":"value"}}`), "config.json")
	require.NoError(t, err)

	names := make(map[string]entity.Type)
	for _, e := range ents {
		names[e.Name] = e.EntityType
	}
	assert.Equal(t, entity.Property, names["/version"])
	assert.Equal(t, entity.Object, names["/nested"])
	assert.Equal(t, entity.Property, names["/nested/key"])
}

// Scenario 5: JSON property change.
func TestJSONPlugin_PropertyChangeScenario(t *testing.T) {
	p := NewJSONPlugin()

	before, err := p.ExtractEntities([]byte(`{"version":"1.0.0"}`), "config.json")
	require.NoError(t, err)

	after, err := p.ExtractEntities([]byte(`{"version":"2.0.0","logLevel":"info"}`), "config.json")
	require.NoError(t, err)

	changes := match.Entities(before, after, "config.json", nil, "sha1", "")

	byName := make(map[string]entity.SemanticChange)
	for _, c := range changes {
		byName[c.EntityName] = c
	}

	modified, ok := byName["/version"]
	require.True(t, ok, "expected a change for /version")
	assert.Equal(t, entity.Modified, modified.ChangeType)

	added, ok := byName["/logLevel"]
	require.True(t, ok, "expected a change for /logLevel")
	assert.Equal(t, entity.Added, added.ChangeType)
}
