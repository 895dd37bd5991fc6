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

func TestTOMLPlugin_EmptyFileYieldsNoEntities(t *testing.T) {
	p := NewTOMLPlugin()
	ents, err := p.ExtractEntities([]byte(""), "config.toml")
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestTOMLPlugin_DottedNaming(t *testing.T) {
	p := NewTOMLPlugin()
	ents, err := p.ExtractEntities([]byte("[server]\nhost = \"localhost\"\n"), "config.toml")
	require.NoError(t, err)

	names := make(map[string]entity.Type)
	for _, e := range ents {
		names[e.Name] = e.EntityType
	}
	assert.Equal(t, entity.Section, names["server"])
	assert.Equal(t, entity.Property, names["server.host"])
}

func TestTOMLPlugin_PropertyChangeScenario(t *testing.T) {
	p := NewTOMLPlugin()
	before, err := p.ExtractEntities([]byte("[server]\nhost = \"localhost\"\nport = 8080\n"), "config.toml")
	require.NoError(t, err)
	after, err := p.ExtractEntities([]byte("[server]\nhost = \"0.0.0.0\"\nport = 8080\n"), "config.toml")
	require.NoError(t, err)

	changes := match.Entities(before, after, "config.toml", nil, "sha1", "")

	byName := make(map[string]entity.SemanticChange)
	for _, c := range changes {
		byName[c.EntityName] = c
	}
	host, ok := byName["server.host"]
	require.True(t, ok)
	assert.Equal(t, entity.Modified, host.ChangeType)
	assert.NotContains(t, byName, "server.port")
}
