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

func TestMarkdownPlugin_EmptyFileYieldsNoEntities(t *testing.T) {
	p := NewMarkdownPlugin()
	ents, err := p.ExtractEntities([]byte(""), "README.md")
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestMarkdownPlugin_HeadingsNestUnderParent(t *testing.T) {
	p := NewMarkdownPlugin()
	content := "# Title\n\nintro text\n\n## Usage\n\nhow to use it\n\n### Advanced\n\ndetails\n"
	ents, err := p.ExtractEntities([]byte(content), "README.md")
	require.NoError(t, err)

	byName := make(map[string]entity.Entity, len(ents))
	for _, e := range ents {
		byName[e.Name] = e
	}

	title, ok := byName["Title"]
	require.True(t, ok)
	assert.Equal(t, entity.Heading, title.EntityType)
	assert.Equal(t, "", title.ParentID)

	usage, ok := byName["Usage"]
	require.True(t, ok)
	assert.Equal(t, title.ID, usage.ParentID)

	advanced, ok := byName["Advanced"]
	require.True(t, ok)
	assert.Equal(t, usage.ID, advanced.ParentID)
}

func TestMarkdownPlugin_IgnoresHashInsideFencedCodeBlock(t *testing.T) {
	p := NewMarkdownPlugin()
	content := "# Title\n\n```\n# not a heading\n```\n\n## Real Section\n\nbody\n"
	ents, err := p.ExtractEntities([]byte(content), "README.md")
	require.NoError(t, err)

	for _, e := range ents {
		assert.NotEqual(t, "not a heading", e.Name)
	}
}

func TestMarkdownPlugin_SectionBodyEditScenario(t *testing.T) {
	p := NewMarkdownPlugin()
	before, err := p.ExtractEntities([]byte("# Title\n\n## Usage\n\nold instructions\n"), "README.md")
	require.NoError(t, err)
	after, err := p.ExtractEntities([]byte("# Title\n\n## Usage\n\nnew instructions\n"), "README.md")
	require.NoError(t, err)

	changes := match.Entities(before, after, "README.md", nil, "sha1", "")

	byName := make(map[string]entity.SemanticChange)
	for _, c := range changes {
		byName[c.EntityName] = c
	}
	usage, ok := byName["Usage"]
	require.True(t, ok)
	assert.Equal(t, entity.Modified, usage.ChangeType)
}
