// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackPlugin_EmptyFileYieldsZeroChunks(t *testing.T) {
	p := NewFallbackPlugin()
	ents, err := p.ExtractEntities([]byte(""), "data.bin")
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestFallbackPlugin_TolerantOfInvalidUTF8(t *testing.T) {
	p := NewFallbackPlugin()
	garbage := []byte{0xff, 0xfe, 0x00, 0x01, '\n', 0x80, 0x81}
	ents, err := p.ExtractEntities(garbage, "data.bin")
	require.NoError(t, err)
	require.NotEmpty(t, ents)
}

func TestFallbackPlugin_ChunksByLineCount(t *testing.T) {
	p := NewFallbackPlugin()

	var content string
	for i := 0; i < 45; i++ {
		content += "line\n"
	}

	ents, err := p.ExtractEntities([]byte(content), "notes.txt")
	require.NoError(t, err)
	assert.Len(t, ents, 3) // 46 lines (trailing empty split) across 20-line chunks
}
