// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildID_NameContainingDoubleColonStaysAddressable(t *testing.T) {
	name := "weird::name::with::colons"
	id := BuildID("config.yaml", Property, name, "")

	// The literal name is preserved verbatim inside the ID; callers address
	// entities by the full ID string rather than re-parsing it apart.
	assert.Contains(t, id, name)

	other := BuildID("config.yaml", Property, "different", "")
	assert.NotEqual(t, id, other)
}

func TestBuildID_NestedUsesParentID(t *testing.T) {
	parent := BuildID("config.yaml", Section, "server", "")
	child := BuildID("config.yaml", Property, "host", parent)
	assert.Equal(t, "config.yaml::"+parent+"::host", child)
}

func TestContentHash_SameInputSameHash(t *testing.T) {
	assert.Equal(t, ContentHash("abc"), ContentHash("abc"))
	assert.NotEqual(t, ContentHash("abc"), ContentHash("abd"))
}

func TestShortHash_BoundsLength(t *testing.T) {
	h := ContentHash("abc")
	assert.Len(t, ShortHash(h, 8), 8)
	assert.Equal(t, h, ShortHash(h, len(h)+10))
	assert.Equal(t, "", ShortHash(h, -1))
}
