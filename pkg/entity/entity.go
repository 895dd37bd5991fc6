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

// Package entity defines the canonical entity model shared by every parser
// plugin, the matching engine, the diff orchestrator, and the storage layer.
package entity

import "strings"

// Type is the canonical, closed set of entity kinds a plugin may emit.
type Type string

const (
	Function  Type = "function"
	Method    Type = "method"
	Class     Type = "class"
	Interface Type = "interface"
	TypeKind  Type = "type"
	Enum      Type = "enum"
	Struct    Type = "struct"
	Impl      Type = "impl"
	Trait     Type = "trait"
	Module    Type = "module"
	Constant  Type = "constant"
	Static    Type = "static"
	Variable  Type = "variable"
	Property  Type = "property"
	Section   Type = "section"
	Element   Type = "element"
	Row       Type = "row"
	Heading   Type = "heading"
	Preamble  Type = "preamble"
	Chunk     Type = "chunk"
	Export    Type = "export"
	Object    Type = "object" // nested JSON object container, see parser.JSONPlugin
)

// Entity is a named, locatable unit of meaning inside a file, as produced by
// a parser plugin. Entities are pure values: created once by a plugin,
// compared by the matcher, and never mutated.
type Entity struct {
	// ID has the form "<filePath>::<entityType>::<name>", or
	// "<filePath>::<parentId>::<name>" when nested. Unique within a
	// (file, revision) pair.
	ID string

	// FilePath is the path relative to the repository root, forward-slash
	// normalised.
	FilePath string

	// EntityType is one of the canonical Type values above.
	EntityType Type

	// Name is the human identifier. For path-structured sources (JSON,
	// YAML, TOML) this is the dotted or RFC-6901 pointer path.
	Name string

	// ParentID is the ID of the enclosing entity, or "" if top-level.
	ParentID string

	// Content is the exact byte slice of the entity.
	Content string

	// ContentHash is the hex SHA-256 digest of Content after
	// format-specific normalisation (see pkg/entity.ContentHash).
	ContentHash string

	// StartLine and EndLine are 1-based inclusive line numbers.
	StartLine int
	EndLine   int

	// Metadata holds optional free-form string pairs, e.g. CSV column
	// values keyed by header name.
	Metadata map[string]string
}

// NormalizePath converts a filesystem path to the forward-slash form
// entity IDs are built from.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// BuildID constructs the canonical "<filePath>::<entityType>::<name>" id,
// or, when parentID is non-empty, "<filePath>::<parentId>::<name>" per
// spec. The literal name is preserved verbatim, including any "::" it may
// contain — addressing is always by the full ID string, never by parsing
// it back apart.
func BuildID(filePath string, entityType Type, name string, parentID string) string {
	filePath = NormalizePath(filePath)
	if parentID != "" {
		return filePath + "::" + parentID + "::" + name
	}
	return filePath + "::" + string(entityType) + "::" + name
}

// Snapshot is a named collection of entities in the store. The default
// snapshot is "current"; history snapshots are keyed by commit SHA.
type Snapshot struct {
	Name string
}

const CurrentSnapshot = "current"
