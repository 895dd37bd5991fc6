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

package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// jsonMaxDepth bounds recursion so a deeply nested config file doesn't
// flood the entity list; root is depth 0 (spec §4.1).
const jsonMaxDepth = 3

// JSONPlugin walks a JSON document in source order (jsonparser.ObjectEach
// preserves document order, unlike a map[string]any decode) and emits one
// entity per key, named by its RFC-6901 pointer.
type JSONPlugin struct{}

func NewJSONPlugin() *JSONPlugin { return &JSONPlugin{} }

func (p *JSONPlugin) ID() string           { return "json" }
func (p *JSONPlugin) Extensions() []string { return []string{"json"} }

func (p *JSONPlugin) ExtractEntities(content []byte, path string) ([]entity.Entity, error) {
	path = entity.NormalizePath(path)
	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}

	var out []entity.Entity
	if err := walkJSONObject(content, path, "", "", 0, &out); err != nil {
		// Root is not an object (top-level array or scalar document);
		// try the array shape before giving up.
		out = nil
		walkJSONArray(content, path, "", "", 0, &out)
	}
	return out, nil
}

func escapeJSONPointerSegment(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}

func walkJSONObject(data []byte, path, pointer, parentID string, depth int, out *[]entity.Entity) error {
	return jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		childPointer := pointer + "/" + escapeJSONPointerSegment(string(key))
		switch dataType {
		case jsonparser.Object:
			ent := buildJSONEntity(path, childPointer, parentID, entity.Object, value)
			*out = append(*out, ent)
			if depth+1 < jsonMaxDepth {
				_ = walkJSONObject(value, path, childPointer, ent.ID, depth+1, out)
			}
		case jsonparser.Array:
			walkJSONArray(value, path, childPointer, parentID, depth+1, out)
		default:
			*out = append(*out, buildJSONEntity(path, childPointer, parentID, entity.Property, value))
		}
		return nil
	})
}

func walkJSONArray(data []byte, path, pointer, parentID string, depth int, out *[]entity.Entity) {
	idx := 0
	_, _ = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		defer func() { idx++ }()
		if err != nil || dataType != jsonparser.Object {
			return
		}
		childPointer := fmt.Sprintf("%s/%d", pointer, idx)
		ent := buildJSONEntity(path, childPointer, parentID, entity.Element, value)
		*out = append(*out, ent)
		if depth < jsonMaxDepth {
			_ = walkJSONObject(value, path, childPointer, ent.ID, depth, out)
		}
	})
}

func buildJSONEntity(path, pointer, parentID string, t entity.Type, raw []byte) entity.Entity {
	name := pointer
	if name == "" {
		name = "/"
	}
	content := prettyJSON(raw)
	return entity.Entity{
		ID:          entity.BuildID(path, t, name, parentID),
		FilePath:    path,
		EntityType:  t,
		Name:        name,
		ParentID:    parentID,
		Content:     content,
		ContentHash: entity.ContentHash(content),
		StartLine:   1,
		EndLine:     1,
	}
}

func prettyJSON(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(b)
}
