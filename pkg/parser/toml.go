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
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

const tomlMaxDepth = 4

// TOMLPlugin mirrors YAMLPlugin's shape. go-toml/v2 decodes into plain
// maps rather than an order-preserving node tree, so key order here is
// alphabetical rather than source order -- sufficient for the determinism
// property (spec §6, "same inputs yield byte-identical output"), which
// only requires run-to-run stability, not source fidelity.
type TOMLPlugin struct{}

func NewTOMLPlugin() *TOMLPlugin { return &TOMLPlugin{} }

func (p *TOMLPlugin) ID() string           { return "toml" }
func (p *TOMLPlugin) Extensions() []string { return []string{"toml"} }

func (p *TOMLPlugin) ExtractEntities(content []byte, path string) ([]entity.Entity, error) {
	path = entity.NormalizePath(path)
	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}

	var doc map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, nil
	}

	lines := strings.Split(string(content), "\n")
	var out []entity.Entity
	walkTOMLMapping(doc, path, "", "", 0, lines, &out)
	return out, nil
}

func walkTOMLMapping(m map[string]any, path, keyPath, parentID string, depth int, lines []string, out *[]entity.Entity) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := m[key]
		childPath := key
		if keyPath != "" {
			childPath = keyPath + "." + key
		}

		nested, isMap := val.(map[string]any)
		t := entity.Property
		if isMap {
			t = entity.Section
		}

		content := dumpTOMLValue(val, isMap)
		line := findTOMLLine(lines, key)
		ent := entity.Entity{
			ID:          entity.BuildID(path, t, childPath, parentID),
			FilePath:    path,
			EntityType:  t,
			Name:        childPath,
			ParentID:    parentID,
			Content:     content,
			ContentHash: entity.ContentHash(content),
			StartLine:   line,
			EndLine:     line,
		}
		*out = append(*out, ent)

		if isMap && depth+1 < tomlMaxDepth {
			walkTOMLMapping(nested, path, childPath, ent.ID, depth+1, lines, out)
		}
	}
}

func dumpTOMLValue(val any, isMap bool) string {
	if isMap {
		b, err := toml.Marshal(val)
		if err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return fmt.Sprintf("%v", val)
}

func findTOMLLine(lines []string, key string) int {
	bracket := "[" + key + "]"
	eq := key + "="
	eqSpaced := key + " ="
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, bracket) || strings.HasPrefix(t, eq) || strings.HasPrefix(t, eqSpaced) {
			return i + 1
		}
	}
	return 1
}
