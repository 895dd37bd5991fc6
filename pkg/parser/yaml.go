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
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

const yamlMaxDepth = 4

// YAMLPlugin walks a YAML document's mapping nodes, using yaml.v3's Node
// API (already a teacher dependency for config loading) rather than
// decoding into map[string]any, since the latter loses key order.
type YAMLPlugin struct{}

func NewYAMLPlugin() *YAMLPlugin { return &YAMLPlugin{} }

func (p *YAMLPlugin) ID() string           { return "yaml" }
func (p *YAMLPlugin) Extensions() []string { return []string{"yaml", "yml"} }

func (p *YAMLPlugin) ExtractEntities(content []byte, path string) ([]entity.Entity, error) {
	path = entity.NormalizePath(path)
	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, nil
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil
	}

	lines := strings.Split(string(content), "\n")
	var out []entity.Entity
	walkYAMLMapping(root, path, "", "", 0, lines, &out)
	return out, nil
}

func walkYAMLMapping(node *yaml.Node, path, keyPath, parentID string, depth int, lines []string, out *[]entity.Entity) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]
		key := keyNode.Value

		childPath := key
		if keyPath != "" {
			childPath = keyPath + "." + key
		}

		t := entity.Property
		if valNode.Kind == yaml.MappingNode {
			t = entity.Section
		}

		content := dumpYAMLNode(valNode)
		line := findYAMLLine(lines, key)
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

		if valNode.Kind == yaml.MappingNode && depth+1 < yamlMaxDepth {
			walkYAMLMapping(valNode, path, childPath, ent.ID, depth+1, lines, out)
		}
	}
}

func dumpYAMLNode(node *yaml.Node) string {
	b, err := yaml.Marshal(node)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func findYAMLLine(lines []string, key string) int {
	prefix := key + ":"
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), prefix) {
			return i + 1
		}
	}
	return 1
}
