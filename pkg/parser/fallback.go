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
	"strings"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

const fallbackChunkLines = 20

// FallbackPlugin guarantees every file has *some* diffable entities, even
// when no grammar or format plugin applies. It never errors: binary and
// invalid-UTF-8 content is chunked on raw bytes split by '\n', same as any
// other file.
type FallbackPlugin struct{}

func NewFallbackPlugin() *FallbackPlugin { return &FallbackPlugin{} }

func (p *FallbackPlugin) ID() string           { return "fallback" }
func (p *FallbackPlugin) Extensions() []string { return nil }

func (p *FallbackPlugin) ExtractEntities(content []byte, path string) ([]entity.Entity, error) {
	path = entity.NormalizePath(path)
	if len(content) == 0 {
		return nil, nil
	}

	lines := strings.Split(string(content), "\n")
	var out []entity.Entity

	for start := 0; start < len(lines); start += fallbackChunkLines {
		end := start + fallbackChunkLines
		if end > len(lines) {
			end = len(lines)
		}
		name := fmt.Sprintf("lines %d-%d", start+1, end)
		chunk := strings.Join(lines[start:end], "\n")
		out = append(out, entity.Entity{
			ID:          entity.BuildID(path, entity.Chunk, name, ""),
			FilePath:    path,
			EntityType:  entity.Chunk,
			Name:        name,
			Content:     chunk,
			ContentHash: entity.ContentHash(chunk),
			StartLine:   start + 1,
			EndLine:     end,
		})
	}

	return out, nil
}
