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

// Package parser hosts the pluggable entity-extraction registry: one plugin
// per source format, dispatched by file extension, producing the uniform
// entity.Entity model consumed by pkg/match and pkg/diff.
package parser

import "github.com/ataraxy-labs/sem/pkg/entity"

// Plugin extracts entities from a file's raw bytes. Implementations MUST
// NOT panic on malformed input: a parse failure is reported by returning an
// empty entity list, never by crashing (spec §4.1, §7).
type Plugin interface {
	// ID is a short, stable name for the plugin (e.g. "go", "json", "fallback").
	ID() string

	// Extensions lists the file extensions this plugin claims, without the
	// leading dot, lower-case (e.g. "go", "ts", "tsx").
	Extensions() []string

	// ExtractEntities parses path's content and returns its entities.
	ExtractEntities(content []byte, path string) ([]entity.Entity, error)
}

// SimilarityFunc scores how alike two entities of the same EntityType are,
// in [0,1]. Plugins may supply a language-aware implementation; the matcher
// falls back to DefaultSimilarity (Jaccard token overlap) otherwise.
type SimilarityFunc func(a, b entity.Entity) float64

// SimilarityPlugin is implemented by plugins that want to override the
// matcher's default similarity function for their own entity kinds.
type SimilarityPlugin interface {
	Similarity() SimilarityFunc
}
