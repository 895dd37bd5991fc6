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

// Package diff walks a list of file changes, dispatches each to the parser
// registry, runs the matcher, and aggregates the results into one
// DiffResult.
package diff

import (
	"context"
	"runtime"
	"sync"

	"github.com/ataraxy-labs/sem/pkg/entity"
	"github.com/ataraxy-labs/sem/pkg/match"
	"github.com/ataraxy-labs/sem/pkg/parser"
)

// Summary is the per-changetype rollup of a DiffResult.
type Summary struct {
	FileCount int `json:"fileCount"`
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Deleted   int `json:"deleted"`
	Moved     int `json:"moved"`
	Renamed   int `json:"renamed"`
	Total     int `json:"total"`
}

// Result is the output of ComputeSemanticDiff: the wire shape matches the
// JSON schema in spec §6.
type Result struct {
	Summary Summary                 `json:"summary"`
	Changes []entity.SemanticChange `json:"changes"`

	// Files is the deduplicated set of paths that contributed at least
	// one change, in the order they were first encountered.
	Files []string `json:"-"`
}

// minParallelFiles below this count, a sequential pass avoids the
// worker-pool's goroutine and channel overhead, mirroring the teacher's
// parseFilesParallel fallback threshold.
const minParallelFiles = 10

// ComputeSemanticDiff is the library's primary entry point (spec §6). It
// looks up a plugin per file, extracts before/after entities, matches
// them, and aggregates a single Result. File order in Result.Changes
// follows the order files were received, per spec §5's ordering guarantee.
func ComputeSemanticDiff(ctx context.Context, files []entity.FileChange, registry *parser.Registry, commitSha, author string) (*Result, error) {
	return computeSemanticDiff(ctx, files, registry, commitSha, author, runtime.GOMAXPROCS(0))
}

func computeSemanticDiff(ctx context.Context, files []entity.FileChange, registry *parser.Registry, commitSha, author string, numWorkers int) (*Result, error) {
	results := make([][]entity.SemanticChange, len(files))

	if len(files) < minParallelFiles || numWorkers <= 1 {
		for i, fc := range files {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			results[i] = processFileChange(fc, registry, commitSha, author)
		}
		return aggregate(files, results), nil
	}

	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results[i] = processFileChange(files[i], registry, commitSha, author)
			}
		}()
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return aggregate(files, results), nil
}

func processFileChange(fc entity.FileChange, registry *parser.Registry, commitSha, author string) []entity.SemanticChange {
	plugin := registry.GetPlugin(fc.FilePath)
	if plugin == nil {
		return nil
	}

	beforePath := fc.FilePath
	if fc.Status == entity.FileRenamed && fc.OldFilePath != "" {
		beforePath = fc.OldFilePath
	}

	before := safeExtract(plugin, fc.BeforeContent, beforePath)
	after := safeExtract(plugin, fc.AfterContent, fc.FilePath)

	return match.Entities(before, after, fc.FilePath, similarityFor(plugin), commitSha, author)
}

// safeExtract parses one side of a FileChange inside a recover boundary:
// a plugin panic or error yields an empty entity list and never reaches a
// sibling file (spec §4.4, §7).
func safeExtract(plugin parser.Plugin, content []byte, path string) (result []entity.Entity) {
	if plugin == nil || content == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()

	ents, err := plugin.ExtractEntities(content, path)
	if err != nil {
		return nil
	}
	return ents
}

func similarityFor(plugin parser.Plugin) match.Similarity {
	sp, ok := plugin.(parser.SimilarityPlugin)
	if !ok {
		return nil
	}
	fn := sp.Similarity()
	if fn == nil {
		return nil
	}
	return func(a, b entity.Entity) float64 { return fn(a, b) }
}

func aggregate(files []entity.FileChange, results [][]entity.SemanticChange) *Result {
	var changes []entity.SemanticChange
	var fileOrder []string
	seen := make(map[string]bool, len(files))

	for i, fc := range files {
		fileChanges := results[i]
		if len(fileChanges) == 0 {
			continue
		}
		changes = append(changes, fileChanges...)
		if !seen[fc.FilePath] {
			seen[fc.FilePath] = true
			fileOrder = append(fileOrder, fc.FilePath)
		}
	}

	summary := Summary{FileCount: len(fileOrder), Total: len(changes)}
	for _, c := range changes {
		switch c.ChangeType {
		case entity.Added:
			summary.Added++
		case entity.Modified:
			summary.Modified++
		case entity.Deleted:
			summary.Deleted++
		case entity.Moved:
			summary.Moved++
		case entity.Renamed:
			summary.Renamed++
		}
	}

	return &Result{Summary: summary, Changes: changes, Files: fileOrder}
}
