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
	"regexp"
	"strings"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// FortranPlugin extracts module/subroutine/function/type entities with line
// matching rather than a tree-sitter grammar: smacker/go-tree-sitter ships no
// Fortran grammar, the same gap the teacher hit for protobuf, handled there
// by a line-pattern pass instead of leaving the language unsupported. This
// plugin follows that precedent.
type FortranPlugin struct{}

func NewFortranPlugin() *FortranPlugin { return &FortranPlugin{} }

func (p *FortranPlugin) ID() string           { return "fortran" }
func (p *FortranPlugin) Extensions() []string { return []string{"f90", "f95", "f03", "f08", "for", "f"} }

var (
	fortranModuleRe     = regexp.MustCompile(`(?i)^\s*module\s+(\w+)\s*$`)
	fortranEndModuleRe  = regexp.MustCompile(`(?i)^\s*end\s*module\b`)
	fortranSubroutineRe = regexp.MustCompile(`(?i)^\s*(?:recursive\s+)?subroutine\s+(\w+)`)
	fortranEndSubRe     = regexp.MustCompile(`(?i)^\s*end\s*subroutine\b`)
	fortranFunctionRe   = regexp.MustCompile(`(?i)^\s*(?:[a-z0-9_()*]+\s+)*?(?:recursive\s+)?function\s+(\w+)`)
	fortranEndFuncRe    = regexp.MustCompile(`(?i)^\s*end\s*function\b`)
	fortranTypeRe       = regexp.MustCompile(`(?i)^\s*type\s*(?:,\s*\w+\s*)*(?:::)?\s*(\w+)\s*$`)
	fortranEndTypeRe    = regexp.MustCompile(`(?i)^\s*end\s*type\b`)
)

type fortranBlock struct {
	kind     entity.Type
	name     string
	id       string // composed entity.ID, fixed at push time
	startIdx int    // 0-based line index
	parentID string
}

// ExtractEntities scans line-by-line for module/subroutine/function/type
// blocks. Nesting is tracked with an explicit stack rather than an AST,
// since a regex pass has no tree to recurse over.
func (p *FortranPlugin) ExtractEntities(content []byte, path string) ([]entity.Entity, error) {
	path = entity.NormalizePath(path)
	lines := strings.Split(string(content), "\n")

	var out []entity.Entity
	var stack []fortranBlock

	parentID := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1].id
	}

	push := func(kind entity.Type, name string, startIdx int) {
		parent := parentID()
		stack = append(stack, fortranBlock{
			kind:     kind,
			name:     name,
			id:       entity.BuildID(path, kind, name, parent),
			startIdx: startIdx,
			parentID: parent,
		})
	}

	closeBlock := func(endIdx int) {
		if len(stack) == 0 {
			return
		}
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		blockContent := strings.Join(lines[b.startIdx:endIdx+1], "\n")
		out = append(out, entity.Entity{
			ID:          b.id,
			FilePath:    path,
			EntityType:  b.kind,
			Name:        b.name,
			ParentID:    b.parentID,
			Content:     blockContent,
			ContentHash: entity.ContentHash(NormalizeCode(blockContent)),
			StartLine:   b.startIdx + 1,
			EndLine:     endIdx + 1,
		})
	}

	for i, line := range lines {
		switch {
		case fortranModuleRe.MatchString(line):
			m := fortranModuleRe.FindStringSubmatch(line)
			push(entity.Module, m[1], i)
		case fortranEndModuleRe.MatchString(line):
			closeBlock(i)
		case fortranSubroutineRe.MatchString(line):
			m := fortranSubroutineRe.FindStringSubmatch(line)
			push(entity.Function, m[1], i)
		case fortranEndSubRe.MatchString(line):
			closeBlock(i)
		case fortranEndFuncRe.MatchString(line):
			closeBlock(i)
		case fortranFunctionRe.MatchString(line):
			m := fortranFunctionRe.FindStringSubmatch(line)
			push(entity.Function, m[1], i)
		case fortranTypeRe.MatchString(line):
			m := fortranTypeRe.FindStringSubmatch(line)
			push(entity.Struct, m[1], i)
		case fortranEndTypeRe.MatchString(line):
			closeBlock(i)
		}
	}

	// Unterminated blocks (malformed/truncated input) are closed at EOF
	// rather than dropped, so a parse never silently loses an entity.
	for len(stack) > 0 {
		closeBlock(len(lines) - 1)
	}

	return out, nil
}
