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

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// MarkdownPlugin finds ATX headings with goldmark's block parser (rather
// than scanning "^#" lines by hand) so that headings inside fenced code
// blocks are correctly ignored.
type MarkdownPlugin struct{}

func NewMarkdownPlugin() *MarkdownPlugin { return &MarkdownPlugin{} }

func (p *MarkdownPlugin) ID() string           { return "markdown" }
func (p *MarkdownPlugin) Extensions() []string { return []string{"md", "markdown"} }

type mdHeading struct {
	level     int
	title     string
	startLine int // 0-based
}

func (p *MarkdownPlugin) ExtractEntities(content []byte, path string) ([]entity.Entity, error) {
	path = entity.NormalizePath(path)
	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}

	md := goldmark.New()
	reader := text.NewReader(content)
	doc := md.Parser().Parse(reader)

	lines := strings.Split(string(content), "\n")

	var headings []mdHeading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		start := 0
		if segs := h.Lines(); segs.Len() > 0 {
			start = byteOffsetToLine(content, segs.At(0).Start)
		}
		headings = append(headings, mdHeading{
			level:     h.Level,
			title:     headingText(h, content),
			startLine: start,
		})
		return ast.WalkSkipChildren, nil
	})

	var out []entity.Entity

	firstHeadingLine := len(lines)
	if len(headings) > 0 {
		firstHeadingLine = headings[0].startLine
	}
	if preamble := strings.Join(lines[:firstHeadingLine], "\n"); strings.TrimSpace(preamble) != "" {
		out = append(out, entity.Entity{
			ID:          entity.BuildID(path, entity.Preamble, "preamble", ""),
			FilePath:    path,
			EntityType:  entity.Preamble,
			Name:        "preamble",
			Content:     preamble,
			ContentHash: entity.ContentHash(preamble),
			StartLine:   1,
			EndLine:     firstHeadingLine,
		})
	}

	type stackEntry struct {
		level int
		id    string
	}
	var stack []stackEntry

	for i, h := range headings {
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].startLine
		}
		sectionContent := strings.Join(lines[h.startLine:end], "\n")

		for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
		}
		parentID := ""
		if len(stack) > 0 {
			parentID = stack[len(stack)-1].id
		}

		ent := entity.Entity{
			ID:          entity.BuildID(path, entity.Heading, h.title, parentID),
			FilePath:    path,
			EntityType:  entity.Heading,
			Name:        h.title,
			ParentID:    parentID,
			Content:     sectionContent,
			ContentHash: entity.ContentHash(sectionContent),
			StartLine:   h.startLine + 1,
			EndLine:     end,
		}
		out = append(out, ent)
		stack = append(stack, stackEntry{level: h.level, id: ent.ID})
	}

	return out, nil
}

func headingText(h *ast.Heading, content []byte) string {
	var sb strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(content))
		}
	}
	return strings.TrimSpace(sb.String())
}

func byteOffsetToLine(content []byte, offset int) int {
	line := 0
	for i := 0; i < offset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
		}
	}
	return line
}
