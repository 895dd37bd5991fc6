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
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// classifyFunc maps a (possibly unwrapped) AST node to a canonical entity
// type, consulting walkCtx for the rare cases that need surrounding
// context (Python methods-vs-functions, JS/TS object-literal pairs).
// ok is false when node is not an entity boundary.
type classifyFunc func(node *sitter.Node, content []byte, ctx walkCtx) (entity.Type, bool)

// LanguageConfig parameterises TreeSitterPlugin for one language, per
// spec §4.1: "(id, extensions, grammar, entityNodeTypes,
// containerNodeTypes, nameExtractor)". entityNodeTypes and
// containerNodeTypes are folded into classify/isWrapper/isFunctionLike,
// since several languages need node content (not just node type) to
// classify correctly (Go's type_spec, JS/TS's pair).
type LanguageConfig struct {
	ID         string
	Extensions []string
	Grammar    func() *sitter.Language

	// classify decides whether node is an entity boundary and, if so, its
	// canonical type.
	classify classifyFunc

	// isWrapper identifies export/decoration nodes that are transparent:
	// traversal descends into the wrapped declaration and emits an entity
	// from it rather than the wrapper itself.
	isWrapper func(nodeType string) bool

	// isFunctionLike identifies node types that open a new "inside a
	// function" scope for the variable-suppression filter, and (for
	// Python) the "inside a class" scope used to distinguish methods from
	// free functions.
	isFunctionLike func(nodeType string) bool
	isClassLike    func(nodeType string) bool

	// similarity optionally overrides the matcher's default Jaccard
	// similarity for this language's entities.
	similarity SimilarityFunc

	// signature optionally derives extra Metadata for an entity from its
	// own node text (e.g. Go's parsed parameter list). Nil for languages
	// that don't need it.
	signature func(node *sitter.Node, content []byte, t entity.Type) map[string]string
}

// walkCtx is the small immutable context threaded through the recursive
// walk, per the design note in spec §9 ("Tree walker shared state").
type walkCtx struct {
	content        []byte
	path           string
	parentID       string
	insideFunction bool
	insideClass    bool
}

// TreeSitterPlugin implements Plugin for one tree-sitter-backed language,
// grounded on the teacher's TreeSitterParser (pkg/ingestion/parser_treesitter.go):
// a lazily-initialised, process-wide parser pool (parsers are not
// thread-safe, hence sync.Pool rather than a single shared *sitter.Parser).
type TreeSitterPlugin struct {
	cfg LanguageConfig

	once sync.Once
	pool sync.Pool
}

// NewTreeSitterPlugin constructs a plugin for the given language config.
func NewTreeSitterPlugin(cfg LanguageConfig) *TreeSitterPlugin {
	return &TreeSitterPlugin{cfg: cfg}
}

func (p *TreeSitterPlugin) ID() string           { return p.cfg.ID }
func (p *TreeSitterPlugin) Extensions() []string { return p.cfg.Extensions }

func (p *TreeSitterPlugin) Similarity() SimilarityFunc {
	if p.cfg.similarity != nil {
		return p.cfg.similarity
	}
	return DefaultSimilarity
}

func (p *TreeSitterPlugin) initPool() {
	p.once.Do(func() {
		p.pool.New = func() any {
			parser := sitter.NewParser()
			parser.SetLanguage(p.cfg.Grammar())
			return parser
		}
	})
}

// ExtractEntities parses content with this plugin's grammar and walks the
// resulting tree. A grammar load or parse failure yields an empty entity
// list, never an error that would abort sibling files (spec §4.1, §7).
func (p *TreeSitterPlugin) ExtractEntities(content []byte, path string) ([]entity.Entity, error) {
	p.initPool()

	parserObj := p.pool.Get()
	ts, ok := parserObj.(*sitter.Parser)
	if !ok {
		return nil, nil
	}
	defer p.pool.Put(ts)

	tree, err := ts.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	var out []entity.Entity
	ctx := walkCtx{content: content, path: entity.NormalizePath(path)}
	p.walk(root, ctx, &out)
	return out, nil
}

// walk recurses depth-first over node's named children, per spec §4.1: a
// node becomes an entity when classify recognises it; the new entity's ID
// becomes the parentID for its own children. Nodes that aren't entities
// are still walked, so entities nested arbitrarily deep (e.g. a method
// inside a class body block) are still discovered.
func (p *TreeSitterPlugin) walk(node *sitter.Node, ctx walkCtx, out *[]entity.Entity) {
	n := int(node.NamedChildCount())
	for i := 0; i < n; i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		actual := p.unwrap(child)

		if t, ok := p.cfg.classify(actual, ctx.content, ctx); ok {
			// Scope filter (spec §4.1): once inside a function-like node,
			// variable-kind emissions are suppressed, but traversal still
			// descends to find entities nested further in (e.g. a closure).
			if t == entity.Variable && ctx.insideFunction {
				p.walk(actual, ctx, out)
				continue
			}

			name := extractName(actual, ctx.content)
			ent := p.buildEntity(actual, ctx, t, name)
			*out = append(*out, ent)

			childCtx := ctx
			childCtx.parentID = ent.ID
			if p.cfg.isFunctionLike != nil && p.cfg.isFunctionLike(actual.Type()) {
				childCtx.insideFunction = true
			}
			if p.cfg.isClassLike != nil && p.cfg.isClassLike(actual.Type()) {
				childCtx.insideClass = true
			}
			p.walk(actual, childCtx, out)
			continue
		}

		p.walk(actual, ctx, out)
	}
}

// unwrap descends through export/decoration wrapper nodes until it finds
// the wrapped declaration, per spec §4.1's "export / decoration wrapper is
// transparent" rule.
func (p *TreeSitterPlugin) unwrap(node *sitter.Node) *sitter.Node {
	if p.cfg.isWrapper == nil {
		return node
	}
	for p.cfg.isWrapper(node.Type()) {
		inner := firstDeclarationChild(node)
		if inner == nil {
			return node
		}
		node = inner
	}
	return node
}

// firstDeclarationChild returns the first named child of a wrapper node
// (export statement, decorated definition) -- the declaration it wraps.
func firstDeclarationChild(node *sitter.Node) *sitter.Node {
	if node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}

func (p *TreeSitterPlugin) buildEntity(node *sitter.Node, ctx walkCtx, t entity.Type, name string) entity.Entity {
	content := string(ctx.content[node.StartByte():node.EndByte()])
	var meta map[string]string
	if p.cfg.signature != nil {
		meta = p.cfg.signature(node, ctx.content, t)
	}
	return entity.Entity{
		ID:          entity.BuildID(ctx.path, t, name, ctx.parentID),
		FilePath:    ctx.path,
		EntityType:  t,
		Name:        name,
		ParentID:    ctx.parentID,
		Content:     content,
		ContentHash: entity.ContentHash(NormalizeCode(content)),
		StartLine:   int(node.StartPoint().Row) + 1,
		EndLine:     int(node.EndPoint().Row) + 1,
		Metadata:    meta,
	}
}

// extractName tries, in order: the node's "name" field; the declarator's
// name for variable-like declarations; the key of a key-value pair
// (quoting stripped); and finally the first identifier-shaped named
// child. This order is fixed by spec §4.1 across every tree-sitter
// language.
func extractName(node *sitter.Node, content []byte) string {
	if nameField := node.ChildByFieldName("name"); nameField != nil {
		return nodeText(nameField, content)
	}

	if declaratorField := node.ChildByFieldName("declarator"); declaratorField != nil {
		if n := declaratorField.ChildByFieldName("name"); n != nil {
			return nodeText(n, content)
		}
		if isIdentifierType(declaratorField.Type()) {
			return nodeText(declaratorField, content)
		}
	}

	// "var x = 1" style: a single named child declarator with its own name.
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "variable_declarator" || c.Type() == "var_spec" || c.Type() == "const_spec" {
			if n := c.ChildByFieldName("name"); n != nil {
				return nodeText(n, content)
			}
		}
	}

	if keyField := node.ChildByFieldName("key"); keyField != nil {
		return stripQuotes(nodeText(keyField, content))
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if isIdentifierType(c.Type()) {
			return nodeText(c, content)
		}
	}

	return "<anonymous>"
}

func nodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

func isIdentifierType(t string) bool {
	return strings.Contains(t, "identifier")
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
