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

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/ataraxy-labs/sem/pkg/entity"
	"github.com/ataraxy-labs/sem/pkg/sigparse"
)

// byType builds a classifyFunc from a simple node-type -> entity.Type
// table, for languages whose entity boundaries don't need structural
// inspection to disambiguate.
func byType(table map[string]entity.Type) classifyFunc {
	return func(node *sitter.Node, content []byte, ctx walkCtx) (entity.Type, bool) {
		t, ok := table[node.Type()]
		return t, ok
	}
}

func inSet(set map[string]bool) func(string) bool {
	return func(t string) bool { return set[t] }
}

// NewDefaultRegistry builds the registry described in spec §4.1: one
// plugin per supported format, extensions assigned per language, with the
// line-chunking FallbackPlugin registered as the catch-all.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(NewTreeSitterPlugin(goLanguageConfig()))
	r.Register(NewTreeSitterPlugin(javascriptLanguageConfig()))
	r.Register(NewTreeSitterPlugin(typescriptLanguageConfig()))
	r.Register(NewTreeSitterPlugin(tsxLanguageConfig()))
	r.Register(NewTreeSitterPlugin(pythonLanguageConfig()))
	r.Register(NewTreeSitterPlugin(javaLanguageConfig()))
	r.Register(NewTreeSitterPlugin(cLanguageConfig()))
	r.Register(NewTreeSitterPlugin(cppLanguageConfig()))
	r.Register(NewTreeSitterPlugin(csharpLanguageConfig()))
	r.Register(NewTreeSitterPlugin(rubyLanguageConfig()))
	r.Register(NewTreeSitterPlugin(phpLanguageConfig()))
	r.Register(NewTreeSitterPlugin(rustLanguageConfig()))
	r.Register(NewFortranPlugin())

	r.Register(NewJSONPlugin())
	r.Register(NewYAMLPlugin())
	r.Register(NewTOMLPlugin())
	r.Register(NewCSVPlugin())
	r.Register(NewMarkdownPlugin())

	r.RegisterFallback(NewFallbackPlugin())

	return r
}

func goLanguageConfig() LanguageConfig {
	entityTypes := map[string]entity.Type{
		"function_declaration": entity.Function,
		"method_declaration":   entity.Method,
		"const_spec":           entity.Constant,
		"var_spec":             entity.Variable,
	}
	functionLike := inSet(map[string]bool{
		"function_declaration": true,
		"method_declaration":   true,
		"func_literal":         true,
	})

	classify := func(node *sitter.Node, content []byte, ctx walkCtx) (entity.Type, bool) {
		if node.Type() == "type_spec" {
			if underlying := node.ChildByFieldName("type"); underlying != nil {
				switch underlying.Type() {
				case "struct_type":
					return entity.Struct, true
				case "interface_type":
					return entity.Interface, true
				default:
					return entity.TypeKind, true
				}
			}
			return entity.TypeKind, true
		}
		t, ok := entityTypes[node.Type()]
		return t, ok
	}

	return LanguageConfig{
		ID:             "go",
		Extensions:     []string{"go"},
		Grammar:        golang.GetLanguage,
		classify:       classify,
		isFunctionLike: functionLike,
		signature:      goSignatureMeta,
	}
}

// goSignatureMeta parses a function/method's own source text with
// pkg/sigparse to recover its parameter names and base types, stashed as
// Metadata so query/blame output can show a signature without re-parsing.
func goSignatureMeta(node *sitter.Node, content []byte, t entity.Type) map[string]string {
	if t != entity.Function && t != entity.Method {
		return nil
	}
	params := sigparse.ParseGoParams(nodeText(node, content))
	if len(params) == 0 {
		return nil
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + ":" + p.Type
	}
	return map[string]string{"params": strings.Join(parts, ", ")}
}

func jsLikeClassify() classifyFunc {
	table := map[string]entity.Type{
		"function_declaration": entity.Function,
		"class_declaration":    entity.Class,
		"method_definition":    entity.Method,
		"lexical_declaration":  entity.Variable,
		"variable_declaration": entity.Variable,
		"interface_declaration": entity.Interface,
		"type_alias_declaration": entity.TypeKind,
		"enum_declaration":     entity.Enum,
	}
	return func(node *sitter.Node, content []byte, ctx walkCtx) (entity.Type, bool) {
		if node.Type() == "pair" {
			value := node.ChildByFieldName("value")
			isFunc := value != nil && (value.Type() == "function" || value.Type() == "function_expression" ||
				value.Type() == "arrow_function")
			if isFunc {
				return entity.Method, true
			}
			if ctx.parentID == "" {
				return entity.Property, false
			}
			return entity.Property, true
		}
		t, ok := table[node.Type()]
		return t, ok
	}
}

var jsWrapper = inSet(map[string]bool{
	"export_statement":      true,
	"decorated_definition":  true,
})

var jsFunctionLike = inSet(map[string]bool{
	"function_declaration": true,
	"method_definition":    true,
	"function":             true,
	"function_expression":  true,
	"arrow_function":       true,
})

func javascriptLanguageConfig() LanguageConfig {
	return LanguageConfig{
		ID:             "javascript",
		Extensions:     []string{"js", "jsx", "mjs", "cjs"},
		Grammar:        javascript.GetLanguage,
		classify:       jsLikeClassify(),
		isWrapper:      jsWrapper,
		isFunctionLike: jsFunctionLike,
	}
}

func typescriptLanguageConfig() LanguageConfig {
	return LanguageConfig{
		ID:             "typescript",
		Extensions:     []string{"ts"},
		Grammar:        typescript.GetLanguage,
		classify:       jsLikeClassify(),
		isWrapper:      jsWrapper,
		isFunctionLike: jsFunctionLike,
	}
}

func tsxLanguageConfig() LanguageConfig {
	return LanguageConfig{
		ID:             "tsx",
		Extensions:     []string{"tsx"},
		Grammar:        tsx.GetLanguage,
		classify:       jsLikeClassify(),
		isWrapper:      jsWrapper,
		isFunctionLike: jsFunctionLike,
	}
}

func pythonLanguageConfig() LanguageConfig {
	classLike := inSet(map[string]bool{"class_definition": true})
	functionLike := inSet(map[string]bool{"function_definition": true})
	wrapper := inSet(map[string]bool{"decorated_definition": true})

	classify := func(node *sitter.Node, content []byte, ctx walkCtx) (entity.Type, bool) {
		switch node.Type() {
		case "class_definition":
			return entity.Class, true
		case "function_definition":
			if ctx.insideClass && !ctx.insideFunction {
				return entity.Method, true
			}
			return entity.Function, true
		}
		return "", false
	}

	return LanguageConfig{
		ID:             "python",
		Extensions:     []string{"py", "pyi"},
		Grammar:        python.GetLanguage,
		classify:       classify,
		isWrapper:      wrapper,
		isFunctionLike: functionLike,
		isClassLike:    classLike,
	}
}

func javaLanguageConfig() LanguageConfig {
	table := map[string]entity.Type{
		"class_declaration":       entity.Class,
		"interface_declaration":   entity.Interface,
		"enum_declaration":        entity.Enum,
		"method_declaration":      entity.Method,
		"constructor_declaration": entity.Method,
		"field_declaration":       entity.Property,
	}
	functionLike := inSet(map[string]bool{
		"method_declaration":      true,
		"constructor_declaration": true,
	})
	return LanguageConfig{
		ID:             "java",
		Extensions:     []string{"java"},
		Grammar:        java.GetLanguage,
		classify:       byType(table),
		isFunctionLike: functionLike,
	}
}

func cLanguageConfig() LanguageConfig {
	table := map[string]entity.Type{
		"function_definition": entity.Function,
		"struct_specifier":    entity.Struct,
		"enum_specifier":      entity.Enum,
		"union_specifier":     entity.Struct,
	}
	functionLike := inSet(map[string]bool{"function_definition": true})
	return LanguageConfig{
		ID:             "c",
		Extensions:     []string{"c", "h"},
		Grammar:        c.GetLanguage,
		classify:       byType(table),
		isFunctionLike: functionLike,
	}
}

func cppLanguageConfig() LanguageConfig {
	table := map[string]entity.Type{
		"function_definition":  entity.Function,
		"struct_specifier":     entity.Struct,
		"enum_specifier":       entity.Enum,
		"class_specifier":      entity.Class,
		"namespace_definition": entity.Module,
	}
	functionLike := inSet(map[string]bool{"function_definition": true})
	return LanguageConfig{
		ID:             "cpp",
		Extensions:     []string{"cpp", "cc", "cxx", "hpp", "hh"},
		Grammar:        cpp.GetLanguage,
		classify:       byType(table),
		isFunctionLike: functionLike,
	}
}

func csharpLanguageConfig() LanguageConfig {
	table := map[string]entity.Type{
		"class_declaration":     entity.Class,
		"interface_declaration": entity.Interface,
		"struct_declaration":    entity.Struct,
		"enum_declaration":      entity.Enum,
		"method_declaration":    entity.Method,
		"property_declaration":  entity.Property,
		"field_declaration":     entity.Variable,
	}
	functionLike := inSet(map[string]bool{"method_declaration": true})
	return LanguageConfig{
		ID:             "csharp",
		Extensions:     []string{"cs"},
		Grammar:        csharp.GetLanguage,
		classify:       byType(table),
		isFunctionLike: functionLike,
	}
}

func rubyLanguageConfig() LanguageConfig {
	table := map[string]entity.Type{
		"method":           entity.Method,
		"singleton_method": entity.Method,
		"class":            entity.Class,
		"module":           entity.Module,
	}
	functionLike := inSet(map[string]bool{"method": true, "singleton_method": true})
	return LanguageConfig{
		ID:             "ruby",
		Extensions:     []string{"rb"},
		Grammar:        ruby.GetLanguage,
		classify:       byType(table),
		isFunctionLike: functionLike,
	}
}

func phpLanguageConfig() LanguageConfig {
	table := map[string]entity.Type{
		"function_definition":  entity.Function,
		"method_declaration":   entity.Method,
		"class_declaration":    entity.Class,
		"interface_declaration": entity.Interface,
		"trait_declaration":    entity.Trait,
	}
	functionLike := inSet(map[string]bool{
		"function_definition": true,
		"method_declaration":  true,
	})
	return LanguageConfig{
		ID:             "php",
		Extensions:     []string{"php"},
		Grammar:        php.GetLanguage,
		classify:       byType(table),
		isFunctionLike: functionLike,
	}
}

func rustLanguageConfig() LanguageConfig {
	table := map[string]entity.Type{
		"function_item": entity.Function,
		"struct_item":   entity.Struct,
		"enum_item":     entity.Enum,
		"trait_item":    entity.Trait,
		"impl_item":     entity.Impl,
		"const_item":    entity.Constant,
		"static_item":   entity.Static,
		"type_item":     entity.TypeKind,
		"mod_item":      entity.Module,
	}
	functionLike := inSet(map[string]bool{"function_item": true})
	return LanguageConfig{
		ID:             "rust",
		Extensions:     []string{"rs"},
		Grammar:        rust.GetLanguage,
		classify:       byType(table),
		isFunctionLike: functionLike,
	}
}
