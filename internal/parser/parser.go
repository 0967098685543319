package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/DeusData/codegraph/internal/lang"
	"github.com/DeusData/codegraph/internal/syntax"
)

var (
	languagesOnce sync.Once
	languages     map[lang.Language]*tree_sitter.Language
	parserPools   map[lang.Language]*sync.Pool
)

func initLanguages() {
	languagesOnce.Do(func() {
		languages = map[lang.Language]*tree_sitter.Language{
			lang.Python: tree_sitter.NewLanguage(tree_sitter_python.Language()),
		}

		parserPools = make(map[lang.Language]*sync.Pool, len(languages))
		for l, tsLang := range languages {
			tsLang := tsLang
			parserPools[l] = &sync.Pool{
				New: func() any {
					p := tree_sitter.NewParser()
					if err := p.SetLanguage(tsLang); err != nil {
						panic(fmt.Sprintf("set language: %v", err))
					}
					return p
				},
			}
		}
	})
}

// Parse parses source code into a tree-sitter AST Tree.
// The caller must call tree.Close() when done.
// Parsers are pooled per language via sync.Pool to avoid per-file allocation.
func Parse(l lang.Language, source []byte) (*tree_sitter.Tree, error) {
	initLanguages()

	pool, ok := parserPools[l]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", l)
	}

	p, _ := pool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("failed to get parser for language %s", l)
	}
	tree := p.Parse(source, nil)
	pool.Put(p)

	if tree == nil {
		return nil, fmt.Errorf("parse failed for language %s", l)
	}

	return tree, nil
}

// ParseSyntax parses source and converts the result into a syntax.Tree.
// The tree-sitter tree is released before returning.
func ParseSyntax(l lang.Language, source []byte) (*syntax.Tree, error) {
	spec := lang.ForLanguage(l)
	if spec == nil {
		return nil, fmt.Errorf("no language spec for %s", l)
	}
	tree, err := Parse(l, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return Convert(tree, source, spec), nil
}

// Convert copies a tree-sitter tree into a syntax.Tree, classifying every node
// through spec.
func Convert(tree *tree_sitter.Tree, source []byte, spec *lang.LanguageSpec) *syntax.Tree {
	root := tree.RootNode()
	return syntax.NewTree(source, convertNode(root, spec), root.HasError())
}

func convertNode(node *tree_sitter.Node, spec *lang.LanguageSpec) *syntax.Node {
	kind := spec.KindOf(node.Kind())
	if node.IsError() {
		kind = syntax.KindError
	}
	n := &syntax.Node{
		Kind:      kind,
		Type:      node.Kind(),
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
		StartLine: safeRowToLine(node.StartPosition().Row),
		EndLine:   safeRowToLine(node.EndPosition().Row),
		Named:     node.IsNamed(),
		Missing:   node.IsMissing(),
	}
	count := node.ChildCount()
	if count > 0 {
		n.Children = make([]*syntax.Node, 0, count)
	}
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child != nil {
			n.Children = append(n.Children, convertNode(child, spec))
		}
	}
	return n
}

func safeRowToLine(row uint) int {
	const maxInt = int(^uint(0) >> 1)
	if row >= uint(maxInt) {
		return maxInt
	}
	return int(row) + 1
}
