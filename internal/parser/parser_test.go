package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codegraph/internal/lang"
	"github.com/DeusData/codegraph/internal/syntax"
)

func TestParsePython(t *testing.T) {
	source := []byte(`def greet(name):
    return f"Hello, {name}"

class MyClass:
    def method(self):
        pass
`)
	tree, err := Parse(lang.Python, source)
	if err != nil {
		t.Fatalf("Parse Python: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var funcCount, classCount int
	var className string
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		switch n.Kind() {
		case "function_definition":
			funcCount++
		case "class_definition":
			classCount++
			className = n.ChildByFieldName("name").Utf8Text(source)
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	if funcCount != 2 {
		t.Errorf("expected 2 function_definitions, got %d", funcCount)
	}
	if classCount != 1 {
		t.Errorf("expected 1 class_definition, got %d", classCount)
	}
	if className != "MyClass" {
		t.Errorf("class name = %q, want MyClass", className)
	}
}

func TestParseUnsupported(t *testing.T) {
	if _, err := Parse(lang.Language("cobol"), []byte("x")); err == nil {
		t.Error("expected error for unsupported language")
	}
	if _, err := ParseSyntax(lang.Language("cobol"), []byte("x")); err == nil {
		t.Error("expected error for unsupported language")
	}
}

func TestParseSyntaxKinds(t *testing.T) {
	source := []byte(`import os

@decorator
class Foo(Base):
    def bar(self, a: int, b=2, *args, **kwargs):
        x = 1
`)
	tree, err := ParseSyntax(lang.Python, source)
	if err != nil {
		t.Fatalf("ParseSyntax: %v", err)
	}
	if tree.HasError {
		t.Fatal("unexpected syntax error")
	}
	if tree.Root.Kind != syntax.KindModule {
		t.Fatalf("root kind = %s", tree.Root.Kind)
	}

	counts := map[syntax.Kind]int{}
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		counts[n.Kind]++
		return true
	})
	want := map[syntax.Kind]int{
		syntax.KindImport:     1,
		syntax.KindDecorated:  1,
		syntax.KindClass:      1,
		syntax.KindFunction:   1,
		syntax.KindParameters: 1,
		syntax.KindParameter:  2,
		syntax.KindSplat:      2,
		syntax.KindAssignment: 1,
	}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("%s count = %d, want %d", k, counts[k], n)
		}
	}

	dec := tree.Root.Children[1]
	def, ok := dec.Child(syntax.RoleDefinition)
	if !ok || def.Kind != syntax.KindClass {
		t.Fatalf("decorated definition = %v", def)
	}
	name, _ := def.Child(syntax.RoleName)
	if name.Text() != "Foo" {
		t.Errorf("class name = %q", name.Text())
	}
	if def.StartLine != 4 {
		t.Errorf("class start line = %d, want 4", def.StartLine)
	}
}

func TestParseSyntaxError(t *testing.T) {
	tree, err := ParseSyntax(lang.Python, []byte("def broken(:\n    pass\n"))
	if err != nil {
		t.Fatalf("ParseSyntax: %v", err)
	}
	if !tree.HasError {
		t.Error("expected HasError for malformed source")
	}
}
