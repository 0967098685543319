// Package syntax is a language-neutral, tagged-variant view of a parsed source
// file. Nodes carry a Kind, byte and line spans, and their children; text is
// sliced from the source the tree was built from.
package syntax

import "unicode/utf8"

// Kind classifies a node by its syntactic role.
type Kind uint8

const (
	KindOther Kind = iota
	KindModule
	KindImport
	KindClass
	KindFunction
	KindDecorated
	KindBlock
	KindIdentifier
	KindParameters
	KindParameter
	KindSplat
	KindAssignment
	KindExpressionStatement
	KindError
)

var kindNames = [...]string{
	KindOther:               "other",
	KindModule:              "module",
	KindImport:              "import",
	KindClass:               "class",
	KindFunction:            "function",
	KindDecorated:           "decorated",
	KindBlock:               "block",
	KindIdentifier:          "identifier",
	KindParameters:          "parameters",
	KindParameter:           "parameter",
	KindSplat:               "splat",
	KindAssignment:          "assignment",
	KindExpressionStatement: "expression_statement",
	KindError:               "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one node of a syntax tree.
type Node struct {
	Kind      Kind
	Type      string // grammar node type, e.g. "class_definition"
	StartByte uint
	EndByte   uint
	StartLine int // 1-based
	EndLine   int // 1-based
	Named     bool
	Missing   bool
	Children  []*Node

	src []byte
}

// Tree is a converted syntax tree bound to its source bytes.
type Tree struct {
	Root     *Node
	Source   []byte
	HasError bool
}

// NewTree binds every node under root to source so that Text works.
func NewTree(source []byte, root *Node, hasError bool) *Tree {
	Walk(root, func(n *Node) bool {
		n.src = source
		return true
	})
	return &Tree{Root: root, Source: source, HasError: hasError}
}

// Text returns the node's source text. Out-of-range spans and invalid UTF-8
// yield "".
func (n *Node) Text() string {
	if n == nil || n.src == nil {
		return ""
	}
	if n.StartByte > n.EndByte || n.EndByte > uint(len(n.src)) {
		return ""
	}
	b := n.src[n.StartByte:n.EndByte]
	if !utf8.Valid(b) {
		return ""
	}
	return string(b)
}

// Is reports whether the node has one of the given kinds.
func (n *Node) Is(kinds ...Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// NamedChildren returns the children that correspond to named grammar rules.
func (n *Node) NamedChildren() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Named {
			out = append(out, c)
		}
	}
	return out
}

// WalkFunc is called for each node during traversal.
// Return false to skip children.
type WalkFunc func(n *Node) bool

// Walk traverses the tree in depth-first pre-order.
func Walk(n *Node, fn WalkFunc) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
