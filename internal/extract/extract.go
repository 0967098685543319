// Package extract walks a file's syntax tree and collects its imports,
// classes, functions and variables with scope-qualified names.
package extract

import (
	"sort"
	"strings"
	"unicode"

	"github.com/DeusData/codegraph/internal/fqn"
	"github.com/DeusData/codegraph/internal/syntax"
)

// FileMetadata is the semantic summary of one source file.
type FileMetadata struct {
	Imports   []string                 `json:"imports"`
	Classes   map[string]*ClassInfo    `json:"classes"`
	Functions map[string]*FunctionInfo `json:"functions"`
	Variables []string                 `json:"variables"`
}

// ClassInfo describes a class. Methods are keyed by their full name.
type ClassInfo struct {
	Name       string                   `json:"name"`
	FullName   string                   `json:"full_name"`
	Methods    map[string]*FunctionInfo `json:"methods"`
	Attributes []string                 `json:"attributes"`
}

// FunctionInfo describes a function or method. Variables holds the qualified
// names of assignments anywhere in its body.
type FunctionInfo struct {
	Name       string   `json:"name"`
	FullName   string   `json:"full_name"`
	Parameters []string `json:"parameters"`
	Variables  []string `json:"variables"`
}

// NewFileMetadata returns an empty, non-nil record.
func NewFileMetadata() *FileMetadata {
	return &FileMetadata{
		Imports:   []string{},
		Classes:   map[string]*ClassInfo{},
		Functions: map[string]*FunctionInfo{},
		Variables: []string{},
	}
}

// Extract collects the metadata of the tree under root. context is the
// enclosing scope; "" means module scope. Extract never fails: malformed
// structure yields partial results.
func Extract(root *syntax.Node, context string) *FileMetadata {
	e := &extractor{meta: NewFileMetadata(), vars: stringSet{}}
	if root != nil {
		e.walkScope(root, context)
	}
	e.meta.Variables = e.vars.sorted()
	return e.meta
}

type extractor struct {
	meta *FileMetadata
	vars stringSet
}

// walkScope visits the children of n at scope context.
func (e *extractor) walkScope(n *syntax.Node, context string) {
	for _, c := range n.Children {
		switch c.Kind {
		case syntax.KindImport:
			if text := strings.TrimSpace(c.Text()); text != "" {
				e.meta.Imports = append(e.meta.Imports, text)
			}
		case syntax.KindClass:
			e.class(c, context)
		case syntax.KindFunction:
			e.function(c, context)
		case syntax.KindDecorated:
			def, ok := c.Child(syntax.RoleDefinition)
			switch {
			case !ok:
				e.walkScope(c, context)
			case def.Kind == syntax.KindClass:
				e.class(def, context)
			default:
				e.function(def, context)
			}
		case syntax.KindAssignment:
			for _, name := range assignmentTargets(c) {
				e.vars.add(fqn.Qualify(context, name))
			}
		case syntax.KindExpressionStatement:
			if names := assignmentTargets(c); len(names) > 0 {
				for _, name := range names {
					e.vars.add(fqn.Qualify(context, name))
				}
				continue
			}
			e.walkScope(c, context)
		default:
			e.walkScope(c, context)
		}
	}
}

func (e *extractor) function(n *syntax.Node, context string) {
	if info := buildFunction(n, context); info != nil {
		e.meta.Functions[info.FullName] = info
	}
}

// class records a class, its methods and attributes, and any classes nested
// in its body.
func (e *extractor) class(n *syntax.Node, context string) {
	name := nameOf(n)
	if name == "" {
		return
	}
	info := &ClassInfo{
		Name:     name,
		FullName: fqn.Qualify(context, name),
		Methods:  map[string]*FunctionInfo{},
	}
	attrs := stringSet{}

	body, _ := n.Child(syntax.RoleBody)
	var members []*syntax.Node
	if body != nil {
		members = body.Children
	}
	for _, m := range members {
		if m.Kind == syntax.KindDecorated {
			if def, ok := m.Child(syntax.RoleDefinition); ok {
				m = def
			}
		}
		switch m.Kind {
		case syntax.KindFunction:
			if method := buildFunction(m, info.FullName); method != nil {
				info.Methods[method.FullName] = method
			}
			continue
		case syntax.KindClass:
			e.class(m, info.FullName)
			continue
		case syntax.KindAssignment, syntax.KindExpressionStatement:
			if names := assignmentTargets(m); len(names) > 0 {
				for _, attr := range names {
					attrs.add(fqn.Qualify(info.FullName, attr))
				}
				continue
			}
		}
		e.nestedClasses(m, info.FullName)
	}

	info.Attributes = attrs.sorted()
	e.meta.Classes[info.FullName] = info
}

// nestedClasses scans n for class definitions only, attributing them to
// context.
func (e *extractor) nestedClasses(n *syntax.Node, context string) {
	syntax.Walk(n, func(c *syntax.Node) bool {
		switch c.Kind {
		case syntax.KindClass:
			e.class(c, context)
			return false
		case syntax.KindFunction:
			return false
		}
		return true
	})
}

// buildFunction returns nil when the definition has no usable name.
func buildFunction(n *syntax.Node, context string) *FunctionInfo {
	name := nameOf(n)
	if name == "" {
		return nil
	}
	full := fqn.Qualify(context, name)
	return &FunctionInfo{
		Name:       name,
		FullName:   full,
		Parameters: parameters(n),
		Variables:  localVariables(n, full),
	}
}

// localVariables collects assignments anywhere under fn, including nested
// function bodies, qualified by scope.
func localVariables(fn *syntax.Node, scope string) []string {
	vars := stringSet{}
	body, ok := fn.Child(syntax.RoleBody)
	if !ok {
		return vars.sorted()
	}
	syntax.Walk(body, func(n *syntax.Node) bool {
		if n.Is(syntax.KindAssignment, syntax.KindExpressionStatement) {
			if name, ok := assignmentTarget(n); ok {
				vars.add(fqn.Qualify(scope, name))
			}
		}
		return true
	})
	return vars.sorted()
}

func parameters(fn *syntax.Node) []string {
	params := []string{}
	list, ok := fn.Child(syntax.RoleParameters)
	if !ok {
		return params
	}
	for _, p := range list.Children {
		if name := parameterName(p); name != "" {
			params = append(params, name)
		}
	}
	return params
}

// parameterName unwraps typed, defaulted and splat parameters down to the
// bound identifier.
func parameterName(p *syntax.Node) string {
	switch p.Kind {
	case syntax.KindIdentifier:
		return p.Text()
	case syntax.KindParameter, syntax.KindSplat:
		inner, ok := p.Child(syntax.RoleName)
		if !ok {
			return ""
		}
		return parameterName(inner)
	}
	return ""
}

func nameOf(n *syntax.Node) string {
	id, ok := n.Child(syntax.RoleName)
	if !ok {
		return ""
	}
	return strings.TrimSpace(id.Text())
}

// assignmentTarget returns the bound name of a single-target assignment.
//
// An assignment node qualifies when its left side is an identifier. An
// expression statement qualifies when its text contains " = " and the text
// before the first " = " is a bare identifier; failing that, when it wraps a
// qualifying assignment node (annotated forms such as "x: int = 5").
// Tuple, attribute and subscript targets never qualify.
func assignmentTarget(n *syntax.Node) (string, bool) {
	switch n.Kind {
	case syntax.KindAssignment:
		left, ok := n.Child(syntax.RoleLeft)
		if !ok || left.Kind != syntax.KindIdentifier {
			return "", false
		}
		name := left.Text()
		return name, name != ""
	case syntax.KindExpressionStatement:
		text := n.Text()
		if i := strings.Index(text, " = "); i >= 0 {
			if lhs := strings.TrimSpace(text[:i]); isIdentifier(lhs) {
				return lhs, true
			}
		}
		named := n.NamedChildren()
		if len(named) == 1 && named[0].Kind == syntax.KindAssignment {
			return assignmentTarget(named[0])
		}
	}
	return "", false
}

// assignmentTargets extends assignmentTarget to chained assignments, so
// "x = y = 1" yields both x and y.
func assignmentTargets(n *syntax.Node) []string {
	var names []string
	if name, ok := assignmentTarget(n); ok {
		names = append(names, name)
	}
	a := n
	if n.Kind == syntax.KindExpressionStatement {
		named := n.NamedChildren()
		if len(named) != 1 || named[0].Kind != syntax.KindAssignment {
			return names
		}
		a = named[0]
	}
	for {
		named := a.NamedChildren()
		if len(named) == 0 || named[len(named)-1].Kind != syntax.KindAssignment {
			return names
		}
		a = named[len(named)-1]
		if name, ok := assignmentTarget(a); ok {
			names = append(names, name)
		}
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

type stringSet map[string]struct{}

func (s stringSet) add(v string) { s[v] = struct{}{} }

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
