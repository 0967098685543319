package graph

import (
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/DeusData/codegraph/internal/extract"
	"github.com/DeusData/codegraph/internal/fqn"
	"github.com/DeusData/codegraph/internal/project"
)

// Materialize converts a parsed project into nodes and relationships.
//
// Every node is emitted once, before the first relationship that references
// it. Relationships are not deduplicated here; Merge does that.
func Materialize(g *project.ProjectGraph) ([]Node, []Relationship) {
	m := &materializer{
		labels:  map[string]Label{},
		modules: moduleLookup(g.Files),
	}
	for _, f := range g.Files {
		m.file(f)
	}
	if m.nodes == nil {
		m.nodes = []Node{}
	}
	if m.rels == nil {
		m.rels = []Relationship{}
	}
	return m.nodes, m.rels
}

type materializer struct {
	nodes   []Node
	rels    []Relationship
	labels  map[string]Label // emitted node ID -> label
	modules map[string]*project.ParsedFile
}

// emit adds the node unless its ID was already emitted, and returns the
// endpoint under which the ID is known.
func (m *materializer) emit(id string, label Label, props map[string]any) Endpoint {
	if existing, ok := m.labels[id]; ok {
		return Endpoint{ID: id, Label: existing}
	}
	m.labels[id] = label
	m.nodes = append(m.nodes, Node{ID: id, Label: label, Properties: props})
	return Endpoint{ID: id, Label: label}
}

func (m *materializer) relate(src, dst Endpoint, typ RelType) {
	m.rels = append(m.rels, Relationship{Source: src, Target: dst, Type: typ, Properties: map[string]any{}})
}

func (m *materializer) fileNode(f *project.ParsedFile) Endpoint {
	id := fqn.FileID(f.Path)
	props := map[string]any{
		"path":       f.Path,
		"name":       path.Base(f.Path),
		"size_bytes": f.SizeBytes,
		"line_count": f.LineCount,
	}
	if f.ContentHash != "" {
		props["content_hash"] = f.ContentHash
	}
	return m.emit(id, LabelFile, props)
}

func (m *materializer) file(f *project.ParsedFile) {
	file := m.fileNode(f)
	meta := f.Metadata
	if meta == nil {
		return
	}

	for _, imp := range meta.Imports {
		target, ok := m.modules[ImportModule(imp)]
		if !ok || target.Path == f.Path {
			continue
		}
		m.relate(file, m.fileNode(target), RelImports)
	}

	for _, name := range sortedKeys(meta.Classes) {
		cls := meta.Classes[name]
		parent := file
		if outer, ok := meta.Classes[scopeOf(cls.FullName)]; ok && outer != cls {
			parent = m.class(file.ID, outer)
		}
		ep := m.class(file.ID, cls)
		m.relate(parent, ep, RelContains)

		for _, mname := range sortedKeys(cls.Methods) {
			fn := m.function(file.ID, cls.Methods[mname], cls.FullName)
			m.relate(ep, fn, RelContains)
			m.locals(file.ID, fn, cls.Methods[mname])
		}
		for _, attr := range cls.Attributes {
			v := m.variable(file.ID, attr, ScopeClass)
			m.relate(ep, v, RelContains)
		}
	}

	for _, name := range sortedKeys(meta.Functions) {
		info := meta.Functions[name]
		fn := m.function(file.ID, info, ScopeModule)
		m.relate(file, fn, RelContains)
		m.locals(file.ID, fn, info)
	}

	for _, name := range meta.Variables {
		v := m.variable(file.ID, name, ScopeModule)
		m.relate(file, v, RelContains)
	}
}

func (m *materializer) class(fileID string, cls *extract.ClassInfo) Endpoint {
	return m.emit(fqn.EntityID(fileID, cls.FullName), LabelClass, map[string]any{
		"name":      cls.Name,
		"full_name": cls.FullName,
		"file":      fileID,
	})
}

func (m *materializer) function(fileID string, info *extract.FunctionInfo, scope string) Endpoint {
	params := info.Parameters
	if params == nil {
		params = []string{}
	}
	return m.emit(fqn.EntityID(fileID, info.FullName), LabelFunction, map[string]any{
		"name":       info.Name,
		"full_name":  info.FullName,
		"file":       fileID,
		"is_method":  scope != ScopeModule,
		"scope":      scope,
		"parameters": params,
	})
}

func (m *materializer) locals(fileID string, fn Endpoint, info *extract.FunctionInfo) {
	for _, name := range info.Variables {
		v := m.variable(fileID, name, ScopeFunction)
		m.relate(fn, v, RelContains)
	}
}

func (m *materializer) variable(fileID, fullName, scope string) Endpoint {
	return m.emit(fqn.EntityID(fileID, fullName), LabelVariable, map[string]any{
		"name":      nameOf(fullName),
		"full_name": fullName,
		"file":      fileID,
		"scope":     scope,
	})
}

// moduleLookup maps import names to files. Dotted module paths take
// precedence over bare file stems; the first file in order wins a collision.
func moduleLookup(files []*project.ParsedFile) map[string]*project.ParsedFile {
	lookup := make(map[string]*project.ParsedFile, len(files)*2)
	for _, f := range files {
		if name := fqn.ModuleName(f.Path); name != "" {
			if _, ok := lookup[name]; !ok {
				lookup[name] = f
			}
		}
	}
	for _, f := range files {
		if stem := fqn.Stem(f.Path); stem != "" {
			if _, ok := lookup[stem]; !ok {
				lookup[stem] = f
			}
		}
	}
	return lookup
}

// ImportModule extracts the module an import statement names: the first
// token after the leading "import" or "from" keyword, without relative-import
// dots. "from .pkg.mod import a, b" yields "pkg.mod".
func ImportModule(stmt string) string {
	fields := strings.FieldsFunc(stmt, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '(' || r == ')'
	})
	if len(fields) > 0 && (fields[0] == "import" || fields[0] == "from") {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeft(fields[0], ".")
}

func scopeOf(fullName string) string {
	if i := strings.LastIndex(fullName, "."); i >= 0 {
		return fullName[:i]
	}
	return ""
}

func nameOf(fullName string) string {
	return fullName[strings.LastIndex(fullName, ".")+1:]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
