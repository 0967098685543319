package graph

import (
	"sort"

	"github.com/DeusData/codegraph/internal/project"
)

// Document is the persisted form of a project graph.
type Document struct {
	TotalFiles        int            `json:"total_files"`
	TotalLines        int            `json:"total_lines"`
	TotalSizeBytes    int64          `json:"total_size_bytes"`
	NodeCount         int            `json:"node_count"`
	RelationshipCount int            `json:"relationship_count"`
	ProcessedFiles    []string       `json:"processed_files"`
	Nodes             []Node         `json:"nodes"`
	Relationships     []Relationship `json:"relationships"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		ProcessedFiles: []string{},
		Nodes:          []Node{},
		Relationships:  []Relationship{},
	}
}

// Build materializes g into a document whose processed files are the files
// of g.
func Build(g *project.ProjectGraph) *Document {
	nodes, rels := Materialize(g)
	doc := &Document{
		TotalFiles:     g.TotalFiles,
		TotalLines:     g.TotalLines,
		TotalSizeBytes: g.TotalSizeBytes,
		ProcessedFiles: make([]string, 0, len(g.Files)),
		Nodes:          nodes,
		Relationships:  rels,
	}
	for _, f := range g.Files {
		doc.ProcessedFiles = append(doc.ProcessedFiles, f.Path)
	}
	sort.Strings(doc.ProcessedFiles)
	doc.NodeCount = len(nodes)
	doc.RelationshipCount = len(rels)
	return doc
}

// Merge folds next into prev and returns the result; neither input is
// modified. Nodes are matched by ID and relationships by (source, target,
// type); a match is replaced in place by the newer entry and anything new is
// appended. Entries present only in prev are kept, so stale nodes from
// renamed or deleted entities persist. Totals come from next, processed files
// are the union of both.
func Merge(prev, next *Document) *Document {
	if prev == nil {
		prev = NewDocument()
	}
	if next == nil {
		next = NewDocument()
	}

	out := &Document{
		TotalFiles:     next.TotalFiles,
		TotalLines:     next.TotalLines,
		TotalSizeBytes: next.TotalSizeBytes,
	}

	nodeAt := make(map[string]int, len(prev.Nodes)+len(next.Nodes))
	out.Nodes = make([]Node, 0, len(prev.Nodes)+len(next.Nodes))
	for _, list := range [][]Node{prev.Nodes, next.Nodes} {
		for _, n := range list {
			if i, ok := nodeAt[n.ID]; ok {
				out.Nodes[i] = n
				continue
			}
			nodeAt[n.ID] = len(out.Nodes)
			out.Nodes = append(out.Nodes, n)
		}
	}

	relAt := make(map[RelKey]int, len(prev.Relationships)+len(next.Relationships))
	out.Relationships = make([]Relationship, 0, len(prev.Relationships)+len(next.Relationships))
	for _, list := range [][]Relationship{prev.Relationships, next.Relationships} {
		for _, r := range list {
			k := r.Key()
			if i, ok := relAt[k]; ok {
				out.Relationships[i] = r
				continue
			}
			relAt[k] = len(out.Relationships)
			out.Relationships = append(out.Relationships, r)
		}
	}

	files := map[string]bool{}
	for _, list := range [][]string{prev.ProcessedFiles, next.ProcessedFiles} {
		for _, f := range list {
			files[f] = true
		}
	}
	out.ProcessedFiles = make([]string, 0, len(files))
	for f := range files {
		out.ProcessedFiles = append(out.ProcessedFiles, f)
	}
	sort.Strings(out.ProcessedFiles)

	out.NodeCount = len(out.Nodes)
	out.RelationshipCount = len(out.Relationships)
	return out
}
