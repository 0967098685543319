package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/DeusData/codegraph/internal/graph"
)

// Load reads a project's persisted graph in insertion order. An unknown
// project yields an empty document.
func (s *Store) Load(project string) (*graph.Document, error) {
	doc := graph.NewDocument()

	p, err := s.GetProject(project)
	if errors.Is(err, ErrProjectNotFound) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	doc.TotalFiles = p.TotalFiles
	doc.TotalLines = p.TotalLines
	doc.TotalSizeBytes = p.TotalSizeBytes

	nodes, err := s.AllNodes(project)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, n.GraphNode())
	}

	edges, err := s.AllEdges(project)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		doc.Relationships = append(doc.Relationships, e.Relationship())
	}

	files, err := s.GetProcessedFiles(project)
	if err != nil {
		return nil, err
	}
	for f := range files {
		doc.ProcessedFiles = append(doc.ProcessedFiles, f)
	}
	sort.Strings(doc.ProcessedFiles)

	doc.NodeCount = len(doc.Nodes)
	doc.RelationshipCount = len(doc.Relationships)
	return doc, nil
}

// Save upserts doc into the project in one transaction. Rows already stored
// and absent from doc are left in place.
func (s *Store) Save(project, rootPath string, doc *graph.Document) error {
	return s.WithTransaction(func(tx *Store) error {
		if err := tx.UpsertProject(&Project{
			Name:           project,
			RootPath:       rootPath,
			TotalFiles:     doc.TotalFiles,
			TotalLines:     doc.TotalLines,
			TotalSizeBytes: doc.TotalSizeBytes,
		}); err != nil {
			return err
		}

		hashes := make(map[string]string)
		nodes := make([]*Node, 0, len(doc.Nodes))
		for _, n := range doc.Nodes {
			row := &Node{
				Project:    project,
				NodeID:     n.ID,
				Label:      string(n.Label),
				Name:       stringProp(n.Properties, "name"),
				FilePath:   stringProp(n.Properties, "file"),
				Properties: n.Properties,
			}
			if n.Label == graph.LabelFile {
				row.FilePath = n.ID
				hashes[n.ID] = stringProp(n.Properties, "content_hash")
			}
			nodes = append(nodes, row)
		}
		if err := tx.UpsertNodeBatch(nodes); err != nil {
			return err
		}

		edges := make([]*Edge, 0, len(doc.Relationships))
		for _, r := range doc.Relationships {
			edges = append(edges, &Edge{
				Project:     project,
				SourceID:    r.Source.ID,
				SourceLabel: string(r.Source.Label),
				TargetID:    r.Target.ID,
				TargetLabel: string(r.Target.Label),
				Type:        string(r.Type),
				Properties:  r.Properties,
			})
		}
		if err := tx.UpsertEdgeBatch(edges); err != nil {
			return err
		}

		for _, f := range doc.ProcessedFiles {
			if err := tx.UpsertProcessedFile(project, f, hashes[f]); err != nil {
				return fmt.Errorf("record processed file: %w", err)
			}
		}
		return nil
	})
}

// GraphNode converts a stored row back into a graph node.
func (n *Node) GraphNode() graph.Node {
	return graph.Node{
		ID:         n.NodeID,
		Label:      graph.Label(n.Label),
		Properties: n.Properties,
	}
}

// Relationship converts a stored row back into a graph relationship.
func (e *Edge) Relationship() graph.Relationship {
	return graph.Relationship{
		Source:     graph.Endpoint{ID: e.SourceID, Label: graph.Label(e.SourceLabel)},
		Target:     graph.Endpoint{ID: e.TargetID, Label: graph.Label(e.TargetLabel)},
		Type:       graph.RelType(e.Type),
		Properties: e.Properties,
	}
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
