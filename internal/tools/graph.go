package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codegraph/internal/graph"
	"github.com/DeusData/codegraph/internal/store"
)

const (
	defaultGraphLimit = 100
	maxGraphLimit     = 1000
)

func (s *Server) handleGetGraph(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name, err := s.resolveProject(getStringArg(args, "project"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	limit := getIntArg(args, "limit", defaultGraphLimit)
	if limit <= 0 {
		limit = defaultGraphLimit
	}
	if limit > maxGraphLimit {
		limit = maxGraphLimit
	}

	var (
		nodes     []graph.Node
		rels      []graph.Relationship
		truncated bool
	)
	nodeID := getStringArg(args, "node_id")
	file := getStringArg(args, "file")
	label := graph.Label(getStringArg(args, "label"))

	switch {
	case nodeID != "":
		row, err := s.store.FindNode(name, nodeID)
		if err != nil {
			return errResult(fmt.Sprintf("find node: %v", err)), nil
		}
		if row == nil {
			return errResult(fmt.Sprintf("node not found: %s", nodeID)), nil
		}
		nodes, rels, err = s.neighborhood(name, []*store.Node{row})
		if err != nil {
			return errResult(err.Error()), nil
		}
	case file != "":
		rows, err := s.store.FindNodesByFile(name, file)
		if err != nil {
			return errResult(err.Error()), nil
		}
		rows, truncated = limitRows(filterLabel(rows, label), limit)
		nodes, rels, err = s.neighborhood(name, rows)
		if err != nil {
			return errResult(err.Error()), nil
		}
	case label != "":
		rows, err := s.store.FindNodesByLabel(name, string(label), limit+1)
		if err != nil {
			return errResult(err.Error()), nil
		}
		rows, truncated = limitRows(rows, limit)
		nodes, rels, err = s.neighborhood(name, rows)
		if err != nil {
			return errResult(err.Error()), nil
		}
	default:
		doc, err := s.store.Load(name)
		if err != nil {
			return errResult(fmt.Sprintf("load graph: %v", err)), nil
		}
		nodes, rels, truncated = filterGraph(doc, limit)
	}

	nodeCount, _ := s.store.CountNodes(name)
	edgeCount, _ := s.store.CountEdges(name)
	return jsonResult(map[string]any{
		"project":            name,
		"node_count":         nodeCount,
		"relationship_count": edgeCount,
		"nodes":              nodes,
		"relationships":      rels,
		"truncated":          truncated,
	}), nil
}

// neighborhood converts rows to graph nodes and collects every relationship
// entering or leaving them, each once.
func (s *Server) neighborhood(project string, rows []*store.Node) ([]graph.Node, []graph.Relationship, error) {
	nodes := make([]graph.Node, 0, len(rows))
	rels := []graph.Relationship{}
	seen := map[int64]bool{}
	for _, row := range rows {
		nodes = append(nodes, row.GraphNode())

		out, err := s.store.FindEdgesBySource(project, row.NodeID)
		if err != nil {
			return nil, nil, err
		}
		in, err := s.store.FindEdgesByTarget(project, row.NodeID)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range append(out, in...) {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			rels = append(rels, e.Relationship())
		}
	}
	return nodes, rels, nil
}

func filterLabel(rows []*store.Node, label graph.Label) []*store.Node {
	if label == "" {
		return rows
	}
	kept := rows[:0]
	for _, r := range rows {
		if r.Label == string(label) {
			kept = append(kept, r)
		}
	}
	return kept
}

func limitRows(rows []*store.Node, limit int) ([]*store.Node, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

// filterGraph keeps the first limit nodes and the relationships whose
// endpoints were both kept.
func filterGraph(doc *graph.Document, limit int) ([]graph.Node, []graph.Relationship, bool) {
	nodes := []graph.Node{}
	kept := map[string]bool{}
	truncated := false
	for _, n := range doc.Nodes {
		if len(nodes) == limit {
			truncated = true
			break
		}
		nodes = append(nodes, n)
		kept[n.ID] = true
	}

	rels := []graph.Relationship{}
	for _, r := range doc.Relationships {
		if kept[r.Source.ID] && kept[r.Target.ID] {
			rels = append(rels, r)
		}
	}
	return nodes, rels, truncated
}
