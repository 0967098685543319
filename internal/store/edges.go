package store

import (
	"database/sql"
	"fmt"
	"strings"
)

const edgeColumns = "id, project, source_id, source_label, target_id, target_label, type, properties"

// FindEdgesBySource returns the edges leaving a node.
func (s *Store) FindEdgesBySource(project, sourceID string) ([]*Edge, error) {
	rows, err := s.q.Query(`SELECT `+edgeColumns+` FROM edges WHERE project=? AND source_id=? ORDER BY id`, project, sourceID)
	if err != nil {
		return nil, fmt.Errorf("find edges by source: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// FindEdgesByTarget returns the edges entering a node.
func (s *Store) FindEdgesByTarget(project, targetID string) ([]*Edge, error) {
	rows, err := s.q.Query(`SELECT `+edgeColumns+` FROM edges WHERE project=? AND target_id=? ORDER BY id`, project, targetID)
	if err != nil {
		return nil, fmt.Errorf("find edges by target: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// AllEdges returns every edge of a project in insertion order.
func (s *Store) AllEdges(project string) ([]*Edge, error) {
	rows, err := s.q.Query(`SELECT `+edgeColumns+` FROM edges WHERE project=? ORDER BY id`, project)
	if err != nil {
		return nil, fmt.Errorf("all edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// CountEdges returns the number of edges in a project.
func (s *Store) CountEdges(project string) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM edges WHERE project=?", project).Scan(&count)
	return count, err
}

// edgesBatchSize is the max rows per batch INSERT for edges (7 cols × 142 = 994 vars < 999).
const edgesBatchSize = 142

// UpsertEdgeBatch upserts edges in batched multi-row INSERTs.
func (s *Store) UpsertEdgeBatch(edges []*Edge) error {
	for i := 0; i < len(edges); i += edgesBatchSize {
		end := i + edgesBatchSize
		if end > len(edges) {
			end = len(edges)
		}
		if err := s.upsertEdgeChunk(edges[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertEdgeChunk(batch []*Edge) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO edges (project, source_id, source_label, target_id, target_label, type, properties) VALUES `)

	args := make([]any, 0, len(batch)*7)
	for i, e := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?)")
		args = append(args, e.Project, e.SourceID, e.SourceLabel, e.TargetID, e.TargetLabel, e.Type, marshalProps(e.Properties))
	}
	sb.WriteString(` ON CONFLICT(project, source_id, target_id, type) DO UPDATE SET
		source_label=excluded.source_label, target_label=excluded.target_label,
		properties=excluded.properties`)

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("upsert edge batch: %w", err)
	}
	return nil
}

func scanEdges(rows *sql.Rows) ([]*Edge, error) {
	var result []*Edge
	for rows.Next() {
		var e Edge
		var props string
		if err := rows.Scan(&e.ID, &e.Project, &e.SourceID, &e.SourceLabel, &e.TargetID, &e.TargetLabel, &e.Type, &props); err != nil {
			return nil, err
		}
		e.Properties = unmarshalProps(props)
		result = append(result, &e)
	}
	return result, rows.Err()
}
