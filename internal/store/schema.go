package store

import (
	"fmt"
	"sort"
)

// SchemaInfo contains graph schema statistics.
type SchemaInfo struct {
	NodeLabels           []LabelCount `json:"node_labels"`
	RelationshipTypes    []TypeCount  `json:"relationship_types"`
	RelationshipPatterns []string     `json:"relationship_patterns"`
	SampleFunctionNames  []string     `json:"sample_function_names"`
	SampleClassNames     []string     `json:"sample_class_names"`
	SampleNodeIDs        []string     `json:"sample_node_ids"`
}

// LabelCount is a label with its count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TypeCount is a relationship type with its count.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// GetSchema returns graph schema statistics for a project.
func (s *Store) GetSchema(project string) (*SchemaInfo, error) {
	info := &SchemaInfo{}

	var err error
	if info.NodeLabels, err = s.schemaNodeLabels(project); err != nil {
		return nil, err
	}
	if info.RelationshipTypes, err = s.schemaEdgeTypes(project); err != nil {
		return nil, err
	}
	if info.RelationshipPatterns, err = s.schemaRelPatterns(project); err != nil {
		return nil, err
	}
	if info.SampleFunctionNames, err = s.schemaSample(project, "name", "Function", 30); err != nil {
		return nil, err
	}
	if info.SampleClassNames, err = s.schemaSample(project, "name", "Class", 20); err != nil {
		return nil, err
	}
	if info.SampleNodeIDs, err = s.schemaSample(project, "node_id", "", 5); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *Store) schemaNodeLabels(project string) ([]LabelCount, error) {
	rows, err := s.q.Query("SELECT label, COUNT(*) as cnt FROM nodes WHERE project=? GROUP BY label ORDER BY cnt DESC, label", project)
	if err != nil {
		return nil, fmt.Errorf("schema labels: %w", err)
	}
	defer rows.Close()
	var labels []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		labels = append(labels, lc)
	}
	return labels, rows.Err()
}

func (s *Store) schemaEdgeTypes(project string) ([]TypeCount, error) {
	rows, err := s.q.Query("SELECT type, COUNT(*) as cnt FROM edges WHERE project=? GROUP BY type ORDER BY cnt DESC, type", project)
	if err != nil {
		return nil, fmt.Errorf("schema edge types: %w", err)
	}
	defer rows.Close()
	var types []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		types = append(types, tc)
	}
	return types, rows.Err()
}

// schemaRelPatterns counts (source label, type, target label) triples. Edges
// carry their endpoint labels, so no join is needed.
func (s *Store) schemaRelPatterns(project string) ([]string, error) {
	rows, err := s.q.Query(`SELECT source_label, type, target_label, COUNT(*) FROM edges
		WHERE project=? GROUP BY source_label, type, target_label`, project)
	if err != nil {
		return nil, fmt.Errorf("schema patterns: %w", err)
	}
	defer rows.Close()

	type patternEntry struct {
		src, rel, tgt string
		cnt           int
	}
	var entries []patternEntry
	for rows.Next() {
		var e patternEntry
		if err := rows.Scan(&e.src, &e.rel, &e.tgt, &e.cnt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].cnt > entries[j].cnt })
	if len(entries) > 25 {
		entries = entries[:25]
	}
	patterns := make([]string, 0, len(entries))
	for _, e := range entries {
		patterns = append(patterns, fmt.Sprintf("(:%s)-[:%s]->(:%s)  [%dx]", e.src, e.rel, e.tgt, e.cnt))
	}
	return patterns, nil
}

// schemaSample returns up to limit values of column, optionally restricted to
// one label.
func (s *Store) schemaSample(project, column, label string, limit int) ([]string, error) {
	query := "SELECT " + column + " FROM nodes WHERE project=?"
	args := []any{project}
	if label != "" {
		query += " AND label=?"
		args = append(args, label)
	}
	query += " ORDER BY " + column + " LIMIT ?"
	args = append(args, limit)

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("schema sample %s: %w", column, err)
	}
	defer rows.Close()
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
