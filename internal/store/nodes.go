package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const nodeColumns = "id, project, node_id, label, name, file_path, properties"

// FindNode finds a node by project and graph ID. It returns nil, nil when no
// such node exists.
func (s *Store) FindNode(project, nodeID string) (*Node, error) {
	row := s.q.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE project=? AND node_id=?`, project, nodeID)
	return scanNode(row)
}

// FindNodesByLabel finds nodes by project and label in insertion order.
// limit <= 0 means no limit.
func (s *Store) FindNodesByLabel(project, label string, limit int) ([]*Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE project=? AND label=? ORDER BY id`
	args := []any{project, label}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("find by label: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// FindNodesByFile finds all nodes declared in a file.
func (s *Store) FindNodesByFile(project, filePath string) ([]*Node, error) {
	rows, err := s.q.Query(`SELECT `+nodeColumns+` FROM nodes WHERE project=? AND file_path=? ORDER BY id`, project, filePath)
	if err != nil {
		return nil, fmt.Errorf("find by file: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// AllNodes returns every node of a project in insertion order.
func (s *Store) AllNodes(project string) ([]*Node, error) {
	rows, err := s.q.Query(`SELECT `+nodeColumns+` FROM nodes WHERE project=? ORDER BY id`, project)
	if err != nil {
		return nil, fmt.Errorf("all nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// CountNodes returns the number of nodes in a project.
func (s *Store) CountNodes(project string) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM nodes WHERE project=?", project).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*Node, error) {
	var n Node
	var props string
	err := row.Scan(&n.ID, &n.Project, &n.NodeID, &n.Label, &n.Name, &n.FilePath, &props)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	n.Properties = unmarshalProps(props)
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	var result []*Node
	for rows.Next() {
		var n Node
		var props string
		if err := rows.Scan(&n.ID, &n.Project, &n.NodeID, &n.Label, &n.Name, &n.FilePath, &props); err != nil {
			return nil, err
		}
		n.Properties = unmarshalProps(props)
		result = append(result, &n)
	}
	return result, rows.Err()
}

// Formula-derived batch size: SQLite has a 999 bind variable limit.
const numNodeCols = 6
const nodesBatchSize = 999 / numNodeCols // = 166

// UpsertNodeBatch upserts nodes in batched multi-row INSERTs.
func (s *Store) UpsertNodeBatch(nodes []*Node) error {
	for i := 0; i < len(nodes); i += nodesBatchSize {
		end := i + nodesBatchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		if err := s.upsertNodeChunk(nodes[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertNodeChunk(batch []*Node) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO nodes (project, node_id, label, name, file_path, properties) VALUES `)

	args := make([]any, 0, len(batch)*numNodeCols)
	for i, n := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?)")
		args = append(args, n.Project, n.NodeID, n.Label, n.Name, n.FilePath, marshalProps(n.Properties))
	}
	sb.WriteString(` ON CONFLICT(project, node_id) DO UPDATE SET
		label=excluded.label, name=excluded.name, file_path=excluded.file_path,
		properties=excluded.properties`)

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("upsert node batch: %w", err)
	}
	return nil
}
