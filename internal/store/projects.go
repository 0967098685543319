package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Project represents an indexed project.
type Project struct {
	Name           string `json:"name"`
	IndexedAt      string `json:"indexed_at"`
	RootPath       string `json:"root_path"`
	TotalFiles     int    `json:"total_files"`
	TotalLines     int    `json:"total_lines"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
}

// UpsertProject creates or updates a project record.
func (s *Store) UpsertProject(p *Project) error {
	_, err := s.q.Exec(`
		INSERT INTO projects (name, indexed_at, root_path, total_files, total_lines, total_size_bytes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			indexed_at=excluded.indexed_at, root_path=excluded.root_path,
			total_files=excluded.total_files, total_lines=excluded.total_lines,
			total_size_bytes=excluded.total_size_bytes`,
		p.Name, Now(), p.RootPath, p.TotalFiles, p.TotalLines, p.TotalSizeBytes)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// GetProject returns a project by name, or ErrProjectNotFound.
func (s *Store) GetProject(name string) (*Project, error) {
	var p Project
	err := s.q.QueryRow(`SELECT name, indexed_at, root_path, total_files, total_lines, total_size_bytes
		FROM projects WHERE name=?`, name).
		Scan(&p.Name, &p.IndexedAt, &p.RootPath, &p.TotalFiles, &p.TotalLines, &p.TotalSizeBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns all indexed projects.
func (s *Store) ListProjects() ([]*Project, error) {
	rows, err := s.q.Query(`SELECT name, indexed_at, root_path, total_files, total_lines, total_size_bytes
		FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Name, &p.IndexedAt, &p.RootPath, &p.TotalFiles, &p.TotalLines, &p.TotalSizeBytes); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// DeleteProject deletes a project and all associated data (CASCADE).
func (s *Store) DeleteProject(name string) error {
	_, err := s.q.Exec("DELETE FROM projects WHERE name=?", name)
	return err
}

// UpsertProcessedFile records a file as processed with its content hash.
func (s *Store) UpsertProcessedFile(project, relPath, hash string) error {
	_, err := s.q.Exec(`
		INSERT INTO processed_files (project, rel_path, content_hash) VALUES (?, ?, ?)
		ON CONFLICT(project, rel_path) DO UPDATE SET content_hash=excluded.content_hash`,
		project, relPath, hash)
	return err
}

// GetProcessedFiles returns rel_path -> content hash for a project.
func (s *Store) GetProcessedFiles(project string) (map[string]string, error) {
	rows, err := s.q.Query("SELECT rel_path, content_hash FROM processed_files WHERE project=?", project)
	if err != nil {
		return nil, fmt.Errorf("get processed files: %w", err)
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		result[path] = hash
	}
	return result, rows.Err()
}
