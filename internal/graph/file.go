package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrCorruptDocument is returned when a stored document is not valid JSON.
var ErrCorruptDocument = errors.New("corrupt graph document")

// LoadDocument reads a document from path. A missing or empty file yields an
// empty document.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	doc := NewDocument()
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
	}
	if doc.ProcessedFiles == nil {
		doc.ProcessedFiles = []string{}
	}
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Relationships == nil {
		doc.Relationships = []Relationship{}
	}
	return doc, nil
}

// SaveDocument writes doc to path as indented JSON. The file is replaced
// atomically.
func SaveDocument(path string, doc *Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".codegraph-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close graph: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename graph: %w", err)
	}
	return nil
}

// FileStore persists a single document as a JSON file.
type FileStore struct {
	Path string
}

// Load reads the stored document. The project name is not used; a file holds
// one graph. A corrupt file is logged and treated as empty, so the next Save
// replaces it.
func (s *FileStore) Load(_ string) (*Document, error) {
	doc, err := LoadDocument(s.Path)
	if errors.Is(err, ErrCorruptDocument) {
		slog.Warn("graph.load_invalid", "path", s.Path, "err", err)
		return NewDocument(), nil
	}
	return doc, err
}

// Save writes doc.
func (s *FileStore) Save(_, _ string, doc *Document) error {
	return SaveDocument(s.Path, doc)
}
