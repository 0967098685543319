// Package pipeline runs aggregation, materialization and the incremental
// merge as one indexing pass.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/DeusData/codegraph/internal/graph"
	"github.com/DeusData/codegraph/internal/project"
)

// Store persists a merged graph document per project.
type Store interface {
	Load(project string) (*graph.Document, error)
	Save(project, root string, doc *graph.Document) error
}

// Pipeline indexes a set of roots into a Store.
type Pipeline struct {
	Store       Store
	Roots       []string
	ProjectName string
	Options     project.Options
}

// Result describes one completed run.
type Result struct {
	Project   string          `json:"project"`
	Root      string          `json:"root"`
	Summary   project.Summary `json:"summary"`
	Nodes     int             `json:"nodes"`
	Edges     int             `json:"relationships"`
	Changed   int             `json:"changed_files"`
	Unchanged int             `json:"unchanged_files"`
	Errors    []string        `json:"errors"`

	Document *graph.Document `json:"-"`
}

// New creates a Pipeline. The project name is derived from the first root.
func New(s Store, roots []string, opts project.Options) *Pipeline {
	name := "root"
	if len(roots) > 0 {
		if abs, err := filepath.Abs(roots[0]); err == nil {
			name = ProjectNameFromPath(abs)
		}
	}
	return &Pipeline{
		Store:       s,
		Roots:       roots,
		ProjectName: name,
		Options:     opts,
	}
}

// ProjectNameFromPath derives a unique project name from an absolute path
// by replacing path separators with dashes and trimming the leading dash.
func ProjectNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.ReplaceAll(cleaned, "/", "-")
	name = strings.TrimLeft(name, "-")
	if name == "" {
		return "root"
	}
	return name
}

// Run parses the roots, materializes the graph, merges it into the stored
// document and saves the result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	slog.Info("pipeline.start", "project", p.ProjectName, "roots", p.Roots)
	start := time.Now()

	t := time.Now()
	pg, err := project.Parse(ctx, p.Roots, p.Options)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	slog.Info("pass.timing", "pass", "parse", "files", pg.TotalFiles, "elapsed", time.Since(t))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t = time.Now()
	next := graph.Build(pg)
	slog.Info("pass.timing", "pass", "materialize", "nodes", next.NodeCount, "elapsed", time.Since(t))

	t = time.Now()
	prev, err := p.Store.Load(p.ProjectName)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	slog.Info("pass.timing", "pass", "load", "nodes", prev.NodeCount, "elapsed", time.Since(t))

	changed, unchanged := classifyFiles(prev, next)
	slog.Info("incremental.classify", "changed", changed, "unchanged", unchanged, "total", pg.TotalFiles)

	t = time.Now()
	merged := graph.Merge(prev, next)
	slog.Info("pass.timing", "pass", "merge", "elapsed", time.Since(t))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t = time.Now()
	if err := p.Store.Save(p.ProjectName, pg.Root, merged); err != nil {
		return nil, fmt.Errorf("save graph: %w", err)
	}
	slog.Info("pass.timing", "pass", "save", "elapsed", time.Since(t))

	res := &Result{
		Project:   p.ProjectName,
		Root:      pg.Root,
		Summary:   project.Summarize(pg),
		Nodes:     merged.NodeCount,
		Edges:     merged.RelationshipCount,
		Changed:   changed,
		Unchanged: unchanged,
		Errors:    pg.Errors,
		Document:  merged,
	}
	slog.Info("pipeline.done", "project", p.ProjectName, "nodes", res.Nodes, "edges", res.Edges,
		"errors", len(res.Errors), "elapsed", time.Since(start))
	return res, nil
}

// classifyFiles compares File node content hashes between the stored and the
// fresh document. Files without a stored hash count as changed.
func classifyFiles(prev, next *graph.Document) (changed, unchanged int) {
	old := make(map[string]string, len(prev.Nodes))
	for _, n := range prev.Nodes {
		if n.Label == graph.LabelFile {
			old[n.ID] = hashOf(n)
		}
	}
	for _, n := range next.Nodes {
		if n.Label != graph.LabelFile {
			continue
		}
		if h := hashOf(n); h != "" && old[n.ID] == h {
			unchanged++
		} else {
			changed++
		}
	}
	return changed, unchanged
}

func hashOf(n graph.Node) string {
	h, _ := n.Properties["content_hash"].(string)
	return h
}
