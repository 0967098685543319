package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codegraph/internal/config"
	"github.com/DeusData/codegraph/internal/pipeline"
	"github.com/DeusData/codegraph/internal/project"
	"github.com/DeusData/codegraph/internal/store"
)

func (s *Server) handleIndexRepository(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	repoPath := getStringArg(args, "repo_path")
	if repoPath == "" {
		return errResult("repo_path is required"), nil
	}
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	res, err := s.Index(ctx, absPath, getStringArg(args, "project"))
	if err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	proj, _ := s.store.GetProject(res.Project)
	indexedAt := ""
	if proj != nil {
		indexedAt = proj.IndexedAt
	}

	return jsonResult(map[string]any{
		"project":       res.Project,
		"nodes":         res.Nodes,
		"relationships": res.Edges,
		"summary":       res.Summary,
		"errors":        res.Errors,
		"indexed_at":    indexedAt,
	}), nil
}

// Index runs the pipeline for root into the server's store, honoring the
// root's .codegraph.yaml. An empty name derives one from the path.
func (s *Server) Index(ctx context.Context, root, name string) (*pipeline.Result, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.runPipeline(ctx, root, name)
}

// reindex re-runs an already stored project. It is a no-op once the project
// has been deleted.
func (s *Server) reindex(ctx context.Context, root, name string) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if _, err := s.store.GetProject(name); errors.Is(err, store.ErrProjectNotFound) {
		slog.Debug("watcher.project_gone", "project", name)
		return nil
	}
	res, err := s.runPipeline(ctx, root, name)
	if err != nil {
		return err
	}
	slog.Info("watcher.reindexed", "project", name, "changed", res.Changed, "nodes", res.Nodes)
	return nil
}

func (s *Server) runPipeline(ctx context.Context, root, name string) (*pipeline.Result, error) {
	cfg := config.Load(root)
	p := pipeline.New(s.store, []string{root}, project.Options{
		Extension:      cfg.EffectiveExtension(),
		IgnorePatterns: cfg.EffectiveIgnorePatterns(),
		Workers:        cfg.EffectiveWorkers(),
	})
	if name != "" {
		p.ProjectName = name
	}
	return p.Run(ctx)
}
