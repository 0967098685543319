package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListProjects(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects()
	if err != nil {
		return errResult(fmt.Sprintf("list projects: %v", err)), nil
	}

	type projectInfo struct {
		Name          string `json:"name"`
		RootPath      string `json:"root_path"`
		IndexedAt     string `json:"indexed_at"`
		TotalFiles    int    `json:"total_files"`
		TotalLines    int    `json:"total_lines"`
		Nodes         int    `json:"nodes"`
		Relationships int    `json:"relationships"`
	}

	result := make([]projectInfo, 0, len(projects))
	for _, p := range projects {
		nc, _ := s.store.CountNodes(p.Name)
		ec, _ := s.store.CountEdges(p.Name)
		result = append(result, projectInfo{
			Name:          p.Name,
			RootPath:      p.RootPath,
			IndexedAt:     p.IndexedAt,
			TotalFiles:    p.TotalFiles,
			TotalLines:    p.TotalLines,
			Nodes:         nc,
			Relationships: ec,
		})
	}

	return jsonResult(result), nil
}

func (s *Server) handleDeleteProject(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "project")
	if name == "" {
		return errResult("project is required"), nil
	}
	if _, err := s.store.GetProject(name); err != nil {
		return errResult(err.Error()), nil
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if err := s.store.DeleteProject(name); err != nil {
		return errResult(fmt.Sprintf("delete failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"deleted": name,
		"status":  "ok",
	}), nil
}
