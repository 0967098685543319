// Package tools exposes the code graph over MCP.
package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codegraph/internal/store"
)

// Version is reported in the MCP handshake.
var Version = "dev"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	store *store.Store

	// serializes indexing and deletion across tool calls and watchers
	indexMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store) *Server {
	srv := &Server{
		store: s,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codegraph",
				Version: Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_repository",
		Description: "Index a Python repository into the code graph. Parses every .py file, extracts imports, classes, functions and variables, and merges File/Class/Function/Variable nodes with CONTAINS and IMPORTS relationships into the stored graph. Re-indexing only adds or updates entities.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repo_path": {
					"type": "string",
					"description": "Absolute path to the repository root"
				},
				"project": {
					"type": "string",
					"description": "Project name. Defaults to a name derived from repo_path."
				}
			},
			"required": ["repo_path"]
		}`),
	}, s.handleIndexRepository)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_graph_schema",
		Description: "Return the schema of an indexed project: node label counts, relationship type counts, relationship patterns such as (:Class)-[:CONTAINS]->(:Function), and sample names.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name. Defaults to the most recently indexed project."
				}
			}
		}`),
	}, s.handleGetGraphSchema)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List all indexed projects with root path, indexed_at timestamp, totals and node/relationship counts.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListProjects)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_graph",
		Description: "Return nodes and relationships of an indexed project. Filter by node_id for one node and its relationships, by file for the nodes declared in a file, or by node label (File, Class, Function, Variable, Module). Filtered results include every relationship touching a returned node.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name. Defaults to the most recently indexed project."
				},
				"node_id": {
					"type": "string",
					"description": "Return only this node, e.g. main.py::Foo.bar"
				},
				"file": {
					"type": "string",
					"description": "Only return nodes declared in this root-relative file"
				},
				"label": {
					"type": "string",
					"description": "Only return nodes with this label"
				},
				"limit": {
					"type": "integer",
					"description": "Max nodes (default 100, max 1000)"
				}
			}
		}`),
	}, s.handleGetGraph)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_project",
		Description: "Delete an indexed project and all its nodes, relationships and processed-file records. This action is irreversible.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Name of the project to delete"
				}
			},
			"required": ["project"]
		}`),
	}, s.handleDeleteProject)
}

// resolveProject returns name if set, otherwise the most recently indexed
// project.
func (s *Server) resolveProject(name string) (string, error) {
	if name != "" {
		if _, err := s.store.GetProject(name); err != nil {
			return "", err
		}
		return name, nil
	}
	projects, err := s.store.ListProjects()
	if err != nil {
		return "", fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		return "", fmt.Errorf("no projects indexed")
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].IndexedAt > projects[j].IndexedAt
	})
	return projects[0].Name, nil
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}
