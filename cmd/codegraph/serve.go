package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/DeusData/codegraph/internal/store"
	"github.com/DeusData/codegraph/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the graph over MCP on stdio",
	Long:  "Runs an MCP server on stdin/stdout exposing index_repository, get_graph_schema, list_projects, get_graph and delete_project, backed by the SQLite store. Every stored project is watched and re-indexed when its files change.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	dbPath := flagDB
	if dbPath == "" {
		var err error
		if dbPath, err = store.DefaultPath(); err != nil {
			return err
		}
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("store open: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := tools.NewServer(s)
	go srv.WatchProjects(ctx, tools.DefaultWatchRefresh)
	if err := srv.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
