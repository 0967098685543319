package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeusData/codegraph/internal/config"
	"github.com/DeusData/codegraph/internal/pipeline"
)

var indexCmd = &cobra.Command{
	Use:   "index [root...]",
	Short: "Index one or more project roots into the graph",
	Long:  "Parses every matching file under the roots, materializes the graph and merges it into the JSON document or SQLite database.",
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	roots, err := resolveRoots(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(roots[0])
	s, dest, closeStore, err := openStore(cfg, roots[0])
	if err != nil {
		return err
	}
	defer closeStore()

	p := pipeline.New(s, roots, parseOptions(cfg))
	return indexOnce(ctx, cmd, p, dest)
}

func indexOnce(ctx context.Context, cmd *cobra.Command, p *pipeline.Pipeline, dest string) error {
	start := time.Now()
	res, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d files (%d lines, %.2f MB) in %s\n",
		res.Summary.TotalFiles, res.Summary.TotalLines, res.Summary.TotalSizeMB,
		time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "Graph: %d nodes, %d relationships -> %s\n", res.Nodes, res.Edges, dest)
	if n := len(res.Summary.FilesWithErrors); n > 0 {
		fmt.Fprintf(out, "Files with errors (%d):\n", n)
		for _, f := range res.Summary.FilesWithErrors {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	if res.Summary.TotalFiles == 0 {
		for _, e := range res.Errors {
			fmt.Fprintln(out, e)
		}
	}
	return nil
}
