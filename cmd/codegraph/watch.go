package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeusData/codegraph/internal/config"
	"github.com/DeusData/codegraph/internal/pipeline"
	"github.com/DeusData/codegraph/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [root...]",
	Short: "Index, then re-index whenever source files change",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	opts := parseOptions(cfg)
	p := pipeline.New(s, roots, opts)
	w := watcher.New(roots, discoverOptions(opts), func(ctx context.Context) error {
		return indexOnce(ctx, cmd, p, dest)
	})
	if err := w.Baseline(ctx); err != nil {
		return err
	}
	if err := indexOnce(ctx, cmd, p, dest); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d root(s), Ctrl-C to stop\n", len(roots))
	w.Run(ctx)
	return nil
}
