package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DeusData/codegraph/internal/config"
	"github.com/DeusData/codegraph/internal/discover"
	"github.com/DeusData/codegraph/internal/graph"
	"github.com/DeusData/codegraph/internal/pipeline"
	"github.com/DeusData/codegraph/internal/project"
	"github.com/DeusData/codegraph/internal/store"
	"github.com/DeusData/codegraph/internal/tools"
)

var version = "dev"

var (
	flagVerbose bool
	flagOutput  string
	flagDB      string
	flagExt     string
	flagWorkers int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codegraph",
	Short:         "Static code graph extraction for Python projects",
	Long:          "codegraph parses Python sources with tree-sitter, extracts imports, classes, functions and variables, and merges them into a persistent graph of File/Class/Function/Variable nodes.",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupLogging(flagVerbose)
	},
}

func init() {
	tools.Version = version

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "JSON graph path (default: codegraph.json in the first root)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (\":memory:\" for an in-memory database); replaces the JSON output when set")
	rootCmd.PersistentFlags().StringVar(&flagExt, "ext", "", "source file extension (default .py)")
	rootCmd.PersistentFlags().IntVarP(&flagWorkers, "workers", "w", 0, "parser workers (default: number of CPUs)")

	rootCmd.AddCommand(indexCmd, watchCmd, serveCmd, astCmd, summaryCmd)
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// resolveRoots returns absolute, existing directories for args, or the
// working directory when none are given.
func resolveRoots(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	roots := make([]string, 0, len(args))
	for _, dir := range args {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving path %q: %w", dir, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("directory not found: %s", abs)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", abs)
		}
		roots = append(roots, abs)
	}
	return roots, nil
}

// parseOptions merges .codegraph.yaml from the first root with CLI flags.
func parseOptions(cfg *config.Config) project.Options {
	opts := project.Options{
		Extension:      cfg.EffectiveExtension(),
		IgnorePatterns: cfg.EffectiveIgnorePatterns(),
		Workers:        cfg.EffectiveWorkers(),
	}
	if flagExt != "" {
		opts.Extension = flagExt
	}
	if flagWorkers > 0 {
		opts.Workers = flagWorkers
	}
	return opts
}

func discoverOptions(opts project.Options) *discover.Options {
	return &discover.Options{
		Extension:      opts.Extension,
		IgnorePatterns: opts.IgnorePatterns,
	}
}

// openStore picks SQLite when --db or the config names a database, the JSON
// document otherwise. The returned close func is never nil.
func openStore(cfg *config.Config, root string) (pipeline.Store, string, func(), error) {
	dbPath, useDB := cfg.DatabasePath(root)
	if flagDB != "" {
		dbPath, useDB = flagDB, true
	}
	if useDB {
		s, err := store.Open(dbPath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("open store: %w", err)
		}
		return s, dbPath, func() { s.Close() }, nil
	}

	out := cfg.EffectiveOutput(root)
	if flagOutput != "" {
		out = flagOutput
	}
	return &graph.FileStore{Path: out}, out, func() {}, nil
}
