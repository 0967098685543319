package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/DeusData/codegraph/internal/config"
	"github.com/DeusData/codegraph/internal/project"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [root...]",
	Short: "Parse the roots and print parse statistics as JSON",
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	roots, err := resolveRoots(args)
	if err != nil {
		return err
	}
	pg, err := project.Parse(cmd.Context(), roots, parseOptions(config.Load(roots[0])))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(project.Summarize(pg))
}
