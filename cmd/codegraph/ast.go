package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/DeusData/codegraph/internal/lang"
	"github.com/DeusData/codegraph/internal/parser"
	"github.com/DeusData/codegraph/internal/syntax"
)

var flagAllNodes bool

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Print the syntax tree of a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAST,
}

func init() {
	astCmd.Flags().BoolVar(&flagAllNodes, "all", false, "include anonymous nodes (punctuation, keywords)")
}

func runAST(cmd *cobra.Command, args []string) error {
	path := args[0]
	l, ok := lang.LanguageForExtension(filepath.Ext(path))
	if !ok {
		return fmt.Errorf("unsupported file type: %s", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tree, err := parser.ParseSyntax(l, source)
	if err != nil {
		return err
	}
	if tree.HasError {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: syntax errors present")
	}
	printAST(cmd.OutOrStdout(), tree.Root, 0, flagAllNodes)
	return nil
}

func printAST(w io.Writer, n *syntax.Node, depth int, all bool) {
	if n == nil {
		return
	}
	if !n.Named && !all {
		return
	}
	fmt.Fprintf(w, "%s%s [%s] %d-%d %q\n",
		strings.Repeat("  ", depth), n.Type, n.Kind, n.StartLine, n.EndLine, truncate(n.Text(), 60))
	for _, c := range n.Children {
		printAST(w, c, depth+1, all)
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
