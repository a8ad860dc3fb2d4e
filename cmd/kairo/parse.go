package main

import (
	"os"

	"github.com/spf13/cobra"

	"kairo/internal/diagfmt"
	"kairo/internal/driver"
	"kairo/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.kr",
	Short: "Parse a kairo source file and dump its syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("no-tree", false, "only report diagnostics, skip the tree dump")
}

func runParse(cmd *cobra.Command, args []string) error {
	noTree, _ := cmd.Flags().GetBool("no-tree")

	result, err := driver.Parse(source.NewFileSet(), args[0], driverOptions(cmd))
	if err != nil {
		return err
	}
	printBag(cmd, result.Bag, result.FileSet())

	if !noTree {
		diagfmt.DumpAST(os.Stdout, result.Builder, result.ASTFile)
	}
	if result.Bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}
