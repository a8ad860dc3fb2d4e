package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kairo/internal/diagfmt"
	"kairo/internal/driver"
	"kairo/internal/source"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.kr",
	Short: "Tokenize a kairo source file",
	Long:  `Tokenize breaks a kairo source file into its token stream`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	result, err := driver.Tokenize(source.NewFileSet(), args[0], driverOptions(cmd))
	if err != nil {
		return err
	}
	printBag(cmd, result.Bag, result.FileSet())

	switch format {
	case "pretty":
		diagfmt.FormatTokensPretty(os.Stdout, result.Tokens, result.FileSet())
	case "json":
		if err := diagfmt.FormatTokensJSON(os.Stdout, result.Tokens); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if result.Bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}
