package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kairo/internal/diagfmt"
	"kairo/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.kr|dir]",
	Short: "Run every analysis without emitting IR",
	Long: `Check runs the full pipeline (syntax, binding, types, ownership,
concurrency safety and loop analysis) and reports diagnostics without
writing any artifacts. With no argument it checks the project's
[build].entry from kairo.toml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "diagnostic format (pretty|json)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	paths, err := resolveSources(args)
	if err != nil {
		return err
	}
	results, err := driver.Check(paths, driverOptions(cmd))
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "pretty":
		failed := printResults(cmd, results)
		printTimings(cmd, results)
		if failed {
			os.Exit(1)
		}
	case "json":
		opts := diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			IncludeFixes:     true,
		}
		for _, r := range results {
			if err := diagfmt.JSON(os.Stdout, r.Bag, r.FileSet(), opts); err != nil {
				return err
			}
		}
		if driver.HasErrors(results) {
			os.Exit(1)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}
