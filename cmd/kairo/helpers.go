package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kairo/internal/diag"
	"kairo/internal/diagfmt"
	"kairo/internal/driver"
	"kairo/internal/project"
	"kairo/internal/source"
)

// useColor resolves the --color flag against NO_COLOR and the terminal.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		return isTerminal(f)
	}
}

func driverOptions(cmd *cobra.Command) driver.Options {
	maxDiag, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	jobs, _ := cmd.Root().PersistentFlags().GetInt("jobs")
	return driver.Options{MaxDiagnostics: maxDiag, Jobs: jobs}
}

func prettyOptions(cmd *cobra.Command, f *os.File) diagfmt.PrettyOpts {
	return diagfmt.PrettyOpts{
		Color:     useColor(cmd, f),
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
		ShowFixes: true,
	}
}

// printBag renders one file's diagnostics to stderr.
func printBag(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag.Len() == 0 {
		return
	}
	diagfmt.Pretty(os.Stderr, bag, fs, prettyOptions(cmd, os.Stderr))
	fmt.Fprintln(os.Stderr)
}

// printResults renders every pipeline's diagnostics and reports whether any
// file errored.
func printResults(cmd *cobra.Command, results []*driver.Result) bool {
	for _, r := range results {
		printBag(cmd, r.Bag, r.FileSet())
	}
	return driver.HasErrors(results)
}

func printTimings(cmd *cobra.Command, results []*driver.Result) {
	show, _ := cmd.Root().PersistentFlags().GetBool("timings")
	if !show {
		return
	}
	for _, r := range results {
		fmt.Fprintf(os.Stderr, "%s: %s\n", r.Path, r.Timings)
	}
}

// loadManifest looks for a kairo.toml governing the working directory.
func loadManifest() (*project.Manifest, bool, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, false, err
	}
	return project.LoadFrom(wd)
}

// resolveSources turns the command argument (or the project manifest when
// the argument is omitted) into a sorted list of source files.
func resolveSources(args []string) ([]string, error) {
	if len(args) == 1 {
		return driver.CollectSources(args[0])
	}
	manifest, ok, err := loadManifest()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no kairo.toml found; pass a file or directory explicitly")
	}
	return driver.CollectSources(manifest.EntryPath())
}
