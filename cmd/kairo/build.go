package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"kairo/internal/driver"
	"kairo/internal/project"
	"kairo/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.kr|dir]",
	Short: "Check sources and emit .kir units",
	Long: `Build analyzes every source file and, if no file produced an error,
lowers each one to an IR unit under the output directory. A single error
anywhere blocks emission for the whole build.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("out", "", "output directory for .kir units (default from kairo.toml)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	paths, err := resolveSources(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s files to build", driver.SourceExt)
	}
	outDir, err := resolveOutDir(cmd)
	if err != nil {
		return err
	}

	opts := driverOptions(cmd)
	opts.OutDir = outDir
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	var results []*driver.Result
	if showProgress(quiet) {
		results, err = buildWithProgress(paths, opts)
	} else {
		results, err = driver.Build(paths, opts)
	}
	if err != nil {
		return err
	}

	failed := printResults(cmd, results)
	printTimings(cmd, results)
	if failed {
		os.Exit(1)
	}
	if !quiet {
		fmt.Printf("wrote %d unit(s) to %s\n", len(results), outDir)
	}
	return nil
}

// showProgress gates the live progress UI on an interactive stdout.
func showProgress(quiet bool) bool {
	if quiet || env.Bool("KAIRO_NO_PROGRESS") {
		return false
	}
	return isTerminal(os.Stdout)
}

// buildWithProgress runs the build behind a Bubble Tea progress view. The
// driver feeds events through a buffered channel; closing it after the
// build stops the view.
func buildWithProgress(paths []string, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan ui.Event, 4*len(paths))
	opts.Events = events

	var (
		results  []*driver.Result
		buildErr error
	)
	prog := tea.NewProgram(ui.NewProgressModel("building", paths, events))
	go func() {
		results, buildErr = driver.Build(paths, opts)
		close(events)
	}()
	if _, err := prog.Run(); err != nil {
		return results, err
	}
	return results, buildErr
}

// resolveOutDir picks the unit directory: --out wins, then the manifest's
// [build].out, then the builtin default in the working directory.
func resolveOutDir(cmd *cobra.Command) (string, error) {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return out, nil
	}
	manifest, ok, err := loadManifest()
	if err != nil {
		return "", err
	}
	if ok {
		return manifest.OutDir(), nil
	}
	return project.DefaultOut, nil
}
