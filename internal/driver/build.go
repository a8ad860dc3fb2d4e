package driver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"kairo/internal/source"
)

// SourceExt is the Kairo source file extension.
const SourceExt = ".kr"

// UnitExt is the serialized IR unit extension.
const UnitExt = ".kir"

// UnitPath maps a source path to its .kir artifact inside outDir.
func UnitPath(outDir, srcPath string) string {
	base := strings.TrimSuffix(filepath.Base(srcPath), SourceExt)
	return filepath.Join(outDir, base+UnitExt)
}

// CollectSources lists the .kr files under a file or directory path, sorted
// for deterministic builds.
func CollectSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == SourceExt {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Build analyzes every file concurrently, then emits IR only when no file
// produced an error. Results come back in input order regardless of which
// pipeline finished first.
func Build(paths []string, opts Options) ([]*Result, error) {
	results := make([]*Result, len(paths))

	// Each pipeline gets its own FileSet: spans stay file-local and no
	// lock is shared across workers.
	var g errgroup.Group
	g.SetLimit(opts.jobs())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			fs := source.NewFileSet()
			r, err := Analyze(fs, path, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Any error anywhere blocks emission for the whole build.
	for _, r := range results {
		if r.Bag.HasErrors() {
			return results, nil
		}
	}

	var eg errgroup.Group
	eg.SetLimit(opts.jobs())
	for _, r := range results {
		r := r
		eg.Go(func() error {
			return r.Emit(opts)
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Check analyzes every file concurrently without emitting anything.
func Check(paths []string, opts Options) ([]*Result, error) {
	noEmit := opts
	noEmit.OutDir = ""
	results := make([]*Result, len(paths))

	var g errgroup.Group
	g.SetLimit(noEmit.jobs())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			fs := source.NewFileSet()
			r, err := Analyze(fs, path, noEmit)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// HasErrors reports whether any result carries an error diagnostic.
func HasErrors(results []*Result) bool {
	for _, r := range results {
		if r != nil && r.Bag.HasErrors() {
			return true
		}
	}
	return false
}
