package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded kairo.toml together with where it was found.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the TOML layout of kairo.toml.
type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
}

// PackageConfig is the [package] table.
type PackageConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildConfig is the [build] table. Entry is the source file or directory to
// compile, relative to the project root; Out is where .kir units land.
type BuildConfig struct {
	Entry string `toml:"entry"`
	Out   string `toml:"out"`
}

// DefaultOut is used when [build].out is omitted.
const DefaultOut = "build"

// Load parses and validates one kairo.toml.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}
	if !meta.IsDefined("build", "entry") || strings.TrimSpace(cfg.Build.Entry) == "" {
		return nil, fmt.Errorf("%s: missing [build].entry", path)
	}
	if strings.TrimSpace(cfg.Build.Out) == "" {
		cfg.Build.Out = DefaultOut
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, nil
}

// LoadFrom finds and loads the manifest governing startDir.
func LoadFrom(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// EntryPath resolves [build].entry against the project root.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Build.Entry))
}

// OutDir resolves [build].out against the project root.
func (m *Manifest) OutDir() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Build.Out))
}

// DefaultText renders the manifest written by kairo init.
func DefaultText(name string) string {
	return fmt.Sprintf(`# Kairo project manifest
[package]
name = "%s"
version = "0.1.0"

[build]
entry = "src/main.kr"
out = "build"
`, name)
}
