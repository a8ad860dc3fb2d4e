package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, DefaultText("demo"))

	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Config.Package.Name != "demo" {
		t.Fatalf("name = %q, want demo", m.Config.Package.Name)
	}
	if m.Root != dir {
		t.Fatalf("root = %q, want %q", m.Root, dir)
	}
	if got := m.EntryPath(); got != filepath.Join(dir, "src", "main.kr") {
		t.Fatalf("entry = %q", got)
	}
	if got := m.OutDir(); got != filepath.Join(dir, "build") {
		t.Fatalf("out = %q", got)
	}
}

func TestLoadRejectsIncompleteManifest(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no name", "[package]\n[build]\nentry = \"src/main.kr\"\n"},
		{"no entry", "[package]\nname = \"demo\"\n"},
		{"blank name", "[package]\nname = \"  \"\n[build]\nentry = \"src/main.kr\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tc.text)
			if _, err := Load(path); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestOutDefaults(t *testing.T) {
	path := writeManifest(t, t.TempDir(),
		"[package]\nname = \"demo\"\n[build]\nentry = \"src/main.kr\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Config.Build.Out != DefaultOut {
		t.Fatalf("out = %q, want %q", m.Config.Build.Out, DefaultOut)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, DefaultText("demo"))
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("found %q, want under %q", path, root)
	}

	if _, ok, err := FindManifest(t.TempDir()); err != nil || ok {
		t.Fatalf("unrelated dir: ok=%v err=%v", ok, err)
	}

	got, ok, err := FindRoot(nested)
	if err != nil || !ok || got != root {
		t.Fatalf("root = %q ok=%v err=%v, want %q", got, ok, err, root)
	}
}
