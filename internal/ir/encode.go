package ir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrSchema is returned when a decoded unit carries an incompatible schema
// version.
var ErrSchema = errors.New("incompatible unit schema")

// Encode writes a module in its serialized form.
func Encode(w io.Writer, m *Module) error {
	return msgpack.NewEncoder(w).Encode(m)
}

// Decode reads a serialized module and checks its schema.
func Decode(r io.Reader) (*Module, error) {
	var m Module
	if err := msgpack.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	if m.Schema != Schema {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, m.Schema, Schema)
	}
	return &m, nil
}

// WriteFile serializes a module to path through a temp file and an atomic
// rename, so a crashed build never leaves a truncated artifact behind.
func WriteFile(path string, m *Module) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*.kir")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := Encode(f, m); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadFile loads a serialized module. A missing file reports (nil, false, nil).
func ReadFile(path string) (*Module, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}
