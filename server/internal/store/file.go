package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// File persists the record map as one JSON object keyed by token.
//
// Save replaces the file atomically: the document is written to a temp file
// in the same directory and renamed over the target.
type File struct {
	fs   afero.Fs
	path string
}

// NewFile returns a File that stores its state at path on fsys.
func NewFile(fsys afero.Fs, path string) *File {
	return &File{fs: fsys, path: path}
}

// Path returns the location of the state file.
func (f *File) Path() string {
	return f.path
}

// Load reads and decodes the state file. An empty file decodes to an empty
// map. A missing file yields an error wrapping fs.ErrNotExist. An entry that
// is not a JSON object is logged and skipped so the other records survive.
func (f *File) Load() (map[string]*Record, error) {
	b, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		return nil, fmt.Errorf("read state file %q: %w", f.path, err)
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return map[string]*Record{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse state file %q: %w", f.path, err)
	}

	data := make(map[string]*Record, len(raw))
	for token, entry := range raw {
		var rec *Record
		if err := json.Unmarshal(entry, &rec); err != nil {
			slog.Warn("store: skipping unreadable record", "path", f.path, "token", token, "err", err)
			continue
		}
		data[token] = rec
	}
	return data, nil
}

// Save encodes data and atomically replaces the state file.
func (f *File) Save(data map[string]*Record) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(f.path)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := afero.TempFile(f.fs, dir, filepath.Base(f.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = f.fs.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := f.fs.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}
