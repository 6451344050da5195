package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File stores each key as <dir>/<key>.json.
type File struct {
	dir string
}

// NewFile returns a File backend rooted at dir. The directory must exist.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// Keys are fixed namespace strings; keep them from escaping the directory.
var keyReplacer = strings.NewReplacer("/", "_", "\\", "_", "..", "_")

func (f *File) keyPath(key string) string {
	return filepath.Join(f.dir, keyReplacer.Replace(key)+".json")
}

// Load reads the value stored under key.
func (f *File) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(f.keyPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Save writes data atomically via a temp file + os.Rename.
func (f *File) Save(key string, data []byte) (err error) {
	tmp, err := os.CreateTemp(f.dir, keyReplacer.Replace(key)+"-*.json.tmp")
	if err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persist %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	if err = os.Rename(tmpName, f.keyPath(key)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// Path returns the backend directory.
func (f *File) Path() string { return f.dir }

// Close is a no-op.
func (f *File) Close() error { return nil }
