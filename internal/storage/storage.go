// Package storage provides the durable key/value storage behind the timer
// registry and the tool-local settings. Values are opaque byte slices; keys
// are fixed namespace strings.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Load when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// Backend persists values by key.
type Backend interface {
	Load(key string) ([]byte, error) // returns ErrNotFound if absent
	Save(key string, data []byte) error
	// Path is the file or directory holding the data, for change watching.
	Path() string
	Close() error
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the backend named by kind rooted at dir, creating dir if needed.
func Open(kind, dir string) (Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	switch kind {
	case "", KindFile:
		return NewFile(dir), nil
	case KindSQLite:
		return OpenSQLite(filepath.Join(dir, "stoppclock.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q (supported: file, sqlite)", kind)
	}
}

// DataDir returns the stoppclock data directory.
// Path: $XDG_DATA_HOME/stoppclock or ~/.local/share/stoppclock
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "stoppclock"), nil
}

// Locate returns the file that changes when key is saved in b.
func Locate(b Backend, key string) string {
	if f, ok := b.(*File); ok {
		return f.keyPath(key)
	}
	return b.Path()
}
