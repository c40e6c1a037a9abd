package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/tally/internal/storage"
)

// ErrEmptyDatabasePath is returned when database.path resolves to nothing.
var ErrEmptyDatabasePath = errors.New("database path is empty")

// ResolveDatabasePath turns a configured database.path into the absolute file
// the store opens. A leading ~ and $VAR references are expanded; the in-memory
// name is kept as is.
func ResolveDatabasePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == storage.MemoryPath {
		return path, nil
	}

	path, err := expandHome(path)
	if err != nil {
		return "", err
	}
	path = os.ExpandEnv(path)
	if path == "" {
		return "", ErrEmptyDatabasePath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path %q: %w", path, err)
	}
	return abs, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}
