// Package paths resolves where connects keeps its data.
package paths

import (
	"os"
	"path/filepath"
)

// DirName is the data directory created inside a project or home directory.
const DirName = ".connects"

// Data file names per storage backend.
const (
	YAMLFile   = "connects.yaml"
	SQLiteFile = "connects.db"
)

// ResolveDataDir turns user input into the data directory.
//
//   - "" -> "./.connects"
//   - "/path/to/project" -> "/path/to/project/.connects"
//   - "/path/to/project/.connects" -> unchanged
//   - "/path/to/data" (already holding connects.yaml or connects.db) -> unchanged
func ResolveDataDir(path string) string {
	if path == "" {
		path = "."
	}
	path = filepath.Clean(path)

	if filepath.Base(path) == DirName {
		return path
	}
	for _, name := range []string{YAMLFile, SQLiteFile} {
		if _, err := os.Stat(filepath.Join(path, name)); err == nil {
			return path
		}
	}
	return filepath.Join(path, DirName)
}

// DataFile returns the snapshot file for backend inside dir. Unknown backends use YAML.
func DataFile(dir, backend string) string {
	if backend == "sqlite" {
		return filepath.Join(dir, SQLiteFile)
	}
	return filepath.Join(dir, YAMLFile)
}

// ConfigDir returns ~/.config/connects, or "" when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "connects")
}
