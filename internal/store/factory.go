package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend names an AnagramIndex implementation.
type Backend string

const (
	// BackendSQLite is SQLite through the pure Go driver (default).
	BackendSQLite Backend = "sqlite"
	// BackendSQLiteCGO is SQLite through mattn/go-sqlite3.
	BackendSQLiteCGO Backend = "sqlite3"
	// BackendBleve is a Bleve v2 index. Single process only.
	BackendBleve Backend = "bleve"
	// BackendBadger is a BadgerDB key-value store. Single process only.
	BackendBadger Backend = "badger"
)

// Backends lists every supported backend name.
func Backends() []Backend {
	return []Backend{BackendSQLite, BackendSQLiteCGO, BackendBleve, BackendBadger}
}

// NewIndexWithBackend opens an index under dataDir using backend.
// An empty dataDir creates an in-memory index.
//
// backend options:
//   - "sqlite" (default): <dataDir>/anagrams.db, pure Go
//   - "sqlite3": <dataDir>/anagrams.db, CGO
//   - "bleve": <dataDir>/anagrams.bleve
//   - "badger": <dataDir>/anagrams.badger
func NewIndexWithBackend(dataDir string, backend string) (AnagramIndex, error) {
	path := ""
	if dataDir != "" {
		path = IndexPath(dataDir, backend)
	}

	switch Backend(backend) {
	case BackendSQLite, "":
		return NewSQLiteIndex(path)
	case BackendSQLiteCGO:
		return NewSQLiteIndexWithDriver(path, DriverCGO)
	case BackendBleve:
		return NewBleveIndex(path)
	case BackendBadger:
		return NewBadgerIndex(path)
	default:
		return nil, fmt.Errorf("unknown index backend: %s (valid options: sqlite, sqlite3, bleve, badger)", backend)
	}
}

// IndexPath returns the file or directory an index of backend lives in.
func IndexPath(dataDir string, backend string) string {
	base := filepath.Join(dataDir, "anagrams")
	switch Backend(backend) {
	case BackendBleve:
		return base + ".bleve"
	case BackendBadger:
		return base + ".badger"
	default:
		return base + ".db"
	}
}

// DetectBackend reports which backend an existing index under dataDir uses,
// or "" when there is none. Both SQLite drivers share a file format and are
// reported as BackendSQLite.
func DetectBackend(dataDir string) Backend {
	if fileExists(IndexPath(dataDir, string(BackendSQLite))) {
		return BackendSQLite
	}
	if dirExists(IndexPath(dataDir, string(BackendBleve))) {
		return BackendBleve
	}
	if dirExists(IndexPath(dataDir, string(BackendBadger))) {
		return BackendBadger
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
