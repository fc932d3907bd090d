package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGO SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // Pure Go SQLite driver, registered as "sqlite"
)

// SQLite driver names accepted by NewSQLiteIndexWithDriver.
const (
	// DriverModernc is the pure Go driver (default).
	DriverModernc = "sqlite"
	// DriverCGO is mattn/go-sqlite3. It needs a CGO-enabled build.
	DriverCGO = "sqlite3"
)

// SQLiteIndex implements AnagramIndex on two relations:
//
//	sources(id, path, indexed_at, signatures)
//	anagrams(signature, anchor_offset, source_id)
//
// A one-row generation table counts commits and resets.
//
// Lookups join them and return rows in anagrams.rowid order.
//
// The index uses a single connection. Reads issued while a SourceTx is open
// wait for it to finish, so never query from the goroutine holding one.
type SQLiteIndex struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	driver string
	closed bool
}

var (
	_ AnagramIndex  = (*SQLiteIndex)(nil)
	_ ChangeTracker = (*SQLiteIndex)(nil)
)

// NewSQLiteIndex opens an index with the pure Go driver.
// An empty path creates an in-memory index.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	return NewSQLiteIndexWithDriver(path, DriverModernc)
}

// NewSQLiteIndexWithDriver opens an index with the named database/sql driver.
func NewSQLiteIndexWithDriver(path, driver string) (*SQLiteIndex, error) {
	if driver == "" {
		driver = DriverModernc
	}

	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateSQLiteIntegrity(path, driver); validErr != nil {
			slog.Warn("sqlite_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("sqlite_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, sources must be indexed again"))
		}
		dsn = path
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	idx := &SQLiteIndex{db: db, path: path, driver: driver}
	if err := idx.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return idx, nil
}

// validateSQLiteIntegrity returns nil for a missing or healthy database file.
func validateSQLiteIntegrity(path, driver string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open(driver, "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

func (s *SQLiteIndex) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS sources (
		id         INTEGER PRIMARY KEY,
		path       TEXT NOT NULL UNIQUE,
		indexed_at TEXT NOT NULL,
		signatures INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS anagrams (
		signature     TEXT NOT NULL,
		anchor_offset INTEGER NOT NULL,
		source_id     INTEGER NOT NULL REFERENCES sources(id)
	);

	CREATE INDEX IF NOT EXISTS idx_anagrams_signature ON anagrams(signature);

	CREATE TABLE IF NOT EXISTS generation (
		id    INTEGER PRIMARY KEY CHECK (id = 1),
		value INTEGER NOT NULL
	);

	INSERT OR IGNORE INTO generation (id, value) VALUES (1, 0);
	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteIndex) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// HasSource implements AnagramIndex.
func (s *SQLiteIndex) HasSource(ctx context.Context, path string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources WHERE path = ?", path).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query source: %w", err)
	}
	return n > 0, nil
}

// BeginSource implements AnagramIndex. The registration and every Insert
// share one database transaction.
func (s *SQLiteIndex) BeginSource(ctx context.Context, path string) (SourceTx, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources WHERE path = ?", path).Scan(&n); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	if n > 0 {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%w: %s", ErrSourceExists, path)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO sources (path, indexed_at) VALUES (?, ?)",
		path, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to register source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to read source id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO anagrams (signature, anchor_offset, source_id) VALUES (?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	return &sqliteSourceTx{tx: tx, stmt: stmt, id: id, path: path}, nil
}

type sqliteSourceTx struct {
	tx    *sql.Tx
	stmt  *sql.Stmt
	id    int64
	path  string
	count int64
	done  bool
}

func (t *sqliteSourceTx) SourceID() int64 { return t.id }
func (t *sqliteSourceTx) Path() string    { return t.path }

func (t *sqliteSourceTx) Insert(ctx context.Context, signature string, anchorOffset int64) error {
	if t.done {
		return ErrTxDone
	}
	if _, err := t.stmt.ExecContext(ctx, signature, anchorOffset, t.id); err != nil {
		return fmt.Errorf("failed to insert signature: %w", err)
	}
	t.count++
	return nil
}

func (t *sqliteSourceTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	if _, err := t.tx.ExecContext(ctx, "UPDATE sources SET signatures = ? WHERE id = ?", t.count, t.id); err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	if err := bumpGeneration(ctx, t.tx); err != nil {
		return err
	}
	_ = t.stmt.Close()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit source: %w", err)
	}
	t.done = true
	return nil
}

func (t *sqliteSourceTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	_ = t.stmt.Close()
	return t.tx.Rollback()
}

// Lookup implements AnagramIndex.
func (s *SQLiteIndex) Lookup(ctx context.Context, signature string) ([]Hit, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.anchor_offset, s.path
		FROM anagrams a
		JOIN sources s ON s.id = a.source_id
		WHERE a.signature = ?
		ORDER BY a.rowid`, signature)
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.AnchorOffset, &h.Path); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Sources implements AnagramIndex.
func (s *SQLiteIndex) Sources(ctx context.Context) ([]SourceRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, path, indexed_at, signatures FROM sources ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	out := []SourceRecord{}
	for rows.Next() {
		var (
			rec       SourceRecord
			indexedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Path, &indexedAt, &rec.Signatures); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		rec.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Stats implements AnagramIndex.
func (s *SQLiteIndex) Stats(ctx context.Context) (Stats, error) {
	if err := s.checkOpen(); err != nil {
		return Stats{}, err
	}

	st := Stats{Backend: "sqlite"}
	if s.driver == DriverCGO {
		st.Backend = "sqlite3"
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources").Scan(&st.Sources); err != nil {
		return Stats{}, fmt.Errorf("failed to count sources: %w", err)
	}
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT signature) FROM anagrams").Scan(&st.Entries, &st.DistinctSignatures)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count signatures: %w", err)
	}
	return st, nil
}

// Reset implements AnagramIndex. Both relations are dropped and recreated.
func (s *SQLiteIndex) Reset(ctx context.Context, confirmed bool) (ResetOutcome, error) {
	if !confirmed {
		return ResetSkipped, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ResetSkipped, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ResetSkipped, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DROP TABLE IF EXISTS anagrams", "DROP TABLE IF EXISTS sources"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return ResetSkipped, fmt.Errorf("failed to drop tables: %w", err)
		}
	}
	if err := bumpGeneration(ctx, tx); err != nil {
		return ResetSkipped, err
	}
	if err := tx.Commit(); err != nil {
		return ResetSkipped, fmt.Errorf("failed to commit reset: %w", err)
	}

	if err := s.initSchema(ctx); err != nil {
		return ResetPerformed, fmt.Errorf("failed to recreate schema: %w", err)
	}

	slog.Info("sqlite_index_reset", slog.String("path", s.path))
	return ResetPerformed, nil
}

// Generation implements ChangeTracker. The counter lives in the database
// file, so commits and resets by other processes are visible.
func (s *SQLiteIndex) Generation(ctx context.Context) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var g int64
	if err := s.db.QueryRowContext(ctx, "SELECT value FROM generation WHERE id = 1").Scan(&g); err != nil {
		return 0, fmt.Errorf("failed to read generation: %w", err)
	}
	return g, nil
}

func bumpGeneration(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "UPDATE generation SET value = value + 1 WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to bump generation: %w", err)
	}
	return nil
}

// Close implements AnagramIndex.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}
