// Package store persists anagram signatures and the sources they came from.
//
// Every backend implements AnagramIndex. A source is registered and its
// signatures are written inside one SourceTx; nothing becomes visible to
// HasSource, Lookup or Sources until Commit. An interrupted ingestion
// therefore never leaves a source that is registered but only partly
// indexed, and re-ingesting it later starts from scratch.
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all backends.
var (
	// ErrSourceExists is returned by BeginSource for a path that is
	// already committed.
	ErrSourceExists = errors.New("source already indexed")

	// ErrClosed is returned by operations on a closed index.
	ErrClosed = errors.New("index is closed")

	// ErrTxDone is returned by Insert or Commit after the transaction
	// has finished.
	ErrTxDone = errors.New("source transaction already finished")
)

// Hit is one occurrence of a signature.
type Hit struct {
	// AnchorOffset is the character offset of the window that produced
	// the signature.
	AnchorOffset int64 `json:"anchor_offset"`

	// Path identifies the source.
	Path string `json:"path"`
}

// SourceRecord describes a committed source.
type SourceRecord struct {
	ID         int64     `json:"id"`
	Path       string    `json:"path"`
	IndexedAt  time.Time `json:"indexed_at"`
	Signatures int64     `json:"signatures"`
}

// Stats summarizes index contents.
type Stats struct {
	Backend            string `json:"backend"`
	Sources            int64  `json:"sources"`
	Entries            int64  `json:"entries"`
	DistinctSignatures int64  `json:"distinct_signatures"`
}

// ResetOutcome reports what Reset did.
type ResetOutcome int

const (
	// ResetSkipped means the reset was not confirmed and nothing changed.
	ResetSkipped ResetOutcome = iota
	// ResetPerformed means all sources and signatures were removed.
	ResetPerformed
)

// String returns a lower-case name for the outcome.
func (o ResetOutcome) String() string {
	switch o {
	case ResetSkipped:
		return "skipped"
	case ResetPerformed:
		return "performed"
	default:
		return "unknown"
	}
}

// AnagramIndex stores signatures keyed by source.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_index.go -package=mocks github.com/Aman-CERP/otherwords/internal/store AnagramIndex,SourceTx
type AnagramIndex interface {
	// HasSource reports whether path has been committed.
	HasSource(ctx context.Context, path string) (bool, error)

	// BeginSource registers path and opens a transaction for its
	// signatures. It fails with ErrSourceExists if path is committed.
	BeginSource(ctx context.Context, path string) (SourceTx, error)

	// Lookup returns every occurrence of signature in insertion order.
	// An unknown signature yields an empty result, not an error.
	Lookup(ctx context.Context, signature string) ([]Hit, error)

	// Sources lists committed sources in registration order.
	Sources(ctx context.Context) ([]SourceRecord, error)

	// Stats returns counts over committed data.
	Stats(ctx context.Context) (Stats, error)

	// Reset removes all sources and signatures when confirmed is true
	// and does nothing otherwise.
	Reset(ctx context.Context, confirmed bool) (ResetOutcome, error)

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}

// ChangeTracker is implemented by indexes that several processes can open
// at once. Generation changes whenever any of them commits a source or
// resets the index.
type ChangeTracker interface {
	Generation(ctx context.Context) (int64, error)
}

// SourceTx collects the signatures of one source.
// A SourceTx is used by a single goroutine.
type SourceTx interface {
	// SourceID returns the id assigned to the source.
	SourceID() int64

	// Path returns the source path.
	Path() string

	// Insert records one signature occurrence.
	Insert(ctx context.Context, signature string, anchorOffset int64) error

	// Commit makes the source and all inserted signatures visible.
	Commit(ctx context.Context) error

	// Rollback discards the source and its signatures. It is a no-op
	// after Commit, so it is safe to defer.
	Rollback() error
}
