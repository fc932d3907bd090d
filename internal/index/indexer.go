package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/otherwords/internal/anagram"
	"github.com/Aman-CERP/otherwords/internal/config"
	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/store"
	"github.com/Aman-CERP/otherwords/internal/telemetry"
)

// DefaultCacheSize is the number of signatures whose hits are cached.
const DefaultCacheSize = 1024

// Locker serializes ingestion across processes. store.FileLock implements
// it.
type Locker interface {
	Lock(ctx context.Context, timeout time.Duration) error
	Unlock() error
}

// Config configures an Indexer.
type Config struct {
	// Pipeline sets the window budget, signature threshold and alphabet.
	Pipeline anagram.Options

	// CacheSize bounds the lookup cache. Zero means DefaultCacheSize; a
	// negative value disables caching.
	CacheSize int

	// LockTimeout bounds the wait for the Locker. Zero waits as long as
	// the context allows.
	LockTimeout time.Duration

	// Include, Exclude and MaxFileSize configure directory scans.
	Include     []string
	Exclude     []string
	MaxFileSize int64
}

// ConfigFrom maps loaded configuration onto an indexer Config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Pipeline:    cfg.PipelineOptions(),
		CacheSize:   cfg.Performance.CacheSize,
		LockTimeout: cfg.LockTimeoutDuration(),
		Include:     cfg.Paths.Include,
		Exclude:     cfg.Paths.Exclude,
		MaxFileSize: cfg.Performance.MaxFileSize,
	}
}

// Dependencies are the collaborators injected into an Indexer.
type Dependencies struct {
	// Index is the store (required).
	Index store.AnagramIndex

	// Lock serializes ingestion across processes. Optional.
	Lock Locker

	// Metrics records ingestion and lookups. Optional.
	Metrics *telemetry.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// IngestResult describes the ingestion of one source.
type IngestResult struct {
	RunID      string        `json:"run_id"`
	Path       string        `json:"path"`
	Skipped    bool          `json:"skipped"`
	Signatures int           `json:"signatures"`
	Duration   time.Duration `json:"duration"`
}

// FindResult is the answer to a phrase query.
type FindResult struct {
	Phrase    string      `json:"phrase"`
	Signature string      `json:"signature"`
	Hits      []store.Hit `json:"hits"`
}

// PipelineInfo reports the pipeline settings in effect.
type PipelineInfo struct {
	MaxLen   int    `json:"max_len"`
	MinLen   int    `json:"min_len"`
	Alphabet string `json:"alphabet"`
}

// Status combines store statistics with query telemetry.
type Status struct {
	Index    store.Stats        `json:"index"`
	Pipeline PipelineInfo       `json:"pipeline"`
	Queries  telemetry.Snapshot `json:"queries"`
}

// Indexer ingests sources and serves queries. It is safe for concurrent
// use.
type Indexer struct {
	cfg      Config
	pipeline *anagram.Pipeline
	index    store.AnagramIndex
	lock     Locker
	metrics  *telemetry.Metrics
	logger   *slog.Logger

	// ingestMu serializes writers within the process.
	ingestMu sync.Mutex

	// gen counts purges. A lookup fills the cache only if no purge
	// happened since it read the store.
	cacheMu sync.Mutex
	gen     uint64
	cache   *lru.Cache[string, []store.Hit]

	// storeGen is the last store generation seen, for indexes that other
	// processes may write to.
	tracker     store.ChangeTracker
	storeGen    int64
	storeGenSet bool
}

// NewIndexer creates an Indexer.
func NewIndexer(cfg Config, deps Dependencies) (*Indexer, error) {
	if deps.Index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if cfg.Pipeline.MaxLen < 0 || cfg.Pipeline.MinLen < 0 {
		return nil, fmt.Errorf("max_len and min_len must be non-negative, got %d and %d",
			cfg.Pipeline.MaxLen, cfg.Pipeline.MinLen)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ix := &Indexer{
		cfg:      cfg,
		pipeline: anagram.NewPipeline(cfg.Pipeline),
		index:    deps.Index,
		lock:     deps.Lock,
		metrics:  deps.Metrics,
		logger:   logger,
	}

	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, []store.Hit](size)
		if err != nil {
			return nil, fmt.Errorf("failed to create lookup cache: %w", err)
		}
		ix.cache = cache
		ix.tracker, _ = deps.Index.(store.ChangeTracker)
	}
	return ix, nil
}

// Pipeline returns the pipeline settings in effect.
func (ix *Indexer) Pipeline() PipelineInfo {
	opts := ix.pipeline.Options()
	return PipelineInfo{MaxLen: opts.MaxLen, MinLen: opts.MinLen, Alphabet: opts.Alphabet.String()}
}

// Canonize returns the signature of phrase.
func (ix *Indexer) Canonize(phrase string) string {
	return ix.pipeline.Canonicalizer().Canonize(phrase)
}

// IngestFile ingests the file at path, keyed by the cleaned path. A path
// that is already indexed is skipped without being read.
func (ix *Indexer) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	key := filepath.Clean(path)
	return ix.ingestLocked(ctx, key, func(sink anagram.SignatureSink) error {
		return ix.pipeline.RunFile(ctx, path, sink)
	})
}

// IngestReader ingests r under the source key path.
func (ix *Indexer) IngestReader(ctx context.Context, path string, r io.Reader) (*IngestResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, owerrors.New(owerrors.ErrCodeInvalidPath, "source path is empty", nil)
	}
	return ix.ingestLocked(ctx, path, func(sink anagram.SignatureSink) error {
		return ix.pipeline.Run(ctx, r, sink)
	})
}

func (ix *Indexer) ingestLocked(ctx context.Context, path string, run func(anagram.SignatureSink) error) (*IngestResult, error) {
	unlock, err := ix.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return ix.ingest(ctx, uuid.NewString(), path, run)
}

// acquire takes the in-process mutex and then the cross-process lock.
func (ix *Indexer) acquire(ctx context.Context) (func(), error) {
	ix.ingestMu.Lock()
	if ix.lock == nil {
		return ix.ingestMu.Unlock, nil
	}
	if err := ix.lock.Lock(ctx, ix.cfg.LockTimeout); err != nil {
		ix.ingestMu.Unlock()
		return nil, owerrors.New(owerrors.ErrCodeIndexLocked, "index is locked by another process", err).
			WithSuggestion("Wait for the other ingestion to finish or raise performance.lock_timeout")
	}
	return func() {
		if err := ix.lock.Unlock(); err != nil {
			ix.logger.Warn("ingest_unlock_failed", slog.String("error", err.Error()))
		}
		ix.ingestMu.Unlock()
	}, nil
}

// insertError marks a store failure raised from inside the pipeline.
type insertError struct{ err error }

func (e *insertError) Error() string { return e.err.Error() }
func (e *insertError) Unwrap() error { return e.err }

// ingest registers path, pushes its content through the pipeline and
// commits. Callers hold the ingest lock.
func (ix *Indexer) ingest(ctx context.Context, runID, path string, run func(anagram.SignatureSink) error) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{RunID: runID, Path: path}
	log := ix.logger.With(slog.String("run_id", runID), slog.String("path", path))

	has, err := ix.index.HasSource(ctx, path)
	if err != nil {
		return nil, ix.failIngest(log, start, owerrors.New(owerrors.ErrCodeIndexFailed, "failed to check source "+path, err))
	}
	if has {
		return ix.skip(log, result, start), nil
	}

	tx, err := ix.index.BeginSource(ctx, path)
	if errors.Is(err, store.ErrSourceExists) {
		return ix.skip(log, result, start), nil
	}
	if err != nil {
		return nil, ix.failIngest(log, start, owerrors.New(owerrors.ErrCodeIndexFailed, "failed to register source "+path, err))
	}
	log.Debug("ingest_started", slog.Int64("source_id", tx.SourceID()))

	sink := anagram.SignatureSinkFunc(func(sig string, anchor int64) error {
		if err := tx.Insert(ctx, sig, anchor); err != nil {
			return &insertError{err: err}
		}
		result.Signatures++
		return nil
	})

	if err := run(sink); err != nil {
		ix.rollback(log, tx)
		return nil, ix.failIngest(log, start, classify(path, err))
	}
	if err := tx.Commit(ctx); err != nil {
		ix.rollback(log, tx)
		return nil, ix.failIngest(log, start, owerrors.New(owerrors.ErrCodeIndexFailed, "failed to commit source "+path, err))
	}
	ix.purgeCache()

	result.Duration = time.Since(start)
	ix.metrics.ObserveIngest(telemetry.OutcomeIndexed, result.Signatures, result.Duration)
	log.Info("ingest_complete",
		slog.Int("signatures", result.Signatures),
		slog.Int64("duration_ms", result.Duration.Milliseconds()))
	return result, nil
}

func (ix *Indexer) skip(log *slog.Logger, result *IngestResult, start time.Time) *IngestResult {
	result.Skipped = true
	result.Duration = time.Since(start)
	ix.metrics.ObserveIngest(telemetry.OutcomeSkipped, 0, result.Duration)
	log.Debug("source_skipped")
	return result
}

func (ix *Indexer) rollback(log *slog.Logger, tx store.SourceTx) {
	if err := tx.Rollback(); err != nil {
		log.Warn("ingest_rollback_failed", slog.String("error", err.Error()))
	}
}

func (ix *Indexer) failIngest(log *slog.Logger, start time.Time, err error) error {
	ix.metrics.ObserveIngest(telemetry.OutcomeFailed, 0, time.Since(start))
	log.Error("ingest_failed", owerrors.LogAttrs(err)...)
	return err
}

// classify maps a pipeline failure to the error the caller sees.
// Cancellation is returned unchanged.
func classify(path string, err error) error {
	var ie *insertError
	switch {
	case errors.As(err, &ie):
		return owerrors.New(owerrors.ErrCodeIndexFailed, "failed to index "+path, ie.err).WithDetail("path", path)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return owerrors.SourceError(path, err)
	}
}

// Find canonizes phrase and looks up its signature.
func (ix *Indexer) Find(ctx context.Context, phrase string) (*FindResult, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, owerrors.New(owerrors.ErrCodeQueryEmpty, "phrase is empty", nil)
	}
	sig := ix.Canonize(phrase)
	if sig == "" {
		return nil, owerrors.New(owerrors.ErrCodeQueryEmpty, "phrase contains no letters", nil).
			WithDetail("phrase", phrase)
	}

	hits, err := ix.lookup(ctx, telemetry.KindPhrase, phrase, sig)
	if err != nil {
		return nil, err
	}
	return &FindResult{Phrase: phrase, Signature: sig, Hits: hits}, nil
}

// Lookup returns every occurrence of signature in insertion order. The
// signature is upper-cased first. A signature that is not in canonical
// form can match nothing, so like any unknown signature it yields no hits;
// CheckSignature explains why.
func (ix *Indexer) Lookup(ctx context.Context, signature string) ([]store.Hit, error) {
	sig := strings.ToUpper(strings.TrimSpace(signature))
	if sig == "" {
		return nil, owerrors.New(owerrors.ErrCodeQueryEmpty, "signature is empty", nil)
	}
	if err := ix.CheckSignature(sig); err != nil {
		ix.metrics.ObserveLookup(telemetry.KindSignature, sig, 0, false, 0)
		ix.logger.Debug("lookup_not_canonical",
			slog.String("signature", sig),
			slog.String("reason", err.Error()))
		return []store.Hit{}, nil
	}
	return ix.lookup(ctx, telemetry.KindSignature, sig, sig)
}

// CheckSignature returns an ErrCodeInvalidSignature error if signature,
// upper-cased, is not a canonical signature over the index alphabet.
func (ix *Indexer) CheckSignature(signature string) error {
	sig := strings.ToUpper(strings.TrimSpace(signature))
	if err := ix.pipeline.Canonicalizer().Validate(sig); err != nil {
		return owerrors.New(owerrors.ErrCodeInvalidSignature, err.Error(), err).
			WithSuggestion("Use `otherwords canon <phrase>` to compute a signature")
	}
	return nil
}

func (ix *Indexer) lookup(ctx context.Context, kind, query, sig string) ([]store.Hit, error) {
	start := time.Now()

	cached := ix.cache != nil && ix.syncStore(ctx)
	if cached {
		if hits, ok := ix.cache.Get(sig); ok {
			ix.metrics.ObserveLookup(kind, query, len(hits), true, time.Since(start))
			return slices.Clone(hits), nil
		}
	}

	gen := ix.generation()
	hits, err := ix.index.Lookup(ctx, sig)
	if err != nil {
		return nil, owerrors.New(owerrors.ErrCodeLookupFailed, "lookup failed for "+sig, err)
	}
	if hits == nil {
		hits = []store.Hit{}
	}
	if cached {
		ix.fillCache(gen, sig, hits)
	}

	d := time.Since(start)
	ix.metrics.ObserveLookup(kind, query, len(hits), false, d)
	ix.logger.Debug("lookup_complete",
		slog.String("kind", kind),
		slog.String("signature", sig),
		slog.Int("hits", len(hits)),
		slog.Int64("duration_us", d.Microseconds()))
	return hits, nil
}

// syncStore purges the cache if the store changed since the last lookup,
// whichever process changed it. It reports whether the cache may be used.
// The generation is read before the store, so a cached result is never
// older than the generation it is filed under.
func (ix *Indexer) syncStore(ctx context.Context) bool {
	if ix.tracker == nil {
		return true
	}
	g, err := ix.tracker.Generation(ctx)
	if err != nil {
		ix.logger.Warn("store_generation_failed", slog.String("error", err.Error()))
		return false
	}

	ix.cacheMu.Lock()
	defer ix.cacheMu.Unlock()
	if !ix.storeGenSet || g != ix.storeGen {
		ix.storeGen = g
		ix.storeGenSet = true
		ix.gen++
		ix.cache.Purge()
	}
	return true
}

func (ix *Indexer) generation() uint64 {
	ix.cacheMu.Lock()
	defer ix.cacheMu.Unlock()
	return ix.gen
}

func (ix *Indexer) fillCache(gen uint64, sig string, hits []store.Hit) {
	if ix.cache == nil {
		return
	}
	ix.cacheMu.Lock()
	defer ix.cacheMu.Unlock()
	if gen == ix.gen {
		ix.cache.Add(sig, slices.Clone(hits))
	}
}

func (ix *Indexer) purgeCache() {
	if ix.cache == nil {
		return
	}
	ix.cacheMu.Lock()
	defer ix.cacheMu.Unlock()
	ix.gen++
	ix.cache.Purge()
}

// Sources lists committed sources.
func (ix *Indexer) Sources(ctx context.Context) ([]store.SourceRecord, error) {
	sources, err := ix.index.Sources(ctx)
	if err != nil {
		return nil, owerrors.New(owerrors.ErrCodeLookupFailed, "failed to list sources", err)
	}
	return sources, nil
}

// Stats reports index contents, pipeline settings and query telemetry.
func (ix *Indexer) Stats(ctx context.Context) (*Status, error) {
	stats, err := ix.index.Stats(ctx)
	if err != nil {
		return nil, owerrors.New(owerrors.ErrCodeLookupFailed, "failed to read index stats", err)
	}
	return &Status{
		Index:    stats,
		Pipeline: ix.Pipeline(),
		Queries:  ix.metrics.Snapshot(),
	}, nil
}

// Reset wipes the index when confirmed. Without confirmation nothing
// happens and ResetSkipped is returned.
func (ix *Indexer) Reset(ctx context.Context, confirmed bool) (store.ResetOutcome, error) {
	if !confirmed {
		ix.logger.Info("reset_skipped")
		return store.ResetSkipped, nil
	}

	unlock, err := ix.acquire(ctx)
	if err != nil {
		return store.ResetSkipped, err
	}
	defer unlock()

	outcome, err := ix.index.Reset(ctx, true)
	if err != nil {
		return outcome, owerrors.New(owerrors.ErrCodeIndexFailed, "failed to reset index", err)
	}
	ix.purgeCache()
	ix.logger.Info("reset_complete", slog.String("outcome", outcome.String()))
	return outcome, nil
}

// Close closes the underlying index.
func (ix *Indexer) Close() error {
	return ix.index.Close()
}
