package store

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	bleveBatchSize = 1000
	blevePageSize  = 1000

	bleveKindSource = "source"
	bleveKindEntry  = "entry"

	bleveStatePending   = "pending"
	bleveStateCommitted = "committed"
)

// BleveIndex implements AnagramIndex on a Bleve v2 index.
//
// Sources and signature entries are both documents. A source document is
// written in the pending state when BeginSource is called and flipped to
// committed as the last step of Commit; entries of pending sources are
// ignored by every read. Pending sources left behind by a crash are purged
// when the index is opened.
//
// Document ids encode (source id, sequence), so sorting hits by id yields
// insertion order.
//
// Bleve holds an exclusive lock on its directory; only one process can open
// the index at a time.
type BleveIndex struct {
	mu      sync.RWMutex
	index   bleve.Index
	path    string
	closed  bool
	nextID  int64
	sources map[string]SourceRecord
	paths   map[int64]string
	pending map[string]int64
}

var _ AnagramIndex = (*BleveIndex)(nil)

// NewBleveIndex opens or creates a Bleve index at path.
// An empty path creates an in-memory index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	idx, err := openBleve(path)
	if err != nil {
		return nil, err
	}

	b := &BleveIndex{index: idx, path: path}
	if err := b.load(context.Background()); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	return b, nil
}

func openBleve(path string) (bleve.Index, error) {
	m := newAnagramMapping()
	if path == "" {
		return bleve.NewMemOnly(m)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, m)
	} else if err != nil && isBleveCorruption(err) {
		slog.Warn("bleve_index_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))

		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("index corrupted, cannot clear: %w (original: %v)", removeErr, err)
		}
		slog.Info("bleve_index_cleared",
			slog.String("path", path),
			slog.String("reason", "open failed with corruption, sources must be indexed again"))

		idx, err = bleve.New(path, m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}
	return idx, nil
}

func isBleveCorruption(err error) bool {
	msg := err.Error()
	return err == bleve.ErrorIndexMetaCorrupt ||
		strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment")
}

// newAnagramMapping indexes every field verbatim. Signatures and paths are
// matched exactly, never analyzed.
func newAnagramMapping() *mapping.IndexMappingImpl {
	keyword := bleve.NewKeywordFieldMapping()
	numeric := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt("kind", keyword)
	doc.AddFieldMappingsAt("signature", keyword)
	doc.AddFieldMappingsAt("path", keyword)
	doc.AddFieldMappingsAt("state", keyword)
	doc.AddFieldMappingsAt("indexed_at", keyword)
	doc.AddFieldMappingsAt("offset", numeric)
	doc.AddFieldMappingsAt("source_id", numeric)
	doc.AddFieldMappingsAt("signatures", numeric)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = "keyword"
	return m
}

func sourceDocID(id int64) string     { return fmt.Sprintf("src:%012d", id) }
func entryDocID(id, seq int64) string { return fmt.Sprintf("ent:%012d:%012d", id, seq) }

func termQuery(field, term string) *query.TermQuery {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func sourceIDQuery(id int64) *query.NumericRangeQuery {
	v := float64(id)
	inclusive := true
	q := bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
	q.SetField("source_id")
	return q
}

// load rebuilds the in-memory source tables and purges pending sources.
func (b *BleveIndex) load(ctx context.Context) error {
	b.sources = make(map[string]SourceRecord)
	b.paths = make(map[int64]string)
	b.pending = make(map[string]int64)
	b.nextID = 1

	var stale []int64
	fields := []string{"path", "source_id", "state", "indexed_at", "signatures"}
	err := b.searchAll(ctx, termQuery("kind", bleveKindSource), fields, func(hit *search.DocumentMatch) {
		id := numberField(hit.Fields, "source_id")
		if id >= b.nextID {
			b.nextID = id + 1
		}
		if stringField(hit.Fields, "state") != bleveStateCommitted {
			stale = append(stale, id)
			return
		}
		rec := SourceRecord{
			ID:         id,
			Path:       stringField(hit.Fields, "path"),
			Signatures: numberField(hit.Fields, "signatures"),
		}
		rec.IndexedAt, _ = time.Parse(time.RFC3339Nano, stringField(hit.Fields, "indexed_at"))
		b.sources[rec.Path] = rec
		b.paths[rec.ID] = rec.Path
	})
	if err != nil {
		return err
	}

	for _, id := range stale {
		slog.Info("bleve_pending_source_purged", slog.Int64("source_id", id))
		if err := b.purgeSource(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// searchAll pages through every hit of q in document id order.
func (b *BleveIndex) searchAll(ctx context.Context, q query.Query, fields []string, fn func(*search.DocumentMatch)) error {
	var after []string
	for {
		req := bleve.NewSearchRequestOptions(q, blevePageSize, 0, false)
		req.Fields = fields
		req.SortBy([]string{"_id"})
		if after != nil {
			req.SearchAfter = after
		}

		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		for _, hit := range res.Hits {
			fn(hit)
		}
		if len(res.Hits) < blevePageSize {
			return nil
		}
		after = []string{res.Hits[len(res.Hits)-1].ID}
	}
}

// purgeSource deletes the source document and all entries of id.
func (b *BleveIndex) purgeSource(ctx context.Context, id int64) error {
	var ids []string
	if err := b.searchAll(ctx, sourceIDQuery(id), nil, func(hit *search.DocumentMatch) {
		ids = append(ids, hit.ID)
	}); err != nil {
		return err
	}

	batch := b.index.NewBatch()
	for _, docID := range ids {
		batch.Delete(docID)
		if batch.Size() >= bleveBatchSize {
			if err := b.index.Batch(batch); err != nil {
				return fmt.Errorf("failed to delete entries: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
	}
	return nil
}

// HasSource implements AnagramIndex.
func (b *BleveIndex) HasSource(_ context.Context, path string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false, ErrClosed
	}
	_, ok := b.sources[path]
	return ok, nil
}

// BeginSource implements AnagramIndex.
func (b *BleveIndex) BeginSource(_ context.Context, path string) (SourceTx, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if _, ok := b.sources[path]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceExists, path)
	}
	if _, ok := b.pending[path]; ok {
		return nil, fmt.Errorf("%w: %s is being indexed", ErrSourceExists, path)
	}

	id := b.nextID
	b.nextID++
	now := time.Now().UTC()

	err := b.index.Index(sourceDocID(id), map[string]interface{}{
		"kind":       bleveKindSource,
		"path":       path,
		"source_id":  float64(id),
		"state":      bleveStatePending,
		"indexed_at": now.Format(time.RFC3339Nano),
		"signatures": float64(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register source: %w", err)
	}
	b.pending[path] = id

	return &bleveSourceTx{
		owner:     b,
		id:        id,
		path:      path,
		indexedAt: now,
		batch:     b.index.NewBatch(),
	}, nil
}

type bleveSourceTx struct {
	owner     *BleveIndex
	id        int64
	path      string
	indexedAt time.Time
	batch     *bleve.Batch
	seq       int64
	done      bool
}

func (t *bleveSourceTx) SourceID() int64 { return t.id }
func (t *bleveSourceTx) Path() string    { return t.path }

func (t *bleveSourceTx) Insert(_ context.Context, signature string, anchorOffset int64) error {
	if t.done {
		return ErrTxDone
	}
	err := t.batch.Index(entryDocID(t.id, t.seq), map[string]interface{}{
		"kind":      bleveKindEntry,
		"signature": signature,
		"offset":    float64(anchorOffset),
		"source_id": float64(t.id),
	})
	if err != nil {
		return fmt.Errorf("failed to add entry: %w", err)
	}
	t.seq++

	if t.batch.Size() >= bleveBatchSize {
		return t.flush()
	}
	return nil
}

func (t *bleveSourceTx) flush() error {
	if t.batch.Size() == 0 {
		return nil
	}
	if err := t.owner.index.Batch(t.batch); err != nil {
		return fmt.Errorf("failed to write entries: %w", err)
	}
	t.batch.Reset()
	return nil
}

func (t *bleveSourceTx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	if err := t.flush(); err != nil {
		return err
	}

	b := t.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.index.Index(sourceDocID(t.id), map[string]interface{}{
		"kind":       bleveKindSource,
		"path":       t.path,
		"source_id":  float64(t.id),
		"state":      bleveStateCommitted,
		"indexed_at": t.indexedAt.Format(time.RFC3339Nano),
		"signatures": float64(t.seq),
	})
	if err != nil {
		return fmt.Errorf("failed to commit source: %w", err)
	}

	t.done = true
	delete(b.pending, t.path)
	b.sources[t.path] = SourceRecord{ID: t.id, Path: t.path, IndexedAt: t.indexedAt, Signatures: t.seq}
	b.paths[t.id] = t.path
	return nil
}

func (t *bleveSourceTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.batch.Reset()

	b := t.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.pending, t.path)
	if b.closed {
		return nil
	}
	return b.purgeSource(context.Background(), t.id)
}

// Lookup implements AnagramIndex.
func (b *BleveIndex) Lookup(ctx context.Context, signature string) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	hits := []Hit{}
	err := b.searchAll(ctx, termQuery("signature", signature), []string{"offset", "source_id"}, func(hit *search.DocumentMatch) {
		path, ok := b.paths[numberField(hit.Fields, "source_id")]
		if !ok {
			return
		}
		hits = append(hits, Hit{AnchorOffset: numberField(hit.Fields, "offset"), Path: path})
	})
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	return hits, nil
}

// Sources implements AnagramIndex.
func (b *BleveIndex) Sources(_ context.Context) ([]SourceRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	out := make([]SourceRecord, 0, len(b.sources))
	for _, rec := range b.sources {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, c SourceRecord) int { return cmp.Compare(a.ID, c.ID) })
	return out, nil
}

// Stats implements AnagramIndex. DistinctSignatures counts dictionary terms
// and may include terms of purged sources until segments merge.
func (b *BleveIndex) Stats(_ context.Context) (Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return Stats{}, ErrClosed
	}

	st := Stats{Backend: "bleve", Sources: int64(len(b.sources))}
	for _, rec := range b.sources {
		st.Entries += rec.Signatures
	}

	dict, err := b.index.FieldDict("signature")
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read signature dictionary: %w", err)
	}
	defer dict.Close()
	for {
		entry, err := dict.Next()
		if err != nil {
			return Stats{}, fmt.Errorf("failed to read signature dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		st.DistinctSignatures++
	}
	return st, nil
}

// Reset implements AnagramIndex. The index is deleted and recreated empty.
func (b *BleveIndex) Reset(ctx context.Context, confirmed bool) (ResetOutcome, error) {
	if !confirmed {
		return ResetSkipped, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ResetSkipped, ErrClosed
	}

	if err := b.index.Close(); err != nil {
		return ResetSkipped, fmt.Errorf("failed to close index: %w", err)
	}
	if b.path != "" {
		if err := os.RemoveAll(b.path); err != nil {
			b.closed = true
			return ResetSkipped, fmt.Errorf("failed to remove index: %w", err)
		}
	}

	idx, err := openBleve(b.path)
	if err != nil {
		b.closed = true
		return ResetSkipped, err
	}
	b.index = idx
	if err := b.load(ctx); err != nil {
		return ResetPerformed, err
	}

	slog.Info("bleve_index_reset", slog.String("path", b.path))
	return ResetPerformed, nil
}

// Close implements AnagramIndex.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

func numberField(fields map[string]interface{}, name string) int64 {
	switch v := fields[name].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func stringField(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}
