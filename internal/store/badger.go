package store

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Badger key layout:
//
//	m/next_source              -> next source id
//	s/p/<path>                 -> source record (id, state, indexed_at, signatures)
//	s/i/<id>                   -> path
//	e/<signature>\x00<id><seq> -> anchor offset
//	x/<id><seq>                -> signature, used to purge a source
//
// Integers are 8-byte big endian so keys sort numerically. Entries under one
// signature therefore iterate in (source id, sequence) order, which is
// insertion order.
var (
	badgerNextSourceKey = []byte("m/next_source")
	badgerSourcePrefix  = []byte("s/p/")
	badgerSourceIDPfx   = []byte("s/i/")
	badgerEntryPrefix   = []byte("e/")
	badgerReversePrefix = []byte("x/")
)

const (
	badgerStatePending   byte = 0
	badgerStateCommitted byte = 1
)

// BadgerIndex implements AnagramIndex on BadgerDB.
//
// Entries are streamed through a WriteBatch while the source record stays
// pending; Commit flips it to committed. Reads skip entries of sources that
// are not committed, and pending sources left by a crash are purged on open.
type BadgerIndex struct {
	mu      sync.RWMutex
	db      *badger.DB
	path    string
	closed  bool
	pending map[string]int64
}

var _ AnagramIndex = (*BadgerIndex)(nil)

// badgerLogger routes BadgerDB's internal logging to slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// NewBadgerIndex opens or creates a Badger database in directory path.
// An empty path creates an in-memory index.
func NewBadgerIndex(path string) (*BadgerIndex, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path).WithSyncWrites(true)
	}
	opts = opts.
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: slog.Default().With(slog.String("component", "badger"))})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	b := &BadgerIndex{db: db, path: path, pending: make(map[string]int64)}
	if err := b.purgePending(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func u64(v int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return buf[:]
}

func join(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func badgerSourceKey(path string) []byte { return join(badgerSourcePrefix, []byte(path)) }
func badgerSourceIDKey(id int64) []byte  { return join(badgerSourceIDPfx, u64(id)) }
func badgerEntrySigPrefix(sig string) []byte {
	return join(badgerEntryPrefix, []byte(sig), []byte{0})
}
func badgerEntryKey(sig string, id, seq int64) []byte {
	return join(badgerEntrySigPrefix(sig), u64(id), u64(seq))
}
func badgerReverseKey(id, seq int64) []byte { return join(badgerReversePrefix, u64(id), u64(seq)) }

type badgerSource struct {
	id         int64
	state      byte
	indexedAt  time.Time
	signatures int64
}

func (s badgerSource) encode() []byte {
	return join(u64(s.id), []byte{s.state}, u64(s.indexedAt.UnixNano()), u64(s.signatures))
}

func decodeBadgerSource(v []byte) (badgerSource, error) {
	if len(v) != 25 {
		return badgerSource{}, fmt.Errorf("corrupt source record (%d bytes)", len(v))
	}
	return badgerSource{
		id:         int64(binary.BigEndian.Uint64(v[0:8])),
		state:      v[8],
		indexedAt:  time.Unix(0, int64(binary.BigEndian.Uint64(v[9:17]))).UTC(),
		signatures: int64(binary.BigEndian.Uint64(v[17:25])),
	}, nil
}

func getSource(txn *badger.Txn, path string) (badgerSource, bool, error) {
	item, err := txn.Get(badgerSourceKey(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return badgerSource{}, false, nil
	}
	if err != nil {
		return badgerSource{}, false, err
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		return badgerSource{}, false, err
	}
	src, err := decodeBadgerSource(v)
	return src, err == nil, err
}

// purgePending removes every source that never reached the committed state.
func (b *BadgerIndex) purgePending() error {
	var stale []int64
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: badgerSourcePrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			src, err := decodeBadgerSource(v)
			if err != nil {
				return err
			}
			if src.state != badgerStateCommitted {
				stale = append(stale, src.id)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan sources: %w", err)
	}

	for _, id := range stale {
		slog.Info("badger_pending_source_purged", slog.Int64("source_id", id))
		if err := b.purgeSource(id); err != nil {
			return err
		}
	}
	return nil
}

// purgeSource deletes every key belonging to source id.
func (b *BadgerIndex) purgeSource(id int64) error {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := join(badgerReversePrefix, u64(id))
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			sig, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			seq := int64(binary.BigEndian.Uint64(k[len(k)-8:]))
			keys = append(keys, badgerEntryKey(string(sig), id, seq), k)
		}

		item, err := txn.Get(badgerSourceIDKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		path, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		keys = append(keys, badgerSourceIDKey(id))
		if src, ok, err := getSource(txn, string(path)); err == nil && ok && src.id == id {
			keys = append(keys, badgerSourceKey(string(path)))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to collect source %d: %w", id, err)
	}

	wb := b.db.NewWriteBatch()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return fmt.Errorf("failed to delete source %d: %w", id, err)
		}
	}
	return wb.Flush()
}

// HasSource implements AnagramIndex.
func (b *BadgerIndex) HasSource(_ context.Context, path string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false, ErrClosed
	}

	var committed bool
	err := b.db.View(func(txn *badger.Txn) error {
		src, ok, err := getSource(txn, path)
		committed = ok && src.state == badgerStateCommitted
		return err
	})
	return committed, err
}

// BeginSource implements AnagramIndex.
func (b *BadgerIndex) BeginSource(_ context.Context, path string) (SourceTx, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if _, ok := b.pending[path]; ok {
		return nil, fmt.Errorf("%w: %s is being indexed", ErrSourceExists, path)
	}

	var existing badgerSource
	var found bool
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		existing, found, err = getSource(txn, path)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	if found && existing.state == badgerStateCommitted {
		return nil, fmt.Errorf("%w: %s", ErrSourceExists, path)
	}
	if found {
		if err := b.purgeSource(existing.id); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	var id int64
	err = b.db.Update(func(txn *badger.Txn) error {
		id = 1
		item, err := txn.Get(badgerNextSourceKey)
		switch {
		case err == nil:
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			id = int64(binary.BigEndian.Uint64(v))
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		src := badgerSource{id: id, state: badgerStatePending, indexedAt: now}
		if err := txn.Set(badgerNextSourceKey, u64(id+1)); err != nil {
			return err
		}
		if err := txn.Set(badgerSourceIDKey(id), []byte(path)); err != nil {
			return err
		}
		return txn.Set(badgerSourceKey(path), src.encode())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register source: %w", err)
	}

	b.pending[path] = id
	return &badgerSourceTx{owner: b, id: id, path: path, indexedAt: now, wb: b.db.NewWriteBatch()}, nil
}

type badgerSourceTx struct {
	owner     *BadgerIndex
	id        int64
	path      string
	indexedAt time.Time
	wb        *badger.WriteBatch
	seq       int64
	done      bool
}

func (t *badgerSourceTx) SourceID() int64 { return t.id }
func (t *badgerSourceTx) Path() string    { return t.path }

func (t *badgerSourceTx) Insert(_ context.Context, signature string, anchorOffset int64) error {
	if t.done {
		return ErrTxDone
	}
	if err := t.wb.Set(badgerEntryKey(signature, t.id, t.seq), u64(anchorOffset)); err != nil {
		return fmt.Errorf("failed to add entry: %w", err)
	}
	if err := t.wb.Set(badgerReverseKey(t.id, t.seq), []byte(signature)); err != nil {
		return fmt.Errorf("failed to add entry: %w", err)
	}
	t.seq++
	return nil
}

func (t *badgerSourceTx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	if err := t.wb.Flush(); err != nil {
		return fmt.Errorf("failed to write entries: %w", err)
	}

	src := badgerSource{id: t.id, state: badgerStateCommitted, indexedAt: t.indexedAt, signatures: t.seq}
	err := t.owner.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerSourceKey(t.path), src.encode())
	})
	if err != nil {
		return fmt.Errorf("failed to commit source: %w", err)
	}

	t.done = true
	t.owner.mu.Lock()
	delete(t.owner.pending, t.path)
	t.owner.mu.Unlock()
	return nil
}

func (t *badgerSourceTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.wb.Cancel()

	b := t.owner
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, t.path)
	if b.closed {
		return nil
	}
	return b.purgeSource(t.id)
}

// Lookup implements AnagramIndex.
func (b *BadgerIndex) Lookup(_ context.Context, signature string) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	hits := []Hit{}
	prefix := badgerEntrySigPrefix(signature)
	err := b.db.View(func(txn *badger.Txn) error {
		paths := make(map[int64]string)
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.Key()
			id := int64(binary.BigEndian.Uint64(k[len(prefix) : len(prefix)+8]))

			path, seen := paths[id]
			if !seen {
				var err error
				if path, err = committedPath(txn, id); err != nil {
					return err
				}
				paths[id] = path
			}
			if path == "" {
				continue
			}

			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			hits = append(hits, Hit{AnchorOffset: int64(binary.BigEndian.Uint64(v)), Path: path})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	return hits, nil
}

// committedPath returns the path of source id, or "" when it is unknown or
// not yet committed.
func committedPath(txn *badger.Txn, id int64) (string, error) {
	item, err := txn.Get(badgerSourceIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	p, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	src, ok, err := getSource(txn, string(p))
	if err != nil || !ok || src.id != id || src.state != badgerStateCommitted {
		return "", err
	}
	return string(p), nil
}

func (b *BadgerIndex) committedSources() ([]SourceRecord, error) {
	out := []SourceRecord{}
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: badgerSourcePrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			src, err := decodeBadgerSource(v)
			if err != nil {
				return err
			}
			if src.state != badgerStateCommitted {
				continue
			}
			out = append(out, SourceRecord{
				ID:         src.id,
				Path:       string(item.Key()[len(badgerSourcePrefix):]),
				IndexedAt:  src.indexedAt,
				Signatures: src.signatures,
			})
		}
		return nil
	})
	slices.SortFunc(out, func(a, c SourceRecord) int { return cmp.Compare(a.ID, c.ID) })
	return out, err
}

// Sources implements AnagramIndex.
func (b *BadgerIndex) Sources(_ context.Context) ([]SourceRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	out, err := b.committedSources()
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return out, nil
}

// Stats implements AnagramIndex.
func (b *BadgerIndex) Stats(_ context.Context) (Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return Stats{}, ErrClosed
	}

	sources, err := b.committedSources()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list sources: %w", err)
	}
	st := Stats{Backend: "badger", Sources: int64(len(sources))}
	for _, rec := range sources {
		st.Entries += rec.Signatures
	}

	err = b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false, Prefix: badgerEntryPrefix})
		defer it.Close()

		var last []byte
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			sig := k[len(badgerEntryPrefix) : len(k)-17]
			if last == nil || string(sig) != string(last) {
				st.DistinctSignatures++
				last = append(last[:0], sig...)
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count signatures: %w", err)
	}
	return st, nil
}

// Reset implements AnagramIndex.
func (b *BadgerIndex) Reset(_ context.Context, confirmed bool) (ResetOutcome, error) {
	if !confirmed {
		return ResetSkipped, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ResetSkipped, ErrClosed
	}

	if err := b.db.DropAll(); err != nil {
		return ResetSkipped, fmt.Errorf("failed to drop data: %w", err)
	}
	b.pending = make(map[string]int64)

	slog.Info("badger_index_reset", slog.String("path", b.path))
	return ResetPerformed, nil
}

// Close implements AnagramIndex.
func (b *BadgerIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
