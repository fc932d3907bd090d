package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerIndex_PendingSourceIsInvisible(t *testing.T) {
	ctx := context.Background()
	idx, err := NewBadgerIndex("")
	require.NoError(t, err)
	defer idx.Close()
	ingest(t, idx, "a.txt", entry{"SIG", 1})

	tx, err := idx.BeginSource(ctx, "b.txt")
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, "SIG", 2))

	has, err := idx.HasSource(ctx, "b.txt")
	require.NoError(t, err)
	assert.False(t, has)

	sources, err := idx.Sources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 1)

	require.NoError(t, tx.Commit(ctx))
	hits, err := idx.Lookup(ctx, "SIG")
	require.NoError(t, err)
	assert.Equal(t, []Hit{
		{AnchorOffset: 1, Path: "a.txt"},
		{AnchorOffset: 2, Path: "b.txt"},
	}, hits)
}

func TestBadgerIndex_PendingSourcePurgedOnOpen(t *testing.T) {
	// Given: a source whose entries were written but never committed
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "anagrams.badger")
	idx, err := NewBadgerIndex(path)
	require.NoError(t, err)
	ingest(t, idx, "done.txt", entry{"SIG", 1})

	tx, err := idx.BeginSource(ctx, "crashed.txt")
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, "SIG", 50))
	btx := tx.(*badgerSourceTx)
	require.NoError(t, btx.wb.Flush())
	btx.done = true
	require.NoError(t, idx.Close())

	// When: reopening
	idx, err = NewBadgerIndex(path)
	require.NoError(t, err)
	defer idx.Close()

	// Then: the pending source and its entries are gone
	has, err := idx.HasSource(ctx, "crashed.txt")
	require.NoError(t, err)
	assert.False(t, has)

	st, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Sources)
	assert.Equal(t, int64(1), st.Entries)

	hits, err := idx.Lookup(ctx, "SIG")
	require.NoError(t, err)
	assert.Equal(t, []Hit{{AnchorOffset: 1, Path: "done.txt"}}, hits)

	// And: ids keep increasing after the purge
	ingest(t, idx, "crashed.txt", entry{"SIG", 2})
	sources, err := idx.Sources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Greater(t, sources[1].ID, int64(2))
}

func TestDecodeBadgerSource_RejectsShortRecord(t *testing.T) {
	_, err := decodeBadgerSource([]byte{1, 2, 3})
	assert.Error(t, err)
}
