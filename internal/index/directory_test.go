package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/scanner"
	"github.com/Aman-CERP/otherwords/internal/store"
	"github.com/Aman-CERP/otherwords/internal/ui"
)

type recordingRenderer struct {
	progress []ui.ProgressEvent
	errors   []ui.ErrorEvent
	stats    *ui.CompletionStats
}

func (r *recordingRenderer) UpdateProgress(e ui.ProgressEvent) { r.progress = append(r.progress, e) }
func (r *recordingRenderer) AddError(e ui.ErrorEvent)          { r.errors = append(r.errors, e) }
func (r *recordingRenderer) Complete(s ui.CompletionStats)     { r.stats = &s }

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestIngestDirectory(t *testing.T) {
	// Given: a tree with the phrase in two files
	ix, _ := newSQLiteIndexer(t)
	ctx := context.Background()
	root := writeTree(t, map[string]string{
		"b.txt":       phrase,
		"a.txt":       "nothing to see here",
		"sub/c.txt":   "Amet sit dolor ipsum lorem.",
		".git/config": phrase,
	})
	rec := &recordingRenderer{}

	// When: ingesting the directory
	res, err := ix.IngestDirectory(ctx, root, DirectoryOptions{Renderer: rec})
	require.NoError(t, err)

	// Then: excluded directories are ignored and files run in lexical order
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 3, res.Indexed)
	assert.Zero(t, res.Failed)
	assert.NoError(t, res.Err())

	sources, err := ix.Sources(ctx)
	require.NoError(t, err)
	var paths []string
	for _, s := range sources {
		paths = append(paths, s.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "sub", "c.txt"),
	}, paths)

	hits, err := ix.Lookup(ctx, phraseSig)
	require.NoError(t, err)
	assert.Equal(t, []store.Hit{
		{AnchorOffset: 0, Path: filepath.Join(root, "b.txt")},
		{AnchorOffset: 0, Path: filepath.Join(root, "sub", "c.txt")},
	}, hits)

	// And: progress was reported per file
	require.NotNil(t, rec.stats)
	assert.Equal(t, 3, rec.stats.Indexed)
	var indexing int
	for _, e := range rec.progress {
		if e.Stage == ui.StageIndexing {
			indexing++
			assert.Equal(t, 3, e.Total)
		}
	}
	assert.Equal(t, 3, indexing)
}

func TestIngestDirectory_RerunSkips(t *testing.T) {
	ix, _ := newSQLiteIndexer(t)
	root := writeTree(t, map[string]string{"a.txt": phrase, "b.txt": phrase})

	_, err := ix.IngestDirectory(context.Background(), root, DirectoryOptions{})
	require.NoError(t, err)
	res, err := ix.IngestDirectory(context.Background(), root, DirectoryOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Skipped)
	assert.Zero(t, res.Indexed)
	assert.Zero(t, res.Signatures)
}

func TestIngestDirectory_Filter(t *testing.T) {
	ix, _ := newSQLiteIndexer(t)
	root := writeTree(t, map[string]string{"keep.txt": phrase, "drop.md": phrase})

	res, err := ix.IngestDirectory(context.Background(), root, DirectoryOptions{
		Filter: func(f *scanner.FileInfo) bool { return strings.HasSuffix(f.Path, ".txt") },
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 1, res.Indexed)
}

func TestIngestDirectory_UnreadableFileIsReported(t *testing.T) {
	// Given: a file that vanishes after the scan accepted it
	ix, _ := newSQLiteIndexer(t)
	ctx := context.Background()
	root := writeTree(t, map[string]string{"a.txt": phrase, "gone.txt": phrase, "z.txt": phrase})
	rec := &recordingRenderer{}

	// When: ingesting
	res, err := ix.IngestDirectory(ctx, root, DirectoryOptions{
		Renderer: rec,
		Filter: func(f *scanner.FileInfo) bool {
			if f.Path == "gone.txt" {
				require.NoError(t, os.Remove(f.AbsPath))
			}
			return true
		},
	})

	// Then: the run continues past the failure
	require.NoError(t, err)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, rec.errors, 1)
	assert.Equal(t, "gone.txt", rec.errors[0].File)

	// And: the failure is reported to the caller
	assert.Equal(t, []string{"gone.txt"}, res.FailedFiles)
	runErr := res.Err()
	require.Error(t, runErr)
	assert.Equal(t, owerrors.ErrCodeSourceRead, owerrors.GetCode(runErr))
	assert.Contains(t, runErr.Error(), "1 of 3 files")

	sources, err := ix.Sources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestIngestDirectory_Cancelled(t *testing.T) {
	ix, _ := newSQLiteIndexer(t)
	root := writeTree(t, map[string]string{"a.txt": phrase})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.IngestDirectory(ctx, root, DirectoryOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	sources, err := ix.Sources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestIngestDirectory_BadRoot(t *testing.T) {
	ix, _ := newSQLiteIndexer(t)

	_, err := ix.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), DirectoryOptions{})

	assert.Error(t, err)
}
