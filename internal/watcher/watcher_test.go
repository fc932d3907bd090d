package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/otherwords/internal/scanner"
)

func fastOptions() Options {
	return Options{Debounce: 30 * time.Millisecond, PollInterval: 50 * time.Millisecond}
}

func startWatcher(t *testing.T, dir string, opts Options) *Watcher {
	t.Helper()
	s, err := scanner.New(scanner.Options{RootDir: dir})
	require.NoError(t, err)
	w, err := New(dir, s, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	// Let the initial watch or snapshot settle.
	time.Sleep(100 * time.Millisecond)
	return w
}

// waitFor collects events until one matches path and op.
func waitFor(t *testing.T, w *Watcher, path string, op Operation) []FileEvent {
	t.Helper()
	var seen []FileEvent
	deadline := time.After(3 * time.Second)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "events closed")
			seen = append(seen, batch...)
			for _, e := range batch {
				if e.Path == path && e.Operation == op {
					return seen
				}
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s %s, saw %v", op, path, seen)
			return nil
		}
	}
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "UNKNOWN", Operation(99).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{Debounce: time.Second}.WithDefaults()

	assert.Equal(t, time.Second, opts.Debounce)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
	assert.Equal(t, 1000, opts.EventBufferSize)
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()
	s, err := scanner.New(scanner.Options{RootDir: dir})
	require.NoError(t, err)

	_, err = New(dir, nil, DefaultOptions())
	assert.ErrorContains(t, err, "filter is required")

	_, err = New(filepath.Join(dir, "missing"), s, DefaultOptions())
	assert.Error(t, err)

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(file, s, DefaultOptions())
	assert.ErrorContains(t, err, "not a directory")
}

func TestWatcher_DetectsCreate(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, fastOptions())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("Lorem ipsum"), 0o644))

	waitFor(t, w, "new.txt", OpCreate)
}

func TestWatcher_IgnoresExcluded(t *testing.T) {
	// Given: a tree with an excluded directory
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	w := startWatcher(t, dir, fastOptions())

	// When: files change inside and outside it
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "x.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0, 1, 2}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))

	// Then: only the accepted file is reported
	seen := waitFor(t, w, "a.txt", OpCreate)
	for _, e := range seen {
		assert.NotEqual(t, "node_modules/x.txt", e.Path)
		assert.NotEqual(t, "blob.bin", e.Path)
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, fastOptions())

	sub := filepath.Join(dir, "sub", "deeper")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.txt"), []byte("c"), 0o644))

	waitFor(t, w, "sub/deeper/c.txt", OpCreate)
}

func TestWatcher_Polling(t *testing.T) {
	// Given: a polling watcher over a tree with one file
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.txt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))
	opts := fastOptions()
	opts.ForcePolling = true
	w := startWatcher(t, dir, opts)
	assert.Equal(t, "polling", w.Mode())

	// When / Then: creation and deletion are both seen
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0o644))
	waitFor(t, w, "new.txt", OpCreate)

	require.NoError(t, os.Remove(existing))
	waitFor(t, w, "old.txt", OpDelete)
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	s, err := scanner.New(scanner.Options{RootDir: dir})
	require.NoError(t, err)
	w, err := New(dir, s, fastOptions())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)
}

func TestWatcher_ContextCancel(t *testing.T) {
	dir := t.TempDir()
	s, err := scanner.New(scanner.Options{RootDir: dir})
	require.NoError(t, err)
	w, err := New(dir, s, fastOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	_, ok := <-w.Events()
	assert.False(t, ok)
}
