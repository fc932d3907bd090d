package async

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Aman-CERP/otherwords/internal/ui"
)

// RunningMarker is created in the data directory for the duration of a
// background run. Finding it at startup means the previous run was
// interrupted; sources it committed are intact, the rest were never
// registered.
const RunningMarker = "ingest.running"

// IngestFunc does the work of a run, reporting to r.
type IngestFunc func(ctx context.Context, r ui.Renderer) error

// BackgroundIngester runs one IngestFunc in a goroutine.
type BackgroundIngester struct {
	dataDir  string
	run      IngestFunc
	progress *Progress

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
	running bool
	err     error
}

// NewBackgroundIngester creates an ingester that will call run. The
// running marker is kept in dataDir.
func NewBackgroundIngester(dataDir string, run IngestFunc) *BackgroundIngester {
	return &BackgroundIngester{
		dataDir:  dataDir,
		run:      run,
		progress: NewProgress(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Progress returns the renderer the run reports to. It can be read at any
// time.
func (b *BackgroundIngester) Progress() *Progress { return b.progress }

// IsRunning reports whether the run has started and not yet finished.
func (b *BackgroundIngester) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Start launches the run and returns immediately. Later calls do nothing.
func (b *BackgroundIngester) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.running = true
	b.mu.Unlock()

	go b.loop(ctx)
}

func (b *BackgroundIngester) loop(ctx context.Context) {
	defer close(b.doneCh)
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-b.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	marker := filepath.Join(b.dataDir, RunningMarker)
	if err := os.MkdirAll(b.dataDir, 0o755); err != nil {
		b.fail(fmt.Errorf("failed to create data directory: %w", err))
		return
	}
	if err := os.WriteFile(marker, []byte(time.Now().Format(time.RFC3339)), 0o644); err != nil {
		b.fail(fmt.Errorf("failed to write %s: %w", RunningMarker, err))
		return
	}
	defer func() { _ = os.Remove(marker) }()

	if err := b.run(ctx, b.progress); err != nil {
		b.fail(err)
		return
	}
	b.progress.SetReady()
}

func (b *BackgroundIngester) fail(err error) {
	b.progress.SetError(err.Error())
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// Stop cancels the run and waits for it to finish.
func (b *BackgroundIngester) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()
	if started {
		<-b.doneCh
	}
}

// Wait blocks until the run finishes and returns its error. It returns nil
// at once if the run was never started.
func (b *BackgroundIngester) Wait() error {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()
	if !started {
		return nil
	}

	<-b.doneCh
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// HasIncompleteRun reports whether a previous run in dataDir was
// interrupted.
func HasIncompleteRun(dataDir string) bool {
	_, err := os.Stat(filepath.Join(dataDir, RunningMarker))
	return err == nil
}
