package watcher

import (
	"context"
	"log/slog"
	"path/filepath"

	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/index"
)

// Ingester is satisfied by *index.Indexer.
type Ingester interface {
	IngestFile(ctx context.Context, path string) (*index.IngestResult, error)
}

// Feed ingests created and modified files as batches arrive, keyed by the
// watched root joined with the relative path. Sources are append-only, so
// a modified file that is already indexed is skipped, and deletions and
// renames are logged and ignored. A failed file is logged and the feed
// continues.
//
// Feed returns nil once the watcher stops and ctx.Err() if ctx is done.
func (w *Watcher) Feed(ctx context.Context, ing Ingester, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	events, errs := w.Events(), w.Errors()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch_error", slog.String("error", err.Error()))
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.ingestBatch(ctx, ing, batch, logger); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) ingestBatch(ctx context.Context, ing Ingester, batch []FileEvent, logger *slog.Logger) error {
	for _, ev := range batch {
		if ev.Operation != OpCreate && ev.Operation != OpModify {
			logger.Debug("watch_event_ignored",
				slog.String("path", ev.Path),
				slog.String("op", ev.Operation.String()))
			continue
		}

		path := filepath.Join(w.root, filepath.FromSlash(ev.Path))
		res, err := ing.IngestFile(ctx, path)
		switch {
		case err == nil && res.Skipped:
			logger.Debug("watch_source_unchanged", slog.String("path", path))
		case err == nil:
			logger.Info("watch_ingested",
				slog.String("path", path),
				slog.String("op", ev.Operation.String()),
				slog.Int("signatures", res.Signatures))
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			logger.Warn("watch_ingest_failed", owerrors.LogAttrs(err)...)
		}
	}
	return nil
}
