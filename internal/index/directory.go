package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/otherwords/internal/anagram"
	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/scanner"
	"github.com/Aman-CERP/otherwords/internal/ui"
)

// DirectoryOptions configures IngestDirectory.
type DirectoryOptions struct {
	// Filter skips files it returns false for.
	Filter scanner.Filter

	// Renderer receives progress. Nil discards it.
	Renderer ui.Renderer
}

// DirectoryResult summarises a directory ingestion.
type DirectoryResult struct {
	RunID      string        `json:"run_id"`
	Root       string        `json:"root"`
	Files      int           `json:"files"`
	Indexed    int           `json:"indexed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Signatures int           `json:"signatures"`
	Duration   time.Duration `json:"duration"`

	// FailedFiles lists the relative paths that could not be read.
	FailedFiles []string `json:"failed_files,omitempty"`
}

// Err reports the files that could not be read, or nil if every file was
// ingested or skipped.
func (r *DirectoryResult) Err() error {
	if r == nil || r.Failed == 0 {
		return nil
	}
	return owerrors.New(owerrors.ErrCodeSourceRead,
		fmt.Sprintf("%d of %d files under %s could not be read", r.Failed, r.Files, r.Root), nil).
		WithDetail("failed_files", strings.Join(r.FailedFiles, ", ")).
		WithSuggestion("Check the files' permissions, or run with --debug for details")
}

// IngestDirectory scans root and ingests every accepted file in lexical
// order, keyed by root joined with the file's relative path. A file that
// cannot be read is reported and skipped, and DirectoryResult.Err returns
// it afterwards; a store failure or cancellation stops the run.
func (ix *Indexer) IngestDirectory(ctx context.Context, root string, opts DirectoryOptions) (*DirectoryResult, error) {
	renderer := opts.Renderer
	if renderer == nil {
		renderer = ui.Discard
	}

	start := time.Now()
	root = filepath.Clean(root)
	result := &DirectoryResult{RunID: uuid.NewString(), Root: root}
	log := ix.logger.With(slog.String("run_id", result.RunID), slog.String("root", root))

	s, err := scanner.New(scanner.Options{
		RootDir:     root,
		Include:     ix.cfg.Include,
		Exclude:     ix.cfg.Exclude,
		MaxFileSize: ix.cfg.MaxFileSize,
		Filter:      opts.Filter,
	})
	if err != nil {
		return nil, owerrors.SourceError(root, err)
	}

	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageScanning, Message: fmt.Sprintf("Scanning %s...", root)})
	var files []*scanner.FileInfo
	if err := s.Walk(ctx, func(f *scanner.FileInfo) error {
		files = append(files, f)
		return nil
	}); err != nil {
		return nil, err
	}
	result.Files = len(files)
	log.Info("directory_scan_complete", slog.Int("files", len(files)))

	unlock, err := ix.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key := filepath.Join(root, filepath.FromSlash(f.Path))
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageIndexing,
			Current:     i + 1,
			Total:       len(files),
			CurrentFile: f.Path,
		})

		r, err := ix.ingest(ctx, result.RunID, key, func(sink anagram.SignatureSink) error {
			return ix.pipeline.RunFile(ctx, f.AbsPath, sink)
		})
		switch {
		case err == nil && r.Skipped:
			result.Skipped++
		case err == nil:
			result.Indexed++
			result.Signatures += r.Signatures
		case isSourceFailure(err):
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, f.Path)
			renderer.AddError(ui.ErrorEvent{File: f.Path, Err: err})
		default:
			return result, err
		}
	}

	result.Duration = time.Since(start)
	renderer.Complete(ui.CompletionStats{
		Files:      result.Files,
		Indexed:    result.Indexed,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Signatures: result.Signatures,
		Duration:   result.Duration,
	})
	log.Info("directory_ingest_complete",
		slog.Int("indexed", result.Indexed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Int("signatures", result.Signatures),
		slog.Int64("duration_ms", result.Duration.Milliseconds()))
	return result, nil
}

// isSourceFailure reports whether err concerns one unreadable file rather
// than the index.
func isSourceFailure(err error) bool {
	switch owerrors.GetCode(err) {
	case owerrors.ErrCodeSourceNotFound, owerrors.ErrCodeSourcePerm, owerrors.ErrCodeSourceRead:
		return true
	}
	return false
}
