package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/output"
	"github.com/Aman-CERP/otherwords/internal/scanner"
	"github.com/Aman-CERP/otherwords/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var forcePolling bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Index a directory and keep ingesting files as they appear",
		Long: `Index a directory, then watch it and ingest new files as they are
written. Indexed sources are never rewritten: edits to a file that is
already indexed and deletions are ignored. Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := newWriter(cmd)
			err = watchDir(cmd.Context(), a, args[0], forcePolling, out)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&forcePolling, "poll", false, "Poll for changes instead of using filesystem notifications")
	return cmd
}

// watchDir ingests dir once, then feeds every created or modified file to
// the indexer until ctx is done.
func watchDir(ctx context.Context, a *app, dir string, forcePolling bool, out *output.Writer) error {
	root, err := absPath(dir)
	if err != nil {
		return err
	}

	res, err := a.indexer.IngestDirectory(ctx, root, index.DirectoryOptions{})
	if err != nil {
		return err
	}
	if !out.JSONMode() {
		if err := out.Directory(res); err != nil {
			return err
		}
	}
	// Watching continues; unreadable files are picked up again if they change.
	if err := res.Err(); err != nil {
		a.logger.Warn("initial_ingest_incomplete", owerrors.LogAttrs(err)...)
		if !out.JSONMode() {
			out.Warning(owerrors.FormatInline(err))
		}
	}

	filter, err := scanner.New(scanner.Options{
		RootDir:     root,
		Include:     a.cfg.Paths.Include,
		Exclude:     a.cfg.Paths.Exclude,
		MaxFileSize: a.cfg.Performance.MaxFileSize,
	})
	if err != nil {
		return owerrors.SourceError(root, err)
	}

	opts := watcher.DefaultOptions()
	opts.Debounce = a.cfg.DebounceDuration()
	opts.ForcePolling = forcePolling
	w, err := watcher.New(root, filter, opts)
	if err != nil {
		return owerrors.SourceError(root, err)
	}
	defer func() { _ = w.Stop() }()

	a.logger.Info("watch_started", slog.String("root", root), slog.String("mode", w.Mode()))
	if !out.JSONMode() {
		out.Statusf("👀", "Watching %s (%s)", root, w.Mode())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Start(gctx) })
	g.Go(func() error { return w.Feed(gctx, a.indexer, a.logger) })
	return g.Wait()
}
