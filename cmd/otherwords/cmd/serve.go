package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/otherwords/internal/async"
	"github.com/Aman-CERP/otherwords/internal/httpapi"
	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/mcp"
	"github.com/Aman-CERP/otherwords/internal/ui"
)

func newServeCmd() *cobra.Command {
	var (
		addr      string
		watchPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups over HTTP",
		Long: `Serve the index over HTTP.

  GET /api/anagrams?phrase=<phrase>
  GET /api/signatures/{signature}
  GET /api/sources
  GET /api/stats
  GET /healthz
  GET /metrics

With --watch, the directory is indexed first and new files are ingested
while the server runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.HTTPAddr
			}
			out := newWriter(cmd)
			handler := httpapi.NewRouter(httpapi.Deps{Index: a.indexer, Metrics: a.metrics, Logger: a.logger})

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return httpapi.Serve(ctx, addr, handler, a.logger)
			})
			if watchPath != "" {
				g.Go(func() error {
					return watchDir(ctx, a, watchPath, false, out)
				})
			}
			if !out.JSONMode() {
				out.Statusf("🚀", "Listening on http://%s", addr)
			}

			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.http_addr)")
	cmd.Flags().StringVar(&watchPath, "watch", "", "Index this directory and ingest new files while serving")
	return cmd
}

// newMCPCmd serves MCP over stdio. Nothing may be written to stdout except
// protocol messages, so all status goes to the log file.
func newMCPCmd() *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve lookups to AI assistants over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the tools
find_anagrams, lookup_signature, list_sources and index_status, and the
resource otherwords://query_metrics.

With --index, the directory is ingested in the background while the
server answers; index_status reports the progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := mcp.NewServer(a.indexer, a.metrics, a.logger)
			if err != nil {
				return err
			}

			if async.HasIncompleteRun(a.dataDir) {
				a.logger.Warn("previous_ingest_incomplete", slog.String("data_dir", a.dataDir))
			}
			if indexPath != "" {
				root, err := absPath(indexPath)
				if err != nil {
					return err
				}
				bg := async.NewBackgroundIngester(a.dataDir, func(ctx context.Context, r ui.Renderer) error {
					_, err := a.indexer.IngestDirectory(ctx, root, index.DirectoryOptions{Renderer: r})
					return err
				})
				srv.SetProgress(bg.Progress())
				bg.Start(cmd.Context())
				defer func() {
					if bg.IsRunning() {
						a.logger.Info("background_ingest_cancelled",
							slog.String("root", root),
							slog.Int("files_processed", bg.Progress().Snapshot().FilesProcessed))
					}
					bg.Stop()
				}()
			}

			if err := srv.Serve(cmd.Context(), "stdio"); err != nil {
				a.logger.Error("mcp_server_failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Ingest this directory in the background while serving")
	return cmd
}
