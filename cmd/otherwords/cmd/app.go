package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/otherwords/internal/config"
	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/store"
	"github.com/Aman-CERP/otherwords/internal/telemetry"
)

// app is everything a command needs to talk to the index.
type app struct {
	root    string
	cfg     *config.Config
	dataDir string
	indexer *index.Indexer
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// loadConfig finds the project root from --dir and loads its configuration.
func loadConfig() (string, *config.Config, error) {
	root, err := config.FindProjectRoot(projectDir)
	if err != nil {
		return "", nil, owerrors.ConfigError("failed to find project root", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return "", nil, owerrors.New(owerrors.ErrCodeConfigInvalid, "failed to load configuration", err).
			WithSuggestion("Run 'otherwords config show' to inspect the effective settings")
	}
	return root, cfg, nil
}

// openApp loads configuration and opens the configured index, retrying
// while another process holds it.
func openApp(ctx context.Context) (*app, error) {
	root, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dataDir := cfg.DataPath(root)
	logger := slog.Default().With(slog.String("backend", cfg.Index.Backend))

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, owerrors.New(owerrors.ErrCodeIndexOpen, "failed to create data directory", err).
			WithDetail("path", dataDir)
	}

	idx, err := owerrors.RetryWithResult(ctx, owerrors.OpenRetryConfig(), func() (store.AnagramIndex, error) {
		idx, err := store.NewIndexWithBackend(dataDir, cfg.Index.Backend)
		if err != nil {
			code := owerrors.ErrCodeIndexOpen
			if isLockConflict(err) {
				code = owerrors.ErrCodeIndexLocked
			}
			logger.Debug("index_open_failed", slog.String("code", code), slog.String("error", err.Error()))
			return nil, owerrors.New(code, "failed to open index at "+store.IndexPath(dataDir, cfg.Index.Backend), err)
		}
		return idx, nil
	})
	if err != nil {
		return nil, err
	}

	metrics := telemetry.New()
	ix, err := index.NewIndexer(index.ConfigFrom(cfg), index.Dependencies{
		Index:   idx,
		Lock:    store.NewFileLock(dataDir),
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		_ = idx.Close()
		return nil, owerrors.InternalError("failed to create indexer", err)
	}

	logger.Debug("index_opened", slog.String("root", root), slog.String("data_dir", dataDir))
	return &app{
		root:    root,
		cfg:     cfg,
		dataDir: dataDir,
		indexer: ix,
		metrics: metrics,
		logger:  logger,
	}, nil
}

func (a *app) Close() error {
	if err := a.indexer.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	return nil
}

// isLockConflict recognizes the messages the backends return when another
// process holds the index files.
func isLockConflict(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "lock") || strings.Contains(msg, "timeout")
}

// absPath resolves p against the working directory.
func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", owerrors.New(owerrors.ErrCodeInvalidPath, "invalid path "+p, err)
	}
	return abs, nil
}
