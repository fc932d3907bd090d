package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: a file logger at debug level
	path := filepath.Join(t.TempDir(), "logs", "otherwords.log")
	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path, MaxSizeMB: 1, MaxFiles: 2})
	require.NoError(t, err)

	// When: logging an event
	logger.Debug("ingest_started", slog.String("path", "a.txt"))
	cleanup()

	// Then: the file holds one JSON line with the attributes
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"ingest_started"`)
	assert.Contains(t, string(data), `"path":"a.txt"`)
}

func TestSetup_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otherwords.log")
	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestSetup_NoOutputs(t *testing.T) {
	logger, cleanup, err := Setup(Config{})
	require.NoError(t, err)
	defer cleanup()

	logger.Error("goes nowhere")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestRotatingWriter_Rotates(t *testing.T) {
	// Given: a 1MB writer keeping two files
	path := filepath.Join(t.TempDir(), "otherwords.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer w.Close()

	// When: writing more than three files' worth
	chunk := []byte(strings.Repeat("x", 512*1024))
	for i := 0; i < 7; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: the current file and two rotated files exist, no more
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestTailAndFormat(t *testing.T) {
	// Given: a log with mixed levels and a garbage line
	path := filepath.Join(t.TempDir(), "otherwords.log")
	lines := strings.Join([]string{
		`{"time":"2026-01-02T03:04:05.000Z","level":"DEBUG","msg":"noise"}`,
		`{"time":"2026-01-02T03:04:06.000Z","level":"INFO","msg":"ingest_complete","signatures":12,"path":"a.txt"}`,
		`not json`,
		`{"time":"2026-01-02T03:04:07.000Z","level":"ERROR","msg":"ingest_failed"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	// When: tailing the last two info-or-higher entries
	entries, err := Tail(path, 2, "info")
	require.NoError(t, err)

	// Then: the debug line is filtered and the raw line is kept
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Valid)
	assert.Equal(t, "not json", Format(entries[0], false))
	assert.Equal(t, "ingest_failed", entries[1].Msg)

	all, err := Tail(path, 0, "info")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "03:04:06.000 INFO  ingest_complete path=a.txt signatures=12", Format(all[0], false))
}

func TestFindLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	_, err := FindLogFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	got, err := FindLogFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}
