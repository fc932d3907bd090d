package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty directory and clears every
// OTHERWORDS_* variable for the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"OTHERWORDS_BACKEND", "OTHERWORDS_DATA_DIR", "OTHERWORDS_ALPHABET",
		"OTHERWORDS_LOCK_TIMEOUT", "OTHERWORDS_HTTP_ADDR", "OTHERWORDS_LOG_LEVEL",
		"OTHERWORDS_WATCH_DEBOUNCE", "OTHERWORDS_MAX_LEN", "OTHERWORDS_MIN_LEN",
		"OTHERWORDS_CACHE_SIZE", "OTHERWORDS_MAX_FILE_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "sqlite", cfg.Index.Backend)
	assert.Equal(t, ".otherwords", cfg.Index.DataDir)
	assert.Equal(t, 144, cfg.Index.MaxLen)
	assert.Equal(t, 40, cfg.Index.MinLen)
	assert.Empty(t, cfg.Index.Alphabet)
	assert.Equal(t, 1024, cfg.Performance.CacheSize)
	assert.Equal(t, int64(10*1024*1024), cfg.Performance.MaxFileSize)
	assert.Equal(t, 30*time.Second, cfg.LockTimeoutDuration())
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.HTTPAddr)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDuration())
	assert.Contains(t, cfg.Paths.Exclude, "**/.git/**")
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles_UsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectFileOverridesUserFile(t *testing.T) {
	// Given: a user file and a project file that disagree
	isolate(t)
	userPath := GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte("index:\n  backend: badger\n  min_len: 10\n"), 0o644))

	dir := t.TempDir()
	project := "index:\n  min_len: 20\npaths:\n  exclude:\n    - \"**/*.bin\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte(project), 0o644))

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: project wins where set, user fills the rest, excludes accumulate
	assert.Equal(t, "badger", cfg.Index.Backend)
	assert.Equal(t, 20, cfg.Index.MinLen)
	assert.Equal(t, 144, cfg.Index.MaxLen)
	assert.Contains(t, cfg.Paths.Exclude, "**/*.bin")
	assert.Contains(t, cfg.Paths.Exclude, "**/.git/**")
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFileAlt), []byte("index:\n  max_len: 0\n"), 0o644))

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Index.MaxLen)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte("index:\n  backend: bleve\n"), 0o644))
	t.Setenv("OTHERWORDS_BACKEND", "badger")
	t.Setenv("OTHERWORDS_MIN_LEN", "7")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Index.Backend)
	assert.Equal(t, 7, cfg.Index.MinLen)
}

func TestLoad_DotEnvFillsUnsetVariables(t *testing.T) {
	// Given: a .env file and an unset OTHERWORDS_MAX_LEN
	isolate(t)
	t.Setenv("OTHERWORDS_MAX_LEN", "x")
	require.NoError(t, os.Unsetenv("OTHERWORDS_MAX_LEN"))
	t.Setenv("OTHERWORDS_CACHE_SIZE", "5")

	dir := t.TempDir()
	env := "OTHERWORDS_MAX_LEN=99\nOTHERWORDS_CACHE_SIZE=6\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: .env supplies the unset key and leaves the set one alone
	assert.Equal(t, 99, cfg.Index.MaxLen)
	assert.Equal(t, 5, cfg.Performance.CacheSize)
}

func TestLoad_BadEnvInteger(t *testing.T) {
	isolate(t)
	t.Setenv("OTHERWORDS_MAX_LEN", "lots")

	_, err := Load(t.TempDir())

	assert.ErrorContains(t, err, "OTHERWORDS_MAX_LEN")
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte("index: [\n"), 0o644))

	_, err := Load(dir)

	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate_Rejects(t *testing.T) {
	tests := map[string]func(*Config){
		"unknown backend":  func(c *Config) { c.Index.Backend = "postgres" },
		"negative max_len": func(c *Config) { c.Index.MaxLen = -1 },
		"negative min_len": func(c *Config) { c.Index.MinLen = -1 },
		"empty data dir":   func(c *Config) { c.Index.DataDir = "" },
		"bad log level":    func(c *Config) { c.Server.LogLevel = "loud" },
		"bad addr":         func(c *Config) { c.Server.HTTPAddr = "nope" },
		"bad timeout":      func(c *Config) { c.Performance.LockTimeout = "soon" },
		"bad debounce":     func(c *Config) { c.Watch.Debounce = "-1s" },
		"zero file size":   func(c *Config) { c.Performance.MaxFileSize = 0 },
		"digit alphabet":   func(c *Config) { c.Index.Alphabet = "ab1" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := NewConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Index.MaxLen = 12
	cfg.Index.MinLen = 3
	cfg.Index.Alphabet = "cba"

	opts := cfg.PipelineOptions()

	assert.Equal(t, 12, opts.MaxLen)
	assert.Equal(t, 3, opts.MinLen)
	assert.Equal(t, 3, opts.Alphabet.Len())
}

func TestDataPath(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, filepath.Join("/proj", ".otherwords"), cfg.DataPath("/proj"))

	cfg.Index.DataDir = "/var/lib/ow"
	assert.Equal(t, "/var/lib/ow", cfg.DataPath("/proj"))
}

func TestFindProjectRoot(t *testing.T) {
	// Given: a project file two levels up
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFile), nil, 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	// When / Then
	got, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Index.Backend = "bleve"
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectConfigFile)))

	loaded, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "bleve", loaded.Index.Backend)
	assert.ElementsMatch(t, cfg.Paths.Exclude, loaded.Paths.Exclude)
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectConfigFile)

	// Missing file is not an error.
	got, err := BackupFile(path)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))
	for i := 0; i < MaxBackups+2; i++ {
		got, err = BackupFile(path)
		require.NoError(t, err)
		require.FileExists(t, got)
		time.Sleep(2 * time.Millisecond)
	}

	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, got, backups[0])
}
