// Package config loads otherwords configuration from defaults, YAML files,
// a .env file and OTHERWORDS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/otherwords/internal/anagram"
)

// Project file names, in lookup order.
const (
	ProjectConfigFile    = ".otherwords.yaml"
	ProjectConfigFileAlt = ".otherwords.yml"
)

// Config represents the complete otherwords configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Index       IndexConfig       `yaml:"index" json:"index"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Watch       WatchConfig       `yaml:"watch" json:"watch"`
}

// IndexConfig configures the pipeline and its persistence.
type IndexConfig struct {
	// Backend is one of sqlite, sqlite3, bleve, badger.
	Backend string `yaml:"backend" json:"backend" validate:"oneof=sqlite sqlite3 bleve badger"`
	// DataDir holds the index and the ingest lock. Relative paths resolve
	// against the project root.
	DataDir string `yaml:"data_dir" json:"data_dir" validate:"required"`
	// MaxLen is the window budget in letters.
	MaxLen int `yaml:"max_len" json:"max_len" validate:"gte=0"`
	// MinLen is the smallest prefix, in letters, that gets a signature.
	MinLen int `yaml:"min_len" json:"min_len" validate:"gte=0"`
	// Alphabet lists the accepted letters. Empty means A-Z.
	Alphabet string `yaml:"alphabet" json:"alphabet"`
}

// PathsConfig configures which paths to include and exclude.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// PerformanceConfig configures caches and limits.
type PerformanceConfig struct {
	CacheSize   int    `yaml:"cache_size" json:"cache_size" validate:"gte=0"`
	MaxFileSize int64  `yaml:"max_file_size" json:"max_file_size" validate:"gt=0"`
	LockTimeout string `yaml:"lock_timeout" json:"lock_timeout" validate:"duration"`
}

// ServerConfig configures the HTTP and MCP surfaces.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" json:"http_addr" validate:"hostname_port"`
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce" validate:"duration"`
}

// defaultExcludePatterns are always excluded.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/.otherwords/**",
	"**/*.min.js",
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Backend: "sqlite",
			DataDir: ".otherwords",
			MaxLen:  anagram.DefaultMaxLen,
			MinLen:  anagram.DefaultMinLen,
		},
		Paths: PathsConfig{
			Include: []string{},
			Exclude: append([]string(nil), defaultExcludePatterns...),
		},
		Performance: PerformanceConfig{
			CacheSize:   1024,
			MaxFileSize: 10 * 1024 * 1024,
			LockTimeout: "30s",
		},
		Server: ServerConfig{
			HTTPAddr: "127.0.0.1:8765",
			LogLevel: "info",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// GetUserConfigPath returns $XDG_CONFIG_HOME/otherwords/config.yaml, or
// ~/.config/otherwords/config.yaml when XDG_CONFIG_HOME is unset.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "otherwords", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "otherwords", "config.yaml")
	}
	return filepath.Join(home, ".config", "otherwords", "config.yaml")
}

// Load loads configuration for the project in dir. Precedence, lowest first:
//  1. defaults
//  2. user config
//  3. project .otherwords.yaml (or .yml)
//  4. dir/.env, which never overrides variables already set
//  5. OTHERWORDS_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	if envPath := filepath.Join(dir, ".env"); fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile loads .otherwords.yaml, falling back to .otherwords.yml.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML decodes path over c. Keys absent from the file keep their
// current value; exclude patterns are appended to the current list.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	exclude := c.Paths.Exclude
	c.Paths.Exclude = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		c.Paths.Exclude = exclude
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Paths.Exclude = appendUnique(exclude, c.Paths.Exclude...)
	return nil
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range items {
		if !seen[s] {
			dst = append(dst, s)
			seen[s] = true
		}
	}
	return dst
}

// applyEnvOverrides applies OTHERWORDS_* environment variables. Empty values
// are ignored.
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"OTHERWORDS_BACKEND":        &c.Index.Backend,
		"OTHERWORDS_DATA_DIR":       &c.Index.DataDir,
		"OTHERWORDS_ALPHABET":       &c.Index.Alphabet,
		"OTHERWORDS_LOCK_TIMEOUT":   &c.Performance.LockTimeout,
		"OTHERWORDS_HTTP_ADDR":      &c.Server.HTTPAddr,
		"OTHERWORDS_LOG_LEVEL":      &c.Server.LogLevel,
		"OTHERWORDS_WATCH_DEBOUNCE": &c.Watch.Debounce,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"OTHERWORDS_MAX_LEN":    &c.Index.MaxLen,
		"OTHERWORDS_MIN_LEN":    &c.Index.MinLen,
		"OTHERWORDS_CACHE_SIZE": &c.Performance.CacheSize,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", key, v)
		}
		*dst = n
	}

	if v := os.Getenv("OTHERWORDS_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("OTHERWORDS_MAX_FILE_SIZE must be an integer, got %q", v)
		}
		c.Performance.MaxFileSize = n
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d >= 0
	})
	return v
}

// Validate checks field constraints and the alphabet.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Index.Alphabet != "" {
		if _, err := anagram.NewAlphabet(c.Index.Alphabet); err != nil {
			return fmt.Errorf("index.alphabet: %w", err)
		}
	}
	return nil
}

// PipelineOptions converts the index section into pipeline options.
// Call Validate first; an invalid alphabet falls back to A-Z.
func (c *Config) PipelineOptions() anagram.Options {
	opts := anagram.Options{
		MaxLen:   c.Index.MaxLen,
		MinLen:   c.Index.MinLen,
		Alphabet: anagram.Latin,
	}
	if c.Index.Alphabet != "" {
		if a, err := anagram.NewAlphabet(c.Index.Alphabet); err == nil {
			opts.Alphabet = a
		}
	}
	return opts
}

// DataPath resolves the data directory against root.
func (c *Config) DataPath(root string) string {
	if filepath.IsAbs(c.Index.DataDir) {
		return c.Index.DataDir
	}
	return filepath.Join(root, c.Index.DataDir)
}

// LockTimeoutDuration returns the parsed ingest lock timeout.
func (c *Config) LockTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Performance.LockTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// DebounceDuration returns the parsed watcher debounce.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// FindProjectRoot walks up from startDir looking for a .git directory or an
// otherwords project file. It returns startDir (absolute) when neither is
// found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dir := absDir
	for {
		if dirExists(filepath.Join(dir, ".git")) ||
			fileExists(filepath.Join(dir, ProjectConfigFile)) ||
			fileExists(filepath.Join(dir, ProjectConfigFileAlt)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
