// Package scanner discovers text files under a directory for ingestion,
// skipping excluded paths, sensitive files, binaries and oversized files.
package scanner

import "time"

// FileInfo describes a discovered file.
type FileInfo struct {
	Path    string // slash-separated, relative to the root
	AbsPath string
	Size    int64
	ModTime time.Time
}

// Filter decides whether a discovered file is ingested. Returning false
// skips it.
type Filter func(*FileInfo) bool

// Options configures a Scanner.
type Options struct {
	// RootDir is the directory to scan. Empty means ".".
	RootDir string

	// Include restricts results to matching files. Empty includes all.
	Include []string

	// Exclude lists patterns for files and directories to skip, on top of
	// the built-in defaults.
	Exclude []string

	// MaxFileSize is the size limit in bytes. Zero means DefaultMaxFileSize.
	MaxFileSize int64

	// FollowSymlinks includes symlinked files.
	FollowSymlinks bool

	// Filter is applied last. Nil accepts every file.
	Filter Filter
}

// Result is one item from Scan.
type Result struct {
	File  *FileInfo
	Error error
}

// DefaultMaxFileSize is 10MB.
const DefaultMaxFileSize = 10 * 1024 * 1024

var defaultExcludeDirs = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/.otherwords/**",
	"**/.ssh/**",
}

// Sensitive files are never ingested.
var sensitiveFilePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*.p12",
	"*.pfx",
	"*credentials*",
	"*secrets*",
	"*password*",
	".netrc",
	".npmrc",
	"id_rsa",
	"id_dsa",
	"id_ecdsa",
	"id_ed25519",
}
