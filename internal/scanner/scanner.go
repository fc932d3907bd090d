package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// dirCacheSize bounds the directory exclusion cache.
const dirCacheSize = 1000

// Scanner walks a directory tree. A Scanner is bound to one Options value
// and is safe for concurrent use.
type Scanner struct {
	opts    Options
	root    string
	exclude []string

	// dirCache remembers exclusion decisions per relative directory.
	dirCache *lru.Cache[string, bool]
	cacheMu  sync.Mutex
}

// New creates a scanner for opts.RootDir, which must be a directory.
func New(opts Options) (*Scanner, error) {
	if opts.RootDir == "" {
		opts.RootDir = "."
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	root, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", root)
	}

	cache, err := lru.New[string, bool](dirCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory cache: %w", err)
	}

	exclude := make([]string, 0, len(defaultExcludeDirs)+len(opts.Exclude))
	exclude = append(exclude, defaultExcludeDirs...)
	exclude = append(exclude, opts.Exclude...)

	return &Scanner{
		opts:     opts,
		root:     root,
		exclude:  exclude,
		dirCache: cache,
	}, nil
}

// Root returns the absolute root directory.
func (s *Scanner) Root() string { return s.root }

// Walk calls fn for every accepted file in lexical order. Unreadable
// entries are skipped. An error from fn or ctx stops the walk and is
// returned.
func (s *Scanner) Walk(ctx context.Context, fn func(*FileInfo) error) error {
	return filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.excludedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !s.opts.FollowSymlinks {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		file := &FileInfo{Path: rel, AbsPath: p, Size: info.Size(), ModTime: info.ModTime()}
		if !s.accept(file) {
			return nil
		}
		return fn(file)
	})
}

// Scan streams accepted files on a channel that is closed when the walk
// ends. A walk error other than cancellation is sent as the last Result.
func (s *Scanner) Scan(ctx context.Context) <-chan Result {
	results := make(chan Result, 64)
	go func() {
		defer close(results)
		err := s.Walk(ctx, func(f *FileInfo) error {
			select {
			case results <- Result{File: f}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			select {
			case results <- Result{Error: err}:
			case <-ctx.Done():
			}
		}
	}()
	return results
}

// Accepts reports whether the file at absPath would be returned by Walk.
// The watcher uses it to filter events.
func (s *Scanner) Accepts(absPath string) bool {
	rel, err := filepath.Rel(s.root, absPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	if dir := filepath.ToSlash(filepath.Dir(rel)); dir != "." && s.excludedDir(dir) {
		return false
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return false
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		if !s.opts.FollowSymlinks {
			return false
		}
		if info, err = os.Stat(absPath); err != nil {
			return false
		}
	}
	if !info.Mode().IsRegular() {
		return false
	}
	return s.accept(&FileInfo{Path: rel, AbsPath: absPath, Size: info.Size(), ModTime: info.ModTime()})
}

// ExcludesDir reports whether the relative directory is skipped.
func (s *Scanner) ExcludesDir(rel string) bool {
	return s.excludedDir(filepath.ToSlash(rel))
}

// excludedDir checks rel and, through the cache, each of its parents.
func (s *Scanner) excludedDir(rel string) bool {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.excludedDirLocked(rel)
}

func (s *Scanner) excludedDirLocked(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	if v, ok := s.dirCache.Get(rel); ok {
		return v
	}
	parent := filepath.ToSlash(filepath.Dir(rel))
	excluded := s.excludedDirLocked(parent) || matchAny(s.exclude, rel)
	s.dirCache.Add(rel, excluded)
	return excluded
}

func (s *Scanner) accept(f *FileInfo) bool {
	if matchAny(sensitiveFilePatterns, f.Path) || matchAny(s.exclude, f.Path) {
		return false
	}
	if len(s.opts.Include) > 0 && !matchAny(s.opts.Include, f.Path) {
		return false
	}
	if f.Size > s.opts.MaxFileSize {
		return false
	}
	if isBinaryFile(f.AbsPath) {
		return false
	}
	if s.opts.Filter != nil && !s.opts.Filter(f) {
		return false
	}
	return true
}

// isBinaryFile looks for a NUL byte in the first 512 bytes.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
