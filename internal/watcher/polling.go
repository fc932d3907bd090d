package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"
)

type fileState struct {
	modTime time.Time
	size    int64
}

func (w *Watcher) runPolling(ctx context.Context) error {
	prev, err := w.snapshot()
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", w.root, err)
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			cur, err := w.snapshot()
			if err != nil {
				w.emitError(err)
				continue
			}
			w.diff(prev, cur)
			prev = cur
		}
	}
}

// snapshot records every regular file outside excluded directories.
func (w *Watcher) snapshot() (map[string]fileState, error) {
	files := make(map[string]fileState)
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == w.root {
				return err
			}
			return nil
		}
		rel, ok := w.rel(p)
		if !ok {
			return nil
		}
		if d.IsDir() {
			if w.filter.ExcludesDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files[rel] = fileState{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
	return files, err
}

func (w *Watcher) diff(prev, cur map[string]fileState) {
	paths := make([]string, 0, len(cur))
	for rel := range cur {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		abs := filepath.Join(w.root, filepath.FromSlash(rel))
		old, seen := prev[rel]
		switch {
		case !seen:
			w.addIfAccepted(rel, abs, OpCreate)
		case !old.modTime.Equal(cur[rel].modTime) || old.size != cur[rel].size:
			w.addIfAccepted(rel, abs, OpModify)
		}
	}
	for rel := range prev {
		if _, ok := cur[rel]; !ok {
			w.addGone(rel, OpDelete)
		}
	}
}
