// Package watcher reports files that appear or change under a directory
// so they can be ingested without a full rescan.
//
// fsnotify is used where the platform supports it; otherwise the tree is
// polled. Raw events are debounced into batches and filtered through the
// same include and exclude rules as directory scans.
//
//	w, err := watcher.New(root, s, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go w.Start(ctx)
//	return w.Feed(ctx, ix, logger)
package watcher
