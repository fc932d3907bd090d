package watcher

import (
	"time"
)

// Operation is the kind of change observed for a file.
type Operation int

const (
	// OpCreate is a new file.
	OpCreate Operation = iota
	// OpModify is a write to an existing file.
	OpModify
	// OpDelete is a removed file.
	OpDelete
	// OpRename is a file moved away from its path.
	OpRename
)

// String returns the upper-case name of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change.
type FileEvent struct {
	// Path is relative to the watched root, slash separated.
	Path string

	Operation Operation
	Timestamp time.Time
}

// Filter decides which paths are watched. *scanner.Scanner implements it.
type Filter interface {
	// ExcludesDir reports whether a relative directory is skipped.
	ExcludesDir(rel string) bool

	// Accepts reports whether an existing file would be ingested.
	Accepts(absPath string) bool
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long events are coalesced before a batch is
	// emitted. Default 200ms.
	Debounce time.Duration

	// PollInterval is the scan period in polling mode. Default 5s.
	PollInterval time.Duration

	// EventBufferSize bounds the number of undelivered batches.
	// Default 1000.
	EventBufferSize int

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:        200 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 1000,
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = d.EventBufferSize
	}
	return o
}
