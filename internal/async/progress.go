// Package async runs directory ingestion in the background while the index
// keeps serving lookups.
package async

import (
	"sync"
	"time"

	"github.com/Aman-CERP/otherwords/internal/ui"
)

// Status is the overall state of a background run.
type Status string

const (
	StatusIndexing Status = "indexing"
	StatusReady    Status = "ready"
	StatusError    Status = "error"
)

// ProgressSnapshot is a point-in-time copy of Progress.
type ProgressSnapshot struct {
	Status         string  `json:"status"`
	Stage          string  `json:"stage"`
	FilesTotal     int     `json:"files_total"`
	FilesProcessed int     `json:"files_processed"`
	FilesFailed    int     `json:"files_failed"`
	Signatures     int     `json:"signatures"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Progress tracks a background run. It implements ui.Renderer so it can be
// handed straight to Indexer.IngestDirectory.
type Progress struct {
	mu sync.RWMutex

	status     Status
	stage      ui.Stage
	total      int
	processed  int
	failed     int
	signatures int
	startTime  time.Time
	errMsg     string
}

var _ ui.Renderer = (*Progress)(nil)

// NewProgress returns a tracker in the indexing state.
func NewProgress() *Progress {
	return &Progress{
		status:    StatusIndexing,
		stage:     ui.StageScanning,
		startTime: time.Now(),
	}
}

// UpdateProgress implements ui.Renderer.
func (p *Progress) UpdateProgress(event ui.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = event.Stage
	if event.Total > 0 {
		p.total = event.Total
		p.processed = event.Current
	}
}

// AddError implements ui.Renderer. Warnings are not counted as failures.
func (p *Progress) AddError(event ui.ErrorEvent) {
	if event.IsWarn {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
}

// Complete implements ui.Renderer.
func (p *Progress) Complete(stats ui.CompletionStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = ui.StageComplete
	p.total = stats.Files
	p.processed = stats.Files
	p.signatures += stats.Signatures
}

// SetError marks the run as failed.
func (p *Progress) SetError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusError
	p.errMsg = message
}

// SetReady marks the run as finished.
func (p *Progress) SetReady() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusReady
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var pct float64
	if p.total > 0 {
		pct = float64(p.processed) / float64(p.total) * 100.0
	}

	return ProgressSnapshot{
		Status:         string(p.status),
		Stage:          p.stage.String(),
		FilesTotal:     p.total,
		FilesProcessed: p.processed,
		FilesFailed:    p.failed,
		Signatures:     p.signatures,
		ProgressPct:    pct,
		ElapsedSeconds: int(time.Since(p.startTime).Seconds()),
		ErrorMessage:   p.errMsg,
	}
}
