package ui

import (
	"fmt"
	"io"
	"sync"
)

// StyledRenderer rewrites a single progress line in place and prints
// errors and the summary in color.
type StyledRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	inLine bool
}

// NewStyledRenderer creates a styled renderer.
func NewStyledRenderer(cfg Config) *StyledRenderer {
	return &StyledRenderer{
		out:    cfg.Output,
		styles: GetStyles(cfg.NoColor || DetectNoColor()),
	}
}

// UpdateProgress implements Renderer.
func (r *StyledRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := event.Message
	if msg == "" {
		msg = event.CurrentFile
	}
	stage := r.styles.Stage.Render(fmt.Sprintf("%-8s", event.Stage))
	if event.Total > 0 {
		counter := r.styles.Label.Render(fmt.Sprintf("%d/%d", event.Current, event.Total))
		_, _ = fmt.Fprintf(r.out, "\r\033[K%s %s %s", stage, counter, msg)
	} else {
		_, _ = fmt.Fprintf(r.out, "\r\033[K%s %s", stage, msg)
	}
	r.inLine = true
}

// AddError implements Renderer.
func (r *StyledRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()

	style, prefix := r.styles.Error, "✗"
	if event.IsWarn {
		style, prefix = r.styles.Warning, "!"
	}
	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "%s %s: %v\n", style.Render(prefix), event.File, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s %v\n", style.Render(prefix), event.Err)
	}
}

// Complete implements Renderer.
func (r *StyledRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()

	style := r.styles.Success
	if stats.Failed > 0 {
		style = r.styles.Warning
	}
	_, _ = fmt.Fprintln(r.out, style.Render("✓ ")+summary(stats))
}

func (r *StyledRenderer) breakLine() {
	if r.inLine {
		_, _ = fmt.Fprintln(r.out)
		r.inLine = false
	}
}
