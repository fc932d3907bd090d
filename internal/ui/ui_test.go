package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStage_Names(t *testing.T) {
	assert.Equal(t, "Scanning", StageScanning.String())
	assert.Equal(t, "INDEX", StageIndexing.Icon())
	assert.Equal(t, "DONE", StageComplete.Icon())
	assert.Equal(t, "Unknown", Stage(99).String())
}

func TestNewRenderer_NonTTYIsPlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(Config{Output: &buf})

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
	assert.False(t, IsTTY(&buf))
}

func TestPlainRenderer_Lines(t *testing.T) {
	// Given: a plain renderer
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})

	// When: reporting a run
	r.UpdateProgress(ProgressEvent{Stage: StageScanning, Message: "Scanning corpus"})
	r.UpdateProgress(ProgressEvent{Stage: StageIndexing, Current: 1, Total: 2, CurrentFile: "a.txt"})
	r.AddError(ErrorEvent{File: "b.txt", Err: errors.New("boom")})
	r.AddError(ErrorEvent{Err: errors.New("meh"), IsWarn: true})
	r.Complete(CompletionStats{Indexed: 1, Skipped: 0, Failed: 1, Signatures: 9, Duration: 1200 * time.Millisecond})

	// Then: each event is one line
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"[SCAN] Scanning corpus",
		"[INDEX] 1/2 - a.txt",
		"ERROR: b.txt: boom",
		"WARN: meh",
		"Complete: 1 indexed, 0 skipped, 9 signatures in 1.2s (1 failed)",
	}, lines)
}

func TestStyledRenderer_NoColor(t *testing.T) {
	var buf bytes.Buffer
	r := NewStyledRenderer(Config{Output: &buf, NoColor: true})

	r.UpdateProgress(ProgressEvent{Stage: StageIndexing, Current: 1, Total: 1, CurrentFile: "a.txt"})
	r.Complete(CompletionStats{Indexed: 1, Signatures: 3})

	out := buf.String()
	assert.Contains(t, out, "1/1 a.txt")
	assert.Contains(t, out, "\n✓ Complete: 1 indexed, 0 skipped, 3 signatures")
}

func TestDiscard(t *testing.T) {
	Discard.UpdateProgress(ProgressEvent{})
	Discard.AddError(ErrorEvent{})
	Discard.Complete(CompletionStats{})
}
