package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/store"
	"github.com/Aman-CERP/otherwords/internal/telemetry"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{" JSON ", FormatJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriter_StatusIcons(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing each kind of message
	w.Success("Index complete")
	w.Warning("2 files skipped")
	w.Statusf("📁", "Location: %s", "/tmp/x")
	w.Status("", "indented")

	// Then: each line carries its icon
	out := buf.String()
	assert.Contains(t, out, "✅ Index complete\n")
	assert.Contains(t, out, "⚠️  2 files skipped\n")
	assert.Contains(t, out, "📁 Location: /tmp/x\n")
	assert.Contains(t, out, "   indented\n")
}

func TestWriter_BufferHasNoColor(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	require.NoError(t, w.Hits("", "ELMOR", []store.Hit{{AnchorOffset: 3, Path: "a.txt"}}))

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestWriter_Hits_Text(t *testing.T) {
	// Given: two hits with offsets of different widths
	buf := &bytes.Buffer{}
	w := New(buf)
	hits := []store.Hit{{AnchorOffset: 0, Path: "a.txt"}, {AnchorOffset: 157, Path: "b.txt"}}

	// When: rendering them
	require.NoError(t, w.Hits("morel", "ELMOR", hits))

	// Then: offsets are right-aligned in insertion order
	assert.Equal(t, "🔍 ELMOR: 2 occurrences\n     0  a.txt\n   157  b.txt\n", buf.String())
}

func TestWriter_Hits_Empty(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Hits("morel", "ELMOR", nil))

	assert.Equal(t, "🔍 No anagrams found for signature ELMOR\n", buf.String())
}

func TestWriter_Hits_JSON(t *testing.T) {
	// Given: a JSON writer
	buf := &bytes.Buffer{}
	w := NewWithFormat(buf, FormatJSON)

	// When: rendering no hits
	require.NoError(t, w.Hits("morel", "ELMOR", nil))

	// Then: hits is an empty array, not null
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "morel", got["query"])
	assert.Equal(t, "ELMOR", got["signature"])
	assert.Equal(t, []any{}, got["hits"])
}

func TestWriter_Signature(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Signature("Lorem", "ELMOR"))

	assert.Equal(t, "ELMOR\n", buf.String())
}

func TestWriter_Sources(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	require.NoError(t, w.Sources([]store.SourceRecord{{ID: 1, Path: "a.txt", IndexedAt: at, Signatures: 42}}))

	assert.Equal(t, "      42  2026-03-01 12:00:00  a.txt\n", buf.String())
}

func TestWriter_Sources_EmptyJSON(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, NewWithFormat(buf, FormatJSON).Sources(nil))

	assert.JSONEq(t, `{"sources":[]}`, buf.String())
}

func TestWriter_Stats(t *testing.T) {
	// Given: a status with lookups recorded
	buf := &bytes.Buffer{}
	st := &index.Status{
		Index:    store.Stats{Backend: "sqlite", Sources: 2, Entries: 10, DistinctSignatures: 7},
		Pipeline: index.PipelineInfo{MaxLen: 144, MinLen: 40, Alphabet: "ABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		Queries:  telemetry.Snapshot{TotalLookups: 4, ZeroResultLookups: 1, CacheHits: 2},
	}

	// When: rendering it as text
	require.NoError(t, New(buf).Stats(st))

	// Then: every row is present
	out := buf.String()
	assert.Contains(t, out, "Backend:")
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "Distinct signatures: 7")
	assert.Contains(t, out, "max_len 144, min_len 40")
	assert.Contains(t, out, "4 (25.0% without hits, 2 cached)")
}

func TestWriter_Ingest(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	require.NoError(t, w.Ingest(&index.IngestResult{Path: "a.txt", Signatures: 12, Duration: 1500 * time.Microsecond}))
	require.NoError(t, w.Ingest(&index.IngestResult{Path: "a.txt", Skipped: true}))

	assert.Contains(t, buf.String(), "✅ Indexed a.txt (12 signatures in 2ms)")
	assert.Contains(t, buf.String(), "a.txt already indexed")
}

func TestWriter_Directory_JSON(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, NewWithFormat(buf, FormatJSON).Directory(&index.DirectoryResult{Root: "docs", Files: 3, Indexed: 2, Failed: 1}))

	var got index.DirectoryResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "docs", got.Root)
	assert.Equal(t, 2, got.Indexed)
}
