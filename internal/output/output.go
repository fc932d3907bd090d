// Package output renders command results for the CLI as text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/store"
	"github.com/Aman-CERP/otherwords/internal/ui"
)

// Format selects how results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// Writer prints command results.
type Writer struct {
	out      io.Writer
	format   Format
	useColor bool

	styles ui.Styles
}

// New creates a text Writer. Color is enabled only on a terminal without
// NO_COLOR set.
func New(out io.Writer) *Writer {
	return NewWithFormat(out, FormatText)
}

// NewWithFormat creates a Writer for the given format.
func NewWithFormat(out io.Writer, format Format) *Writer {
	w := &Writer{
		out:      out,
		format:   format,
		useColor: ui.IsTTY(out) && !ui.DetectNoColor(),
	}
	w.styles = ui.GetStyles(!w.useColor)
	return w
}

// JSONMode reports whether results are written as JSON.
func (w *Writer) JSONMode() bool { return w.format == FormatJSON }

// Status prints a message prefixed by icon.
// Write errors are ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf is Status with formatting.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints msg with a check mark.
func (w *Writer) Success(msg string) { w.Status("✅", msg) }

// Successf is Success with formatting.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints msg with a warning sign.
func (w *Writer) Warning(msg string) { w.Status("⚠️ ", msg) }

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// HitsResult is the JSON shape of find and lookup.
type HitsResult struct {
	Query     string      `json:"query,omitempty"`
	Signature string      `json:"signature"`
	Hits      []store.Hit `json:"hits"`
}

// Hits prints lookup results. query is empty for a direct signature lookup.
func (w *Writer) Hits(query, signature string, hits []store.Hit) error {
	if hits == nil {
		hits = []store.Hit{}
	}
	if w.JSONMode() {
		return w.JSON(HitsResult{Query: query, Signature: signature, Hits: hits})
	}

	if len(hits) == 0 {
		w.Statusf("🔍", "No anagrams found for signature %s", w.styles.Header.Render(signature))
		return nil
	}

	noun := "occurrences"
	if len(hits) == 1 {
		noun = "occurrence"
	}
	w.Statusf("🔍", "%s: %d %s", w.styles.Header.Render(signature), len(hits), noun)

	width := 0
	for _, h := range hits {
		if n := len(fmt.Sprint(h.AnchorOffset)); n > width {
			width = n
		}
	}
	for _, h := range hits {
		_, _ = fmt.Fprintf(w.out, "   %s  %s\n", w.styles.Dim.Render(fmt.Sprintf("%*d", width, h.AnchorOffset)), h.Path)
	}
	return nil
}

// Signature prints the signature of a phrase.
func (w *Writer) Signature(phrase, signature string) error {
	if w.JSONMode() {
		return w.JSON(HitsResult{Query: phrase, Signature: signature, Hits: nil})
	}
	_, _ = fmt.Fprintln(w.out, signature)
	return nil
}

// Sources prints the ingested sources.
func (w *Writer) Sources(records []store.SourceRecord) error {
	if records == nil {
		records = []store.SourceRecord{}
	}
	if w.JSONMode() {
		return w.JSON(struct {
			Sources []store.SourceRecord `json:"sources"`
		}{records})
	}

	if len(records) == 0 {
		w.Status("📭", "No sources have been indexed")
		return nil
	}
	for _, r := range records {
		_, _ = fmt.Fprintf(w.out, "%8d  %s  %s\n", r.Signatures,
			w.styles.Dim.Render(r.IndexedAt.Local().Format(time.DateTime)), r.Path)
	}
	return nil
}

// Stats prints index statistics.
func (w *Writer) Stats(st *index.Status) error {
	if w.JSONMode() {
		return w.JSON(st)
	}

	rows := [][2]string{
		{"Backend", st.Index.Backend},
		{"Sources", fmt.Sprint(st.Index.Sources)},
		{"Entries", fmt.Sprint(st.Index.Entries)},
		{"Distinct signatures", fmt.Sprint(st.Index.DistinctSignatures)},
		{"Window", fmt.Sprintf("max_len %d, min_len %d", st.Pipeline.MaxLen, st.Pipeline.MinLen)},
		{"Alphabet", st.Pipeline.Alphabet},
	}
	if q := st.Queries; q.TotalLookups > 0 {
		rows = append(rows, [2]string{"Lookups", fmt.Sprintf("%d (%.1f%% without hits, %d cached)",
			q.TotalLookups, q.ZeroResultPercentage(), q.CacheHits)})
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(w.out, "%-20s %s\n", w.styles.Label.Render(r[0]+":"), r[1])
	}
	return nil
}

// Ingest summarizes a single-source ingestion.
func (w *Writer) Ingest(r *index.IngestResult) error {
	if w.JSONMode() {
		return w.JSON(r)
	}
	if r.Skipped {
		w.Statusf("⏭️ ", "%s already indexed", r.Path)
		return nil
	}
	w.Successf("Indexed %s (%d signatures in %s)", r.Path, r.Signatures, r.Duration.Round(time.Millisecond))
	return nil
}

// Directory summarizes a directory run.
func (w *Writer) Directory(r *index.DirectoryResult) error {
	if w.JSONMode() {
		return w.JSON(r)
	}
	w.Successf("%s: %d indexed, %d skipped, %d failed (%d signatures)",
		r.Root, r.Indexed, r.Skipped, r.Failed, r.Signatures)
	return nil
}
