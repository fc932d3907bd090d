package mcp

import (
	"strings"
	"time"

	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/store"
)

// Hit limits.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// FindInput is the input of find_anagrams.
type FindInput struct {
	Phrase string `json:"phrase" jsonschema:"the phrase whose anagrams to find; case, spacing and punctuation are ignored"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of hits, default 50, max 1000"`
}

// LookupInput is the input of lookup_signature.
type LookupInput struct {
	Signature string `json:"signature" jsonschema:"a letter-count signature such as ELMOR or ADE2I2L2M3O3PR2S2T2U"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of hits, default 50, max 1000"`
}

// HitsOutput is the output of find_anagrams and lookup_signature.
type HitsOutput struct {
	Signature string      `json:"signature" jsonschema:"the signature that was looked up"`
	Total     int         `json:"total" jsonschema:"number of occurrences in the index"`
	Truncated bool        `json:"truncated,omitempty" jsonschema:"true if hits were cut to the limit"`
	Hits      []store.Hit `json:"hits" jsonschema:"occurrences in insertion order"`
	Note      string      `json:"note,omitempty" jsonschema:"why a signature cannot match, if it is not canonical"`
}

// ListSourcesInput is the input of list_sources (no parameters).
type ListSourcesInput struct{}

// ListSourcesOutput is the output of list_sources.
type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources" jsonschema:"ingested sources in registration order"`
}

// SourceOutput describes one ingested source.
type SourceOutput struct {
	Path       string `json:"path" jsonschema:"source path as it was ingested"`
	Signatures int64  `json:"signatures" jsonschema:"signatures committed for the source"`
	IndexedAt  string `json:"indexed_at" jsonschema:"commit time, RFC 3339"`
}

// IndexStatusInput is the input of index_status (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput is the output of index_status.
type IndexStatusOutput struct {
	Backend            string  `json:"backend" jsonschema:"storage backend"`
	Sources            int64   `json:"sources" jsonschema:"number of ingested sources"`
	Entries            int64   `json:"entries" jsonschema:"number of stored signature occurrences"`
	DistinctSignatures int64   `json:"distinct_signatures" jsonschema:"number of distinct signatures"`
	MaxLen             int     `json:"max_len" jsonschema:"window letter budget"`
	MinLen             int     `json:"min_len" jsonschema:"minimum letters for a signature"`
	Alphabet           string  `json:"alphabet" jsonschema:"letters that count toward signatures"`
	TotalLookups       int64   `json:"total_lookups" jsonschema:"lookups served since start"`
	ZeroResultPct      float64 `json:"zero_result_pct" jsonschema:"percentage of lookups without hits"`
	CacheHits          int64   `json:"cache_hits" jsonschema:"lookups answered from cache"`

	// Set only while a background ingestion is attached.
	IngestStatus   string  `json:"ingest_status,omitempty" jsonschema:"background ingestion state: indexing, ready or error"`
	FilesTotal     int     `json:"files_total,omitempty" jsonschema:"files found by the background ingestion"`
	FilesProcessed int     `json:"files_processed,omitempty" jsonschema:"files the background ingestion has handled"`
	IngestPct      float64 `json:"ingest_pct,omitempty" jsonschema:"background ingestion progress percentage"`
	IngestError    string  `json:"ingest_error,omitempty" jsonschema:"why the background ingestion failed"`
}

func sourcesOutput(records []store.SourceRecord) ListSourcesOutput {
	out := ListSourcesOutput{Sources: make([]SourceOutput, 0, len(records))}
	for _, r := range records {
		out.Sources = append(out.Sources, SourceOutput{
			Path:       r.Path,
			Signatures: r.Signatures,
			IndexedAt:  r.IndexedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func statusOutput(st *index.Status, progress ProgressSource) *IndexStatusOutput {
	out := &IndexStatusOutput{
		Backend:            st.Index.Backend,
		Sources:            st.Index.Sources,
		Entries:            st.Index.Entries,
		DistinctSignatures: st.Index.DistinctSignatures,
		MaxLen:             st.Pipeline.MaxLen,
		MinLen:             st.Pipeline.MinLen,
		Alphabet:           st.Pipeline.Alphabet,
		TotalLookups:       st.Queries.TotalLookups,
		ZeroResultPct:      st.Queries.ZeroResultPercentage(),
		CacheHits:          st.Queries.CacheHits,
	}
	if progress != nil {
		snap := progress.Snapshot()
		out.IngestStatus = snap.Status
		out.FilesTotal = snap.FilesTotal
		out.FilesProcessed = snap.FilesProcessed
		out.IngestPct = snap.ProgressPct
		out.IngestError = snap.ErrorMessage
	}
	return out
}

// clampLimit returns def for non-positive values and caps at max.
func clampLimit(limit, def, max int) int {
	switch {
	case limit <= 0:
		return def
	case limit > max:
		return max
	default:
		return limit
	}
}

func hitsOutput(sig string, hits []store.Hit, limit int) HitsOutput {
	limit = clampLimit(limit, DefaultLimit, MaxLimit)
	out := HitsOutput{Signature: sig, Total: len(hits), Hits: hits}
	if len(hits) > limit {
		out.Hits = hits[:limit]
		out.Truncated = true
	}
	if out.Hits == nil {
		out.Hits = []store.Hit{}
	}
	return out
}

func normalizeSignature(sig string) string {
	return strings.ToUpper(strings.TrimSpace(sig))
}
