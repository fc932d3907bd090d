package mcp

import (
	"fmt"
	"strings"
)

// FormatHits renders a hit list as markdown.
func FormatHits(query string, out HitsOutput) string {
	if out.Total == 0 {
		msg := fmt.Sprintf("No anagrams found for \"%s\" (signature `%s`)", query, out.Signature)
		if out.Note != "" {
			msg += "\n\n" + out.Note
		}
		return msg
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Anagrams of \"%s\"\n\n", query)
	fmt.Fprintf(&sb, "Signature `%s`: %d occurrence", out.Signature, out.Total)
	if out.Total != 1 {
		sb.WriteString("s")
	}
	if out.Truncated {
		fmt.Fprintf(&sb, " (showing first %d)", len(out.Hits))
	}
	sb.WriteString("\n\n")

	for i, h := range out.Hits {
		fmt.Fprintf(&sb, "%d. `%s` at offset %d\n", i+1, h.Path, h.AnchorOffset)
	}
	return sb.String()
}

// FormatSources renders the source list as markdown.
func FormatSources(out ListSourcesOutput) string {
	if len(out.Sources) == 0 {
		return "No sources have been indexed."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Indexed sources (%d)\n\n", len(out.Sources))
	sb.WriteString("| Path | Signatures | Indexed |\n|---|---|---|\n")
	for _, s := range out.Sources {
		fmt.Fprintf(&sb, "| `%s` | %d | %s |\n", s.Path, s.Signatures, s.IndexedAt)
	}
	return sb.String()
}

// FormatStatus renders index status as markdown.
func FormatStatus(st *IndexStatusOutput) string {
	var sb strings.Builder
	sb.WriteString("## Index status\n\n")
	fmt.Fprintf(&sb, "- Backend: %s\n", st.Backend)
	fmt.Fprintf(&sb, "- Sources: %d\n", st.Sources)
	fmt.Fprintf(&sb, "- Entries: %d\n", st.Entries)
	fmt.Fprintf(&sb, "- Distinct signatures: %d\n", st.DistinctSignatures)
	fmt.Fprintf(&sb, "- Window: max_len %d, min_len %d over %s\n", st.MaxLen, st.MinLen, st.Alphabet)
	if st.TotalLookups > 0 {
		fmt.Fprintf(&sb, "- Lookups: %d (%.1f%% without hits, %d cached)\n",
			st.TotalLookups, st.ZeroResultPct, st.CacheHits)
	}
	switch st.IngestStatus {
	case "":
	case "error":
		fmt.Fprintf(&sb, "- Background ingestion failed: %s\n", st.IngestError)
	default:
		fmt.Fprintf(&sb, "- Background ingestion %s: %d of %d files (%.0f%%)\n",
			st.IngestStatus, st.FilesProcessed, st.FilesTotal, st.IngestPct)
	}
	return sb.String()
}
