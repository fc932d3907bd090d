package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/otherwords/internal/async"
	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/index"
	"github.com/Aman-CERP/otherwords/internal/store"
	"github.com/Aman-CERP/otherwords/internal/telemetry"
	"github.com/Aman-CERP/otherwords/pkg/version"
)

// QueryMetricsURI identifies the query telemetry resource.
const QueryMetricsURI = "otherwords://query_metrics"

// Querier is the read side of *index.Indexer.
type Querier interface {
	Find(ctx context.Context, phrase string) (*index.FindResult, error)
	Lookup(ctx context.Context, signature string) ([]store.Hit, error)
	CheckSignature(signature string) error
	Sources(ctx context.Context) ([]store.SourceRecord, error)
	Stats(ctx context.Context) (*index.Status, error)
}

// ProgressSource reports a background ingestion; *async.Progress
// satisfies it.
type ProgressSource interface {
	Snapshot() async.ProgressSnapshot
}

// Server answers anagram queries over MCP.
type Server struct {
	mcp     *mcp.Server
	index   Querier
	metrics *telemetry.Metrics
	logger  *slog.Logger

	mu       sync.RWMutex
	progress ProgressSource
}

// NewServer creates a server and registers its tools. With metrics set,
// a query telemetry resource is registered as well.
func NewServer(q Querier, metrics *telemetry.Metrics, logger *slog.Logger) (*Server, error) {
	if q == nil {
		return nil, errors.New("index is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mcp:     mcp.NewServer(&mcp.Implementation{Name: "otherwords", Version: version.Version}, nil),
		index:   q,
		metrics: metrics,
		logger:  logger,
	}
	s.registerTools()
	if metrics != nil {
		s.registerQueryMetricsResource()
	}
	return s, nil
}

// SetProgress attaches a background ingestion to index_status.
func (s *Server) SetProgress(p ProgressSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_anagrams",
		Description: "Find every place in the indexed texts where a run of consecutive words uses exactly the same letters as the phrase. Returns source paths and character offsets.",
	}, s.findHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "lookup_signature",
		Description: "Look up a letter-count signature directly. Letters appear in alphabetical order, each followed by its count when greater than one, e.g. ELMOR for 'morel'.",
	}, s.lookupHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_sources",
		Description: "List the texts that have been indexed.",
	}, s.listSourcesHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report index size, window settings and query statistics.",
	}, s.indexStatusHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", 4))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func (s *Server) findHandler(ctx context.Context, _ *mcp.CallToolRequest, in FindInput) (*mcp.CallToolResult, HitsOutput, error) {
	log := s.logger.With(slog.String("request_id", uuid.NewString()), slog.String("tool", "find_anagrams"))
	start := time.Now()

	res, err := s.index.Find(ctx, in.Phrase)
	if err != nil {
		log.Warn("mcp_tool_failed", slog.String("error", err.Error()))
		return nil, HitsOutput{}, MapError(err)
	}

	out := hitsOutput(res.Signature, res.Hits, in.Limit)
	log.Info("mcp_tool_complete",
		slog.String("signature", out.Signature),
		slog.Int("hits", out.Total),
		slog.Duration("duration", time.Since(start)))
	return textResult(FormatHits(in.Phrase, out)), out, nil
}

func (s *Server) lookupHandler(ctx context.Context, _ *mcp.CallToolRequest, in LookupInput) (*mcp.CallToolResult, HitsOutput, error) {
	log := s.logger.With(slog.String("request_id", uuid.NewString()), slog.String("tool", "lookup_signature"))
	start := time.Now()

	hits, err := s.index.Lookup(ctx, in.Signature)
	if err != nil {
		log.Warn("mcp_tool_failed", slog.String("error", err.Error()))
		return nil, HitsOutput{}, MapError(err)
	}

	out := hitsOutput(normalizeSignature(in.Signature), hits, in.Limit)
	if err := s.index.CheckSignature(in.Signature); err != nil {
		out.Note = owerrors.FormatInline(err)
	}
	log.Info("mcp_tool_complete",
		slog.String("signature", out.Signature),
		slog.Int("hits", out.Total),
		slog.Duration("duration", time.Since(start)))
	return textResult(FormatHits(in.Signature, out)), out, nil
}

func (s *Server) listSourcesHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ListSourcesInput) (*mcp.CallToolResult, ListSourcesOutput, error) {
	records, err := s.index.Sources(ctx)
	if err != nil {
		s.logger.Warn("mcp_tool_failed", slog.String("tool", "list_sources"), slog.String("error", err.Error()))
		return nil, ListSourcesOutput{}, MapError(err)
	}
	out := sourcesOutput(records)
	return textResult(FormatSources(out)), out, nil
}

func (s *Server) indexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (*mcp.CallToolResult, *IndexStatusOutput, error) {
	st, err := s.index.Stats(ctx)
	if err != nil {
		s.logger.Warn("mcp_tool_failed", slog.String("tool", "index_status"), slog.String("error", err.Error()))
		return nil, nil, MapError(err)
	}
	s.mu.RLock()
	progress := s.progress
	s.mu.RUnlock()

	out := statusOutput(st, progress)
	return textResult(FormatStatus(out)), out, nil
}

func (s *Server) registerQueryMetricsResource() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        "query_metrics",
		URI:         QueryMetricsURI,
		Description: "Lookup counts, latency distribution and recent lookups without hits",
		MIMEType:    "application/json",
	}, func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		content, err := json.MarshalIndent(s.metrics.Snapshot(), "", "  ")
		if err != nil {
			return nil, MapError(err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      QueryMetricsURI,
				MIMEType: "application/json",
				Text:     string(content),
			}},
		}, nil
	})
}

// Serve runs the server over transport until ctx is done. Only "stdio"
// is supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	if transport != "stdio" {
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}

	s.logger.Info("mcp_server_started", slog.String("transport", transport))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_failed", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}
