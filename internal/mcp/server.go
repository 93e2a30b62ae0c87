package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/graphquery/internal/compose"
	"github.com/Aman-CERP/graphquery/internal/config"
	"github.com/Aman-CERP/graphquery/internal/graph"
	"github.com/Aman-CERP/graphquery/internal/schema"
	"github.com/Aman-CERP/graphquery/internal/telemetry"
	"github.com/Aman-CERP/graphquery/pkg/version"
)

// Server is the MCP server for graphquery. It exposes the graph query
// coordinator to AI clients over stdio.
type Server struct {
	mcp    *mcp.Server
	engine *compose.Engine
	graph  *graph.Graph
	config *config.Config
	logger *slog.Logger

	// Query telemetry (optional, set via SetMetrics)
	metrics *telemetry.QueryMetrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// QueryInput defines the input schema for the graph_query tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the natural-language query to resolve against the graph"`
}

// QueryOutput defines the output schema for the graph_query tool.
type QueryOutput struct {
	Answer  string         `json:"answer" jsonschema:"synthesized answer text"`
	Sources []SourceOutput `json:"sources" jsonschema:"source fragments that contributed to the answer"`
}

// SourceOutput is a single source fragment in a query response.
type SourceOutput struct {
	Content string  `json:"content" jsonschema:"fragment text"`
	Score   float64 `json:"score" jsonschema:"relevance score"`
	Kind    string  `json:"kind" jsonschema:"fragment kind: text or index_ref"`
}

// GraphInfoInput defines the (empty) input schema for the graph_info tool.
type GraphInfoInput struct{}

// GraphInfoOutput defines the output schema for the graph_info tool.
type GraphInfoOutput struct {
	Root    string      `json:"root" jsonschema:"root index identifier"`
	Indices []IndexInfo `json:"indices" jsonschema:"all indices in the graph"`
}

// IndexInfo describes one sub-index.
type IndexInfo struct {
	ID   string `json:"id" jsonschema:"index identifier"`
	Kind string `json:"kind" jsonschema:"index kind: vector or keyword"`
}

// NewServer creates a new MCP server over a built graph and its coordinator.
func NewServer(engine *compose.Engine, g *graph.Graph, cfg *config.Config) (*Server, error) {
	if engine == nil {
		return nil, errors.New("query engine is required")
	}
	if g == nil {
		return nil, errors.New("graph is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		engine: engine,
		graph:  g,
		config: cfg,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "graphquery",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// SetMetrics sets the query metrics collector. When set, a query_metrics
// resource is registered.
func (s *Server) SetMetrics(m *telemetry.QueryMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m

	if m != nil {
		s.registerQueryMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "graphquery", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "graph_query",
			Description: "Query the composed index graph. The query is routed through the root index and recursively expanded across referenced sub-indices, returning a synthesized answer with source fragments.",
		},
		{
			Name:        "graph_info",
			Description: "Describe the composed graph: the root index and every sub-index with its kind. Use this to understand what the graph covers before querying.",
		},
	}
}

// CallTool invokes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "graph_query":
		query, _ := args["query"].(string)
		return s.handleQuery(ctx, query)
	case "graph_info":
		return s.handleGraphInfo(), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// handleQuery resolves a query through the coordinator.
func (s *Server) handleQuery(ctx context.Context, query string) (*QueryOutput, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}

	start := time.Now()
	requestID := generateRequestID()

	s.logger.Info("graph_query started",
		slog.String("request_id", requestID),
		slog.String("query", query))

	resp, err := s.engine.Query(ctx, query)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("graph_query failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("graph_query completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("source_count", len(resp.Sources)))

	return toQueryOutput(resp), nil
}

// handleGraphInfo describes the graph topology.
func (s *Server) handleGraphInfo() *GraphInfoOutput {
	out := &GraphInfoOutput{
		Root: s.graph.RootID(),
	}
	for _, id := range s.graph.IDs() {
		idx, err := s.graph.GetIndex(id)
		if err != nil {
			continue
		}
		out.Indices = append(out.Indices, IndexInfo{
			ID:   id,
			Kind: string(idx.Kind()),
		})
	}
	return out
}

// toQueryOutput converts a response to the tool output schema.
func toQueryOutput(resp *schema.Response) *QueryOutput {
	out := &QueryOutput{
		Answer:  resp.Text,
		Sources: make([]SourceOutput, 0, len(resp.Sources)),
	}
	for _, sf := range resp.Sources {
		out.Sources = append(out.Sources, SourceOutput{
			Content: sf.Fragment.Content(),
			Score:   sf.Score,
			Kind:    string(sf.Fragment.Kind()),
		})
	}
	return out
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	for _, info := range s.ListTools() {
		info := info
		switch info.Name {
		case "graph_query":
			mcp.AddTool(s.mcp, &mcp.Tool{
				Name:        info.Name,
				Description: info.Description,
			}, s.mcpQueryHandler)
		case "graph_info":
			mcp.AddTool(s.mcp, &mcp.Tool{
				Name:        info.Name,
				Description: info.Description,
			}, s.mcpGraphInfoHandler)
		}
		s.logger.Debug("Registered tool", slog.String("name", info.Name))
	}

	s.logger.Info("MCP tools registered", slog.Int("count", len(s.ListTools())))
}

// mcpQueryHandler is the MCP SDK handler for the graph_query tool.
func (s *Server) mcpQueryHandler(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (
	*mcp.CallToolResult,
	*QueryOutput,
	error,
) {
	output, err := s.handleQuery(ctx, input.Query)
	if err != nil {
		return nil, nil, err
	}
	return nil, output, nil
}

// mcpGraphInfoHandler is the MCP SDK handler for the graph_info tool.
func (s *Server) mcpGraphInfoHandler(_ context.Context, _ *mcp.CallToolRequest, _ GraphInfoInput) (
	*mcp.CallToolResult,
	*GraphInfoOutput,
	error,
) {
	return nil, s.handleGraphInfo(), nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	// The MCP server stops when its context is canceled.
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
