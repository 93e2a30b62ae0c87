package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/graphquery/internal/compose"
	"github.com/Aman-CERP/graphquery/internal/config"
	gqerrors "github.com/Aman-CERP/graphquery/internal/errors"
	"github.com/Aman-CERP/graphquery/internal/graph"
	"github.com/Aman-CERP/graphquery/internal/schema"
	"github.com/Aman-CERP/graphquery/internal/telemetry"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	def := &config.Definition{
		Root: "docs",
		Indices: []config.IndexDefinition{
			{
				ID:   "docs",
				Kind: "vector",
				Documents: []config.DocumentDefinition{
					{ID: "d1", Text: "the quick brown fox"},
					{ID: "r1", Ref: "notes", Summary: "personal notes"},
				},
			},
			{
				ID:   "notes",
				Kind: "keyword",
				Documents: []config.DocumentDefinition{
					{ID: "n1", Text: "remember to buy milk"},
				},
			},
		},
	}

	cfg := config.NewConfig()
	g, err := graph.Build(context.Background(), def, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	engine, err := compose.NewEngine(g)
	require.NoError(t, err)

	s, err := NewServer(engine, g, cfg)
	require.NoError(t, err)
	return s
}

func TestNewServer(t *testing.T) {
	t.Run("nil engine", func(t *testing.T) {
		_, err := NewServer(nil, nil, nil)
		require.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		s := testServer(t)
		name, ver := s.Info()
		assert.Equal(t, "graphquery", name)
		assert.NotEmpty(t, ver)
		assert.NotNil(t, s.MCPServer())
	})
}

func TestListTools(t *testing.T) {
	s := testServer(t)
	tools := s.ListTools()
	require.Len(t, tools, 2)
	assert.Equal(t, "graph_query", tools[0].Name)
	assert.Equal(t, "graph_info", tools[1].Name)
}

func TestCallTool(t *testing.T) {
	s := testServer(t)
	ctx := context.Background()

	t.Run("graph_info", func(t *testing.T) {
		result, err := s.CallTool(ctx, "graph_info", nil)
		require.NoError(t, err)

		info, ok := result.(*GraphInfoOutput)
		require.True(t, ok)
		assert.Equal(t, "docs", info.Root)
		require.Len(t, info.Indices, 2)
		assert.Equal(t, "docs", info.Indices[0].ID)
		assert.Equal(t, "vector", info.Indices[0].Kind)
		assert.Equal(t, "keyword", info.Indices[1].Kind)
	})

	t.Run("graph_query", func(t *testing.T) {
		result, err := s.CallTool(ctx, "graph_query", map[string]any{"query": "remember milk"})
		require.NoError(t, err)

		out, ok := result.(*QueryOutput)
		require.True(t, ok)
		assert.NotEmpty(t, out.Sources)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := s.CallTool(ctx, "graph_query", map[string]any{"query": "   "})
		require.Error(t, err)

		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := s.CallTool(ctx, "grep", nil)
		require.Error(t, err)

		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrCodeMethodNotFound, mcpErr.Code)
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"cycle", gqerrors.CycleError("a"), ErrCodeCycle},
		{"unknown index", gqerrors.UnknownIndexError("ghost"), ErrCodeUnknownIndex},
		{"invalid input", gqerrors.ValidationError("bad", nil), ErrCodeInvalidParams},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"generic", errors.New("boom"), ErrCodeInternalError},
		{"already mapped", NewInvalidParamsError("x"), ErrCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(tt.err)
			require.NotNil(t, mapped)
			assert.Equal(t, tt.wantCode, mapped.Code)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, MapError(nil))
	})
}

func TestQueryMetricsResource(t *testing.T) {
	s := testServer(t)

	metrics := telemetry.NewQueryMetrics(0)
	metrics.OnQueryStart("docs", "q", 0)
	metrics.OnQueryEnd("docs", "q", 0, &schema.Response{Text: "a"}, 5*time.Millisecond)
	s.SetMetrics(metrics)

	handler := s.makeQueryMetricsHandler()
	result, err := handler(context.Background(), &mcpsdk.ReadResourceRequest{
		Params: &mcpsdk.ReadResourceParams{URI: "graphquery://query_metrics"},
	})
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, `"total_queries": 1`)
}

func TestQueryMetricsResourceUnavailable(t *testing.T) {
	s := testServer(t)

	handler := s.makeQueryMetricsHandler()
	_, err := handler(context.Background(), &mcpsdk.ReadResourceRequest{
		Params: &mcpsdk.ReadResourceParams{URI: "graphquery://query_metrics"},
	})
	require.Error(t, err)
}
