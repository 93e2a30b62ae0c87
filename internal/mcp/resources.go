package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// QueryMetricsOutput is the JSON payload of the query_metrics resource.
type QueryMetricsOutput struct {
	Summary             QueryMetricsSummary `json:"summary"`
	LatencyDistribution map[string]int64    `json:"latency_distribution"`
	RecentQueries       []RecentQuery       `json:"recent_queries"`
}

// QueryMetricsSummary aggregates session-level counters.
type QueryMetricsSummary struct {
	TotalQueries      int64   `json:"total_queries"`
	TimePeriod        string  `json:"time_period"`
	ZeroResultPct     float64 `json:"zero_result_pct"`
	ExactRepeatRate   float64 `json:"exact_repeat_rate"`
	MaxRecursionLevel int     `json:"max_recursion_level"`
	FailedRetrievals  int64   `json:"failed_retrievals"`
}

// RecentQuery is one resolved query in the recent-event window.
type RecentQuery struct {
	IndexID     string `json:"index_id"`
	Query       string `json:"query"`
	Level       int    `json:"level"`
	SourceCount int    `json:"source_count"`
	LatencyMS   int64  `json:"latency_ms"`
}

// registerQueryMetricsResource registers the query_metrics resource.
func (s *Server) registerQueryMetricsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "query_metrics",
			URI:         "graphquery://query_metrics",
			Description: "Query resolution telemetry: volume, recursion depth, latency distribution",
			MIMEType:    "application/json",
		},
		s.makeQueryMetricsHandler(),
	)
}

// makeQueryMetricsHandler creates a handler for the query_metrics resource.
func (s *Server) makeQueryMetricsHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		s.mu.RLock()
		metrics := s.metrics
		s.mu.RUnlock()

		if metrics == nil {
			return nil, NewInvalidParamsError("query metrics not available")
		}

		snapshot := metrics.Snapshot()

		output := QueryMetricsOutput{
			Summary: QueryMetricsSummary{
				TotalQueries:      snapshot.TotalQueries,
				TimePeriod:        "session",
				ZeroResultPct:     snapshot.ZeroResultPercentage(),
				ExactRepeatRate:   snapshot.ExactRepeatRate,
				MaxRecursionLevel: snapshot.MaxRecursionLevel,
				FailedRetrievals:  snapshot.RetrievalsFailed,
			},
			LatencyDistribution: make(map[string]int64, len(snapshot.LatencyHistogram)),
			RecentQueries:       make([]RecentQuery, 0, len(snapshot.RecentEvents)),
		}
		for bucket, count := range snapshot.LatencyHistogram {
			output.LatencyDistribution[string(bucket)] = count
		}
		for _, ev := range snapshot.RecentEvents {
			output.RecentQueries = append(output.RecentQueries, RecentQuery{
				IndexID:     ev.IndexID,
				Query:       ev.Query,
				Level:       ev.Level,
				SourceCount: ev.SourceCount,
				LatencyMS:   ev.Latency.Milliseconds(),
			})
		}

		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return nil, MapError(err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      req.Params.URI,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}
