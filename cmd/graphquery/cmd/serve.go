package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/graphquery/internal/compose"
	"github.com/Aman-CERP/graphquery/internal/config"
	"github.com/Aman-CERP/graphquery/internal/graph"
	"github.com/Aman-CERP/graphquery/internal/mcp"
	"github.com/Aman-CERP/graphquery/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var graphPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a graph over MCP stdio",
		Long: `Build the graph from its definition and serve it over the Model
Context Protocol on stdio. AI clients get a graph_query tool, a
graph_info tool, and a query_metrics resource.

Example:
  graphquery serve --graph graph.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), graphPath)
		},
	}

	cmd.Flags().StringVarP(&graphPath, "graph", "g", "graph.yaml", "Path to the graph definition file")

	return cmd
}

func runServe(ctx context.Context, graphPath string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	def, err := config.LoadDefinition(graphPath)
	if err != nil {
		return err
	}

	var metrics *telemetry.QueryMetrics
	var graphOpts []graph.Option
	if cfg.Query.MetricsHistory > 0 {
		metrics = telemetry.NewQueryMetrics(cfg.Query.MetricsHistory)
		graphOpts = append(graphOpts, graph.WithHook(metrics))
	}

	g, err := graph.Build(ctx, def, cfg, graphOpts...)
	if err != nil {
		return err
	}
	defer g.Close()

	engine, err := compose.NewEngine(g,
		compose.WithRecursive(cfg.Query.Recursive),
		compose.WithSimilarityTopK(cfg.Query.SimilarityTopK),
		compose.WithKeywordLimit(cfg.Query.KeywordLimit),
	)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(engine, g, cfg)
	if err != nil {
		return err
	}
	defer server.Close()

	if metrics != nil {
		server.SetMetrics(metrics)
	}

	slog.Info("serving graph",
		slog.String("root", g.RootID()),
		slog.Int("indices", len(g.IDs())))

	return server.Serve(ctx, cfg.Server.Transport)
}
