package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/graphquery/internal/compose"
	"github.com/Aman-CERP/graphquery/internal/config"
	"github.com/Aman-CERP/graphquery/internal/graph"
	"github.com/Aman-CERP/graphquery/internal/output"
)

// queryOptions holds CLI flags for query.
type queryOptions struct {
	graphPath string
	format    string // "text", "json"
	topK      int
	flat      bool // disable recursive expansion
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a query against a graph definition",
		Long: `Run a query against a graph defined in YAML.

The query enters at the root index. Retrieved placeholder fragments are
expanded by recursively querying the referenced sub-indices, and the
final answer is synthesized from the expanded fragments.

Examples:
  graphquery query "deployment steps" --graph graph.yaml
  graphquery query "error budget" --graph graph.yaml --format json
  graphquery query "release notes" --graph graph.yaml --flat`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runQuery(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.graphPath, "graph", "g", "graph.yaml", "Path to the graph definition file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Fragment count for vector retrieval (0 = configured default)")
	cmd.Flags().BoolVar(&opts.flat, "flat", false, "Disable recursive expansion of placeholder fragments")

	return cmd
}

// queryResult is the JSON output shape of the query command.
type queryResult struct {
	Query   string        `json:"query"`
	Answer  string        `json:"answer"`
	Sources []querySource `json:"sources"`
}

type querySource struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Kind    string  `json:"kind"`
}

func runQuery(ctx context.Context, cmd *cobra.Command, query string, opts queryOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	def, err := config.LoadDefinition(opts.graphPath)
	if err != nil {
		return err
	}

	g, err := graph.Build(ctx, def, cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	engineOpts := []compose.Option{
		compose.WithRecursive(cfg.Query.Recursive && !opts.flat),
		compose.WithSimilarityTopK(cfg.Query.SimilarityTopK),
		compose.WithKeywordLimit(cfg.Query.KeywordLimit),
	}
	if opts.topK > 0 {
		engineOpts = append(engineOpts, compose.WithSimilarityTopK(opts.topK))
	}

	engine, err := compose.NewEngine(g, engineOpts...)
	if err != nil {
		return err
	}

	resp, err := engine.Query(ctx, query)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		result := queryResult{
			Query:   query,
			Answer:  resp.Text,
			Sources: make([]querySource, 0, len(resp.Sources)),
		}
		for _, sf := range resp.Sources {
			result.Sources = append(result.Sources, querySource{
				Content: sf.Fragment.Content(),
				Score:   sf.Score,
				Kind:    string(sf.Fragment.Kind()),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	output.New(cmd.OutOrStdout()).Response(resp)
	return nil
}
