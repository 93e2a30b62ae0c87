// Package compose implements the graph query coordinator. It routes a query
// across the sub-indices of a graph, recursively expanding placeholder
// fragments into sub-query responses before synthesis.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/graphquery/internal/engine"
	gqerrors "github.com/Aman-CERP/graphquery/internal/errors"
	"github.com/Aman-CERP/graphquery/internal/graph"
	"github.com/Aman-CERP/graphquery/internal/index"
	"github.com/Aman-CERP/graphquery/internal/schema"
)

// Engine coordinates queries over a composable graph. It holds no mutable
// state after construction; all per-query state lives on the call stack.
type Engine struct {
	graph         *graph.Graph
	customEngines map[string]engine.QueryEngine
	recursive     bool
	topK          int
	keywordLimit  int
}

// Option configures the coordinator.
type Option func(*Engine)

// WithCustomEngines registers caller-supplied query engines by index
// identifier. A registered engine is always preferred over the sub-index's
// default engine, regardless of sub-index kind.
func WithCustomEngines(engines map[string]engine.QueryEngine) Option {
	return func(e *Engine) {
		for id, qe := range engines {
			e.customEngines[id] = qe
		}
	}
}

// WithRecursive controls placeholder expansion. Enabled by default;
// disabled, retrieved fragments pass to synthesis unmodified.
func WithRecursive(recursive bool) Option {
	return func(e *Engine) {
		e.recursive = recursive
	}
}

// WithSimilarityTopK sets the fragment count used when building the default
// engine of a vector sub-index. Irrelevant for custom engines and keyword
// sub-indices.
func WithSimilarityTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithKeywordLimit sets the fragment count used when building the default
// engine of a keyword sub-index. Irrelevant for custom engines and vector
// sub-indices.
func WithKeywordLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.keywordLimit = n
		}
	}
}

// NewEngine creates a coordinator over the given graph.
func NewEngine(g *graph.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is required", engine.ErrNilDependency)
	}

	e := &Engine{
		graph:         g,
		customEngines: make(map[string]engine.QueryEngine),
		recursive:     true,
		topK:          index.DefaultSimilarityTopK,
		keywordLimit:  index.DefaultKeywordLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Query resolves the query against the graph's root and returns the
// synthesized response. Collaborator errors propagate unwrapped; the
// coordinator neither retries nor returns partial results.
func (e *Engine) Query(ctx context.Context, query string) (*schema.Response, error) {
	return e.resolve(ctx, query, "", 0, make(map[string]bool))
}

// resolve answers the query at one index. visited tracks the identifiers on
// the current resolution path so a cyclic placeholder reference fails with a
// coded error instead of exhausting the stack.
func (e *Engine) resolve(ctx context.Context, query, indexID string, level int, visited map[string]bool) (*schema.Response, error) {
	if indexID == "" {
		indexID = e.graph.RootID()
	}
	if visited[indexID] {
		return nil, gqerrors.CycleError(indexID)
	}
	visited[indexID] = true
	defer delete(visited, indexID)

	hook := e.graph.Hook()
	start := time.Now()
	hook.OnQueryStart(indexID, query, level)

	qe, err := e.selectEngine(indexID)
	if err != nil {
		return nil, err
	}

	hook.OnRetrieveStart(indexID, query)
	fragments, err := qe.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	hook.OnRetrieveEnd(indexID, query, fragments)

	var resp *schema.Response
	if e.recursive {
		fragmentsForSynthesis := make([]schema.ScoredFragment, 0, len(fragments))
		var additionalSources []schema.ScoredFragment
		for _, sf := range fragments {
			expanded, extraSources, err := e.fetchRecursive(ctx, sf, query, level, visited)
			if err != nil {
				return nil, err
			}
			fragmentsForSynthesis = append(fragmentsForSynthesis, expanded)
			additionalSources = append(additionalSources, extraSources...)
		}
		resp, err = qe.Synthesize(ctx, query, fragmentsForSynthesis, additionalSources)
	} else {
		resp, err = qe.Synthesize(ctx, query, fragments, nil)
	}
	if err != nil {
		return nil, err
	}

	hook.OnQueryEnd(indexID, query, level, resp, time.Since(start))
	slog.Debug("graph_resolve_complete",
		slog.String("index_id", indexID),
		slog.Int("level", level),
		slog.Int("fragments", len(fragments)),
		slog.Duration("elapsed", time.Since(start)))

	return resp, nil
}

// selectEngine picks the query engine for an index. Selection happens
// freshly on every visit; handler construction cost is paid per call.
func (e *Engine) selectEngine(indexID string) (engine.QueryEngine, error) {
	if qe, ok := e.customEngines[indexID]; ok {
		return qe, nil
	}

	idx, err := e.graph.GetIndex(indexID)
	if err != nil {
		return nil, err
	}

	if idx.Kind() == index.KindVector {
		return idx.AsQueryEngine(index.WithSimilarityTopK(e.topK))
	}
	return idx.AsQueryEngine(index.WithKeywordLimit(e.keywordLimit))
}

// fetchRecursive applies the expansion rule to one fragment. A placeholder
// fragment is replaced by a text fragment carrying the referenced index's
// synthesized answer at the original fragment's score, paired with the
// sub-response's own sources. Any other fragment passes through unchanged.
func (e *Engine) fetchRecursive(ctx context.Context, sf schema.ScoredFragment, query string, level int, visited map[string]bool) (schema.ScoredFragment, []schema.ScoredFragment, error) {
	ref, ok := sf.Fragment.(*schema.IndexFragment)
	if !ok {
		return sf, nil, nil
	}

	subResp, err := e.resolve(ctx, query, ref.TargetID, level+1, visited)
	if err != nil {
		return schema.ScoredFragment{}, nil, err
	}

	expanded := schema.ScoredFragment{
		Fragment: &schema.TextFragment{Text: subResp.String()},
		Score:    sf.Score,
	}
	return expanded, subResp.Sources, nil
}
