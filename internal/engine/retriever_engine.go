package engine

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/graphquery/internal/schema"
)

// RetrieverEngine composes a Retriever and a Synthesizer into a QueryEngine.
// This is the default engine shape for every sub-index kind.
type RetrieverEngine struct {
	retriever   Retriever
	synthesizer Synthesizer
}

var _ QueryEngine = (*RetrieverEngine)(nil)

// NewRetrieverEngine creates a query engine from its two halves.
func NewRetrieverEngine(r Retriever, s Synthesizer) (*RetrieverEngine, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: retriever is required", ErrNilDependency)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: synthesizer is required", ErrNilDependency)
	}
	return &RetrieverEngine{retriever: r, synthesizer: s}, nil
}

// Retrieve delegates to the underlying retriever.
func (e *RetrieverEngine) Retrieve(ctx context.Context, query string) ([]schema.ScoredFragment, error) {
	return e.retriever.Retrieve(ctx, query)
}

// Synthesize delegates to the underlying synthesizer.
func (e *RetrieverEngine) Synthesize(ctx context.Context, query string, fragments, extraSources []schema.ScoredFragment) (*schema.Response, error) {
	return e.synthesizer.Synthesize(ctx, query, fragments, extraSources)
}

// Query retrieves and synthesizes in one step.
func (e *RetrieverEngine) Query(ctx context.Context, query string) (*schema.Response, error) {
	fragments, err := e.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.Synthesize(ctx, query, fragments, nil)
}
