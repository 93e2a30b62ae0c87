// Package engine defines the query handler contract every sub-index fulfils:
// retrieve scored fragments for a query, then synthesize a response from a
// fragment set.
package engine

import (
	"context"
	"errors"

	"github.com/Aman-CERP/graphquery/internal/schema"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Retriever produces scored fragments for a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]schema.ScoredFragment, error)
}

// Synthesizer produces a single response from a fragment set.
// extraSources are appended to the response's source list for provenance
// but do not contribute to the synthesized text.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, fragments, extraSources []schema.ScoredFragment) (*schema.Response, error)
}

// QueryEngine is the capability a sub-index exposes to the coordinator.
type QueryEngine interface {
	Retriever
	Synthesizer

	// Query retrieves and synthesizes in one step.
	Query(ctx context.Context, query string) (*schema.Response, error)
}
