// Package index provides the queryable sub-index capability. A sub-index
// owns a retrieval backend plus the shared document store, and produces a
// default query engine on demand.
package index

import (
	"context"

	"github.com/Aman-CERP/graphquery/internal/engine"
	"github.com/Aman-CERP/graphquery/internal/store"
)

// Kind discriminates sub-index variants.
type Kind string

const (
	// KindVector is a similarity index over embeddings.
	KindVector Kind = "vector"

	// KindKeyword is a scored keyword index.
	KindKeyword Kind = "keyword"
)

// DefaultSimilarityTopK is the default fragment count for vector retrieval.
const DefaultSimilarityTopK = 2

// DefaultKeywordLimit is the default fragment count for keyword retrieval.
const DefaultKeywordLimit = 10

// SubIndex is an opaque queryable collection of documents.
type SubIndex interface {
	// ID returns the sub-index identifier.
	ID() string

	// Kind returns the sub-index variant discriminator.
	Kind() Kind

	// Insert adds documents to the sub-index and the document store.
	Insert(ctx context.Context, docs []*store.Document) error

	// AsQueryEngine builds the default query engine for this sub-index.
	// Construction is cheap and happens freshly per call.
	AsQueryEngine(opts ...EngineOption) (engine.QueryEngine, error)

	// Close releases resources.
	Close() error
}

// engineOptions collects AsQueryEngine configuration.
type engineOptions struct {
	topK         int
	keywordLimit int
	synthesizer  engine.Synthesizer
}

// EngineOption configures AsQueryEngine.
type EngineOption func(*engineOptions)

// WithSimilarityTopK sets the fragment count for vector retrieval.
// Keyword sub-indices ignore it.
func WithSimilarityTopK(k int) EngineOption {
	return func(o *engineOptions) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithKeywordLimit sets the fragment count for keyword retrieval.
// Vector sub-indices ignore it.
func WithKeywordLimit(n int) EngineOption {
	return func(o *engineOptions) {
		if n > 0 {
			o.keywordLimit = n
		}
	}
}

// WithSynthesizer overrides the default compact synthesizer.
func WithSynthesizer(s engine.Synthesizer) EngineOption {
	return func(o *engineOptions) {
		if s != nil {
			o.synthesizer = s
		}
	}
}

// applyEngineOptions resolves options against defaults.
func applyEngineOptions(opts []EngineOption) engineOptions {
	resolved := engineOptions{
		topK:         DefaultSimilarityTopK,
		keywordLimit: DefaultKeywordLimit,
		synthesizer:  engine.NewCompactSynthesizer(),
	}
	for _, opt := range opts {
		opt(&resolved)
	}
	return resolved
}
