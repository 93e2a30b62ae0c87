package index

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/graphquery/internal/engine"
	"github.com/Aman-CERP/graphquery/internal/schema"
	"github.com/Aman-CERP/graphquery/internal/store"
)

// KeywordIndex is a scored keyword sub-index.
type KeywordIndex struct {
	id      string
	backend store.KeywordIndex
	docs    store.DocumentStore
}

var _ SubIndex = (*KeywordIndex)(nil)

// NewKeywordIndex creates a keyword sub-index.
func NewKeywordIndex(id string, backend store.KeywordIndex, docs store.DocumentStore) (*KeywordIndex, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: index id is required", engine.ErrNilDependency)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: keyword backend is required", engine.ErrNilDependency)
	}
	if docs == nil {
		return nil, fmt.Errorf("%w: document store is required", engine.ErrNilDependency)
	}
	return &KeywordIndex{id: id, backend: backend, docs: docs}, nil
}

// ID returns the sub-index identifier.
func (k *KeywordIndex) ID() string { return k.id }

// Kind returns KindKeyword.
func (k *KeywordIndex) Kind() Kind { return KindKeyword }

// Insert adds documents to the backend and the document store.
func (k *KeywordIndex) Insert(ctx context.Context, docs []*store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	for _, doc := range docs {
		doc.IndexID = k.id
	}
	if err := k.backend.Index(ctx, docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}
	if err := k.docs.SaveDocuments(ctx, docs); err != nil {
		return fmt.Errorf("save documents: %w", err)
	}
	return nil
}

// AsQueryEngine builds the default query engine for this sub-index.
// The similarity top-k option does not apply to keyword retrieval.
func (k *KeywordIndex) AsQueryEngine(opts ...EngineOption) (engine.QueryEngine, error) {
	resolved := applyEngineOptions(opts)
	return engine.NewRetrieverEngine(
		&keywordRetriever{index: k, limit: resolved.keywordLimit},
		resolved.synthesizer,
	)
}

// Close releases the keyword backend. The document store is shared and
// owned by the caller.
func (k *KeywordIndex) Close() error {
	return k.backend.Close()
}

// keywordRetriever retrieves the best keyword matches for a query.
type keywordRetriever struct {
	index *KeywordIndex
	limit int
}

// Retrieve implements engine.Retriever.
func (r *keywordRetriever) Retrieve(ctx context.Context, query string) ([]schema.ScoredFragment, error) {
	hits, err := r.index.backend.Search(ctx, query, r.limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	scores := make(map[string]float64, len(hits))
	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.DocID
		scores[hit.DocID] = hit.Score
	}

	return enrichHits(ctx, r.index.docs, ids, scores)
}
