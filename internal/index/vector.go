package index

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/graphquery/internal/embed"
	"github.com/Aman-CERP/graphquery/internal/engine"
	"github.com/Aman-CERP/graphquery/internal/schema"
	"github.com/Aman-CERP/graphquery/internal/store"
)

// DefaultInsertBatchSize bounds how many documents are embedded per
// EmbedBatch call during Insert.
const DefaultInsertBatchSize = 32

// VectorIndex is a similarity sub-index over embedded document content.
type VectorIndex struct {
	id        string
	embedder  embed.Embedder
	vectors   store.VectorStore
	docs      store.DocumentStore
	batchSize int
}

var _ SubIndex = (*VectorIndex)(nil)

// VectorIndexOption configures a VectorIndex.
type VectorIndexOption func(*VectorIndex)

// WithInsertBatchSize sets how many documents each embedding batch
// carries. Values below 1 keep the default.
func WithInsertBatchSize(n int) VectorIndexOption {
	return func(v *VectorIndex) {
		if n > 0 {
			v.batchSize = n
		}
	}
}

// NewVectorIndex creates a vector sub-index.
func NewVectorIndex(id string, embedder embed.Embedder, vectors store.VectorStore, docs store.DocumentStore, opts ...VectorIndexOption) (*VectorIndex, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: index id is required", engine.ErrNilDependency)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", engine.ErrNilDependency)
	}
	if vectors == nil {
		return nil, fmt.Errorf("%w: vector store is required", engine.ErrNilDependency)
	}
	if docs == nil {
		return nil, fmt.Errorf("%w: document store is required", engine.ErrNilDependency)
	}
	v := &VectorIndex{id: id, embedder: embedder, vectors: vectors, docs: docs, batchSize: DefaultInsertBatchSize}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// ID returns the sub-index identifier.
func (v *VectorIndex) ID() string { return v.id }

// Kind returns KindVector.
func (v *VectorIndex) Kind() Kind { return KindVector }

// Insert embeds document content and stores vectors and documents.
// Vector and document writes go to independent stores and run in parallel.
func (v *VectorIndex) Insert(ctx context.Context, docs []*store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
		ids[i] = doc.ID
		doc.IndexID = v.id
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += v.batchSize {
		end := min(start+v.batchSize, len(texts))
		batch, err := v.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("generate embeddings: %w", err)
		}
		embeddings = append(embeddings, batch...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := v.vectors.Add(gctx, ids, embeddings); err != nil {
			return fmt.Errorf("add vectors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := v.docs.SaveDocuments(gctx, docs); err != nil {
			return fmt.Errorf("save documents: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// AsQueryEngine builds the default query engine for this sub-index.
func (v *VectorIndex) AsQueryEngine(opts ...EngineOption) (engine.QueryEngine, error) {
	resolved := applyEngineOptions(opts)
	return engine.NewRetrieverEngine(
		&vectorRetriever{index: v, topK: resolved.topK},
		resolved.synthesizer,
	)
}

// Close releases the vector store. The document store is shared and owned
// by the caller.
func (v *VectorIndex) Close() error {
	return v.vectors.Close()
}

// vectorRetriever retrieves the topK most similar documents for a query.
type vectorRetriever struct {
	index *VectorIndex
	topK  int
}

// Retrieve implements engine.Retriever.
func (r *vectorRetriever) Retrieve(ctx context.Context, query string) ([]schema.ScoredFragment, error) {
	queryVec, err := r.index.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.vectors.Search(ctx, queryVec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	scores := make(map[string]float64, len(hits))
	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
		scores[hit.ID] = float64(hit.Score)
	}

	return enrichHits(ctx, r.index.docs, ids, scores)
}

// enrichHits maps backend hit IDs to fragments via the document store,
// preserving hit order. Placeholder documents become IndexFragments.
func enrichHits(ctx context.Context, docs store.DocumentStore, ids []string, scores map[string]float64) ([]schema.ScoredFragment, error) {
	if len(ids) == 0 {
		return []schema.ScoredFragment{}, nil
	}

	stored, err := docs.GetDocuments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}

	fragments := make([]schema.ScoredFragment, 0, len(stored))
	for _, doc := range stored {
		var fragment schema.Fragment
		switch doc.Kind {
		case store.DocKindIndexRef:
			fragment = &schema.IndexFragment{
				ID:       doc.ID,
				TargetID: doc.RefTarget,
				Summary:  doc.Content,
			}
		default:
			fragment = &schema.TextFragment{ID: doc.ID, Text: doc.Content}
		}
		fragments = append(fragments, schema.ScoredFragment{
			Fragment: fragment,
			Score:    scores[doc.ID],
		})
	}
	return fragments, nil
}
