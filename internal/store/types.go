// Package store provides the retrieval backends for sub-indices: an HNSW
// vector store, a Bleve keyword index, and a SQLite document store mapping
// document identifiers back to fragment content.
package store

import (
	"context"
)

// DocumentKind discriminates stored document variants.
type DocumentKind string

const (
	// DocKindText is a plain content document.
	DocKindText DocumentKind = "text"

	// DocKindIndexRef is a placeholder document referencing another
	// sub-index by identifier.
	DocKindIndexRef DocumentKind = "index_ref"
)

// Document is a unit of indexed content.
type Document struct {
	// ID uniquely identifies the document within its sub-index.
	ID string

	// IndexID is the identifier of the owning sub-index.
	IndexID string

	// Kind is the document variant.
	Kind DocumentKind

	// Content is the indexed text. For index_ref documents this is the
	// summary standing in for the referenced sub-index.
	Content string

	// RefTarget is the referenced sub-index identifier, only set when
	// Kind is DocKindIndexRef.
	RefTarget string
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	ID       string  // Document ID
	Distance float32 // Lower is more similar (0-2 for cosine)
	Score    float32 // Normalized similarity (0-1)
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	DocID string
	Score float64
}

// VectorStore provides nearest-neighbour search over embeddings.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Contains checks if an ID exists.
	Contains(id string) bool

	// Count returns the number of vectors.
	Count() int

	// Close releases resources.
	Close() error
}

// KeywordIndex provides scored keyword search.
type KeywordIndex interface {
	// Index adds documents to the index.
	Index(ctx context.Context, docs []*Document) error

	// Search returns documents matching the query, best first.
	Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error)

	// Delete removes documents from the index.
	Delete(ctx context.Context, docIDs []string) error

	// Count returns the number of indexed documents.
	Count() (int, error)

	// Close releases resources.
	Close() error
}

// DocumentStore persists document content keyed by ID.
type DocumentStore interface {
	// SaveDocuments upserts documents.
	SaveDocuments(ctx context.Context, docs []*Document) error

	// GetDocument fetches a single document by ID.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// GetDocuments fetches documents by ID in a single query. Missing IDs
	// are skipped; the result preserves the requested order.
	GetDocuments(ctx context.Context, ids []string) ([]*Document, error)

	// DeleteDocuments removes documents by ID.
	DeleteDocuments(ctx context.Context, ids []string) error

	// Close releases resources.
	Close() error
}

// VectorStoreConfig configures the vector store.
type VectorStoreConfig struct {
	// Dimensions is the vector dimension.
	Dimensions int

	// Metric is the distance metric: "cos" (cosine) or "l2" (euclidean).
	Metric string

	// M is HNSW max connections per layer.
	M int

	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultVectorStoreConfig returns sensible defaults for the vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   20,
	}
}
