package graph

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Aman-CERP/graphquery/internal/config"
	"github.com/Aman-CERP/graphquery/internal/embed"
	"github.com/Aman-CERP/graphquery/internal/index"
	"github.com/Aman-CERP/graphquery/internal/store"
)

// Build constructs a live graph from a definition: one sub-index per entry
// backed by real stores, documents loaded, placeholders resolved. The
// document store is shared across sub-indices. An empty
// cfg.Storage.DataDir keeps every store in memory.
func Build(ctx context.Context, def *config.Definition, cfg *config.Config, opts ...Option) (*Graph, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	docStorePath := ""
	if cfg.Storage.DataDir != "" {
		docStorePath = filepath.Join(cfg.Storage.DataDir, "documents.db")
	}
	docs, err := store.NewSQLiteDocumentStore(docStorePath)
	if err != nil {
		return nil, err
	}

	var embedder embed.Embedder = embed.NewStaticEmbedderWithDimensions(cfg.Embeddings.Dimensions)
	if cfg.Embeddings.CacheSize > 0 {
		embedder = embed.NewCachedEmbedder(embedder, cfg.Embeddings.CacheSize)
	}

	indices := make(map[string]index.SubIndex, len(def.Indices))
	cleanup := func() {
		for _, idx := range indices {
			_ = idx.Close()
		}
		_ = docs.Close()
	}

	for _, idxDef := range def.Indices {
		var sub index.SubIndex
		switch idxDef.Kind {
		case "vector":
			vectors, err := store.NewHNSWStore(store.VectorStoreConfig{
				Dimensions: embedder.Dimensions(),
			})
			if err != nil {
				cleanup()
				return nil, err
			}
			sub, err = index.NewVectorIndex(idxDef.ID, embedder, vectors, docs,
				index.WithInsertBatchSize(cfg.Embeddings.BatchSize))
			if err != nil {
				cleanup()
				return nil, err
			}
		case "keyword":
			keywordPath := ""
			if cfg.Storage.DataDir != "" {
				keywordPath = filepath.Join(cfg.Storage.DataDir, idxDef.ID+".bleve")
			}
			backend, err := store.NewBleveKeywordIndex(keywordPath)
			if err != nil {
				cleanup()
				return nil, err
			}
			sub, err = index.NewKeywordIndex(idxDef.ID, backend, docs)
			if err != nil {
				cleanup()
				return nil, err
			}
		}
		indices[idxDef.ID] = sub
	}

	g, err := New(def.Root, indices, opts...)
	if err != nil {
		cleanup()
		return nil, err
	}

	if err := g.LoadDocuments(ctx, documentsByIndex(def)); err != nil {
		cleanup()
		return nil, err
	}
	return g, nil
}

// documentsByIndex converts definition documents to store documents,
// assigning positional ids where the definition leaves them blank.
func documentsByIndex(def *config.Definition) map[string][]*store.Document {
	byIndex := make(map[string][]*store.Document, len(def.Indices))
	for _, idxDef := range def.Indices {
		docs := make([]*store.Document, 0, len(idxDef.Documents))
		for i, docDef := range idxDef.Documents {
			id := docDef.ID
			if id == "" {
				id = fmt.Sprintf("%s-%d", idxDef.ID, i)
			}
			doc := &store.Document{
				ID:      id,
				IndexID: idxDef.ID,
				Kind:    store.DocKindText,
				Content: docDef.Text,
			}
			if docDef.Ref != "" {
				doc.Kind = store.DocKindIndexRef
				doc.Content = docDef.Summary
				doc.RefTarget = docDef.Ref
			}
			docs = append(docs, doc)
		}
		byIndex[idxDef.ID] = docs
	}
	return byIndex
}
