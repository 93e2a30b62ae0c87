// Package graph defines the composable graph: a read-only collection of
// named sub-indices with one designated root.
package graph

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	gqerrors "github.com/Aman-CERP/graphquery/internal/errors"
	"github.com/Aman-CERP/graphquery/internal/index"
	"github.com/Aman-CERP/graphquery/internal/store"
	"github.com/Aman-CERP/graphquery/internal/telemetry"
)

// Graph maps index identifiers to sub-indices. It is immutable after
// construction and safe for concurrent reads.
type Graph struct {
	rootID  string
	indices map[string]index.SubIndex
	hook    telemetry.Hook
}

// Option configures graph construction.
type Option func(*Graph)

// WithHook attaches an observability hook shared by every query over this
// graph. The hook never influences control flow.
func WithHook(h telemetry.Hook) Option {
	return func(g *Graph) {
		if h != nil {
			g.hook = h
		}
	}
}

// New creates a graph. The root identifier must be registered.
func New(rootID string, indices map[string]index.SubIndex, opts ...Option) (*Graph, error) {
	if len(indices) == 0 {
		return nil, gqerrors.New(gqerrors.ErrCodeEmptyGraph, "graph has no sub-indices", nil)
	}
	if rootID == "" {
		return nil, gqerrors.ValidationError("root identifier is required", nil)
	}
	if _, ok := indices[rootID]; !ok {
		return nil, gqerrors.UnknownIndexError(rootID)
	}

	owned := make(map[string]index.SubIndex, len(indices))
	for id, idx := range indices {
		if idx == nil {
			return nil, gqerrors.ValidationError("sub-index "+id+" is nil", nil)
		}
		owned[id] = idx
	}

	g := &Graph{
		rootID:  rootID,
		indices: owned,
		hook:    telemetry.NopHook{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// RootID returns the root index identifier.
func (g *Graph) RootID() string { return g.rootID }

// GetIndex resolves an identifier to its sub-index.
func (g *Graph) GetIndex(id string) (index.SubIndex, error) {
	idx, ok := g.indices[id]
	if !ok {
		return nil, gqerrors.UnknownIndexError(id)
	}
	return idx, nil
}

// Hook returns the shared observability hook, never nil.
func (g *Graph) Hook() telemetry.Hook { return g.hook }

// IDs returns all registered index identifiers, sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.indices))
	for id := range g.indices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadDocuments inserts documents into their sub-indices, building each
// sub-index in parallel. Placeholder targets are validated against the
// graph first so a dangling reference fails the load, not a later query.
func (g *Graph) LoadDocuments(ctx context.Context, docsByIndex map[string][]*store.Document) error {
	for indexID, docs := range docsByIndex {
		if _, err := g.GetIndex(indexID); err != nil {
			return err
		}
		for _, doc := range docs {
			if doc.Kind != store.DocKindIndexRef {
				continue
			}
			if _, err := g.GetIndex(doc.RefTarget); err != nil {
				return err
			}
		}
	}

	eg, egctx := errgroup.WithContext(ctx)
	for indexID, docs := range docsByIndex {
		idx := g.indices[indexID]
		docs := docs
		eg.Go(func() error {
			return idx.Insert(egctx, docs)
		})
	}
	return eg.Wait()
}

// Close releases every sub-index.
func (g *Graph) Close() error {
	var firstErr error
	for _, idx := range g.indices {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
