package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocStore(t *testing.T) *SQLiteDocumentStore {
	t.Helper()
	s, err := NewSQLiteDocumentStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteDocumentStore_SaveAndGet(t *testing.T) {
	s := newTestDocStore(t)
	ctx := context.Background()

	docs := []*Document{
		{ID: "d1", IndexID: "root", Kind: DocKindText, Content: "plain text"},
		{ID: "d2", IndexID: "root", Kind: DocKindIndexRef, Content: "child summary", RefTarget: "child"},
	}
	require.NoError(t, s.SaveDocuments(ctx, docs))

	got, err := s.GetDocument(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, DocKindIndexRef, got.Kind)
	assert.Equal(t, "child", got.RefTarget)
	assert.Equal(t, "child summary", got.Content)
}

func TestSQLiteDocumentStore_GetDocuments_PreservesOrder(t *testing.T) {
	s := newTestDocStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "a", IndexID: "i", Kind: DocKindText, Content: "A"},
		{ID: "b", IndexID: "i", Kind: DocKindText, Content: "B"},
		{ID: "c", IndexID: "i", Kind: DocKindText, Content: "C"},
	}))

	got, err := s.GetDocuments(ctx, []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestSQLiteDocumentStore_Upsert(t *testing.T) {
	s := newTestDocStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "d", IndexID: "i", Kind: DocKindText, Content: "old"},
	}))
	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "d", IndexID: "i", Kind: DocKindText, Content: "new"},
	}))

	got, err := s.GetDocument(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
}

func TestSQLiteDocumentStore_Delete(t *testing.T) {
	s := newTestDocStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "d", IndexID: "i", Kind: DocKindText, Content: "x"},
	}))
	require.NoError(t, s.DeleteDocuments(ctx, []string{"d"}))

	_, err := s.GetDocument(ctx, "d")
	assert.Error(t, err)
}

func TestSQLiteDocumentStore_MissingDocument(t *testing.T) {
	s := newTestDocStore(t)

	_, err := s.GetDocument(context.Background(), "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteDocumentStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	s, err := NewSQLiteDocumentStore(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "p", IndexID: "i", Kind: DocKindText, Content: "persisted"},
	}))

	got, err := s.GetDocument(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Content)
}

func TestSQLiteDocumentStore_EmptyBatches(t *testing.T) {
	s := newTestDocStore(t)
	ctx := context.Background()

	assert.NoError(t, s.SaveDocuments(ctx, nil))
	assert.NoError(t, s.DeleteDocuments(ctx, nil))

	got, err := s.GetDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
