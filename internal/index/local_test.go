package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/config"
	"github.com/xxxsen/docchat/internal/index"
	"github.com/xxxsen/docchat/internal/model"
)

func newLocalStore(t *testing.T, dir string) index.Store {
	t.Helper()
	store, err := index.New(config.IndexConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	return store
}

func insertDoc(t *testing.T, store index.Store, documentID, filename string, contents []string, vectors [][]float32) {
	t.Helper()
	chunks := make([]model.Chunk, 0, len(contents))
	for i, content := range contents {
		chunks = append(chunks, model.Chunk{
			Content:     content,
			DocumentID:  documentID,
			Filename:    filename,
			ChunkIndex:  i,
			TotalChunks: len(contents),
		})
	}
	meta := model.DocumentMetadata{DocumentID: documentID, Filename: filename, TotalChunks: len(contents)}
	require.NoError(t, store.Insert(context.Background(), meta, chunks, vectors))
}

func TestLocalStoreInsertAndSearch(t *testing.T) {
	store := newLocalStore(t, t.TempDir())
	ctx := context.Background()

	insertDoc(t, store, "doc-1", "loan.txt",
		[]string{"loan terms", "interest rates"},
		[][]float32{{1, 0}, {0, 1}},
	)

	total, err := store.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	results, err := store.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "loan terms", results[0].Content)

	results, err = store.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Equal(t, "interest rates", results[0].Content)
}

func TestLocalStoreListDocuments(t *testing.T) {
	store := newLocalStore(t, t.TempDir())
	ctx := context.Background()

	insertDoc(t, store, "doc-1", "a.txt", []string{"alpha"}, [][]float32{{1, 0}})
	insertDoc(t, store, "doc-2", "b.txt", []string{"beta"}, [][]float32{{0, 1}})

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a.txt", docs["doc-1"].Filename)
	require.Equal(t, 1, docs["doc-2"].TotalChunks)
}

func TestLocalStoreDeleteDocument(t *testing.T) {
	store := newLocalStore(t, t.TempDir())
	ctx := context.Background()

	insertDoc(t, store, "doc-1", "a.txt", []string{"alpha"}, [][]float32{{1, 0}})
	insertDoc(t, store, "doc-2", "b.txt", []string{"beta"}, [][]float32{{0, 1}})

	deleted, err := store.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, deleted)

	total, err := store.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.NotContains(t, docs, "doc-1")
	require.Contains(t, docs, "doc-2")

	// Deleting again reports not found without error.
	deleted, err = store.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestLocalStoreDeleteUnknown(t *testing.T) {
	store := newLocalStore(t, t.TempDir())
	ctx := context.Background()

	insertDoc(t, store, "doc-1", "a.txt", []string{"alpha"}, [][]float32{{1, 0}})

	deleted, err := store.DeleteDocument(ctx, "no-such-doc")
	require.NoError(t, err)
	require.False(t, deleted)

	total, err := store.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestLocalStoreChunksFilter(t *testing.T) {
	store := newLocalStore(t, t.TempDir())
	ctx := context.Background()

	insertDoc(t, store, "doc-1", "a.txt", []string{"alpha one", "alpha two"}, [][]float32{{1, 0}, {1, 1}})
	insertDoc(t, store, "doc-2", "b.txt", []string{"beta"}, [][]float32{{0, 1}})

	all, err := store.Chunks(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	only, err := store.Chunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, only, 2)
	for _, chunk := range only {
		require.Equal(t, "doc-1", chunk.DocumentID)
	}
}

func TestLocalStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := newLocalStore(t, dir)
	insertDoc(t, first, "doc-1", "a.txt", []string{"alpha"}, [][]float32{{1, 0}})

	second := newLocalStore(t, dir)
	total, err := second.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	results, err := second.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "alpha", results[0].Content)

	docs, err := second.ListDocuments(ctx)
	require.NoError(t, err)
	require.Contains(t, docs, "doc-1")
}

func TestLocalStoreInsertLengthMismatch(t *testing.T) {
	store := newLocalStore(t, t.TempDir())
	err := store.Insert(context.Background(),
		model.DocumentMetadata{DocumentID: "doc-1", Filename: "a.txt", TotalChunks: 2},
		[]model.Chunk{{Content: "only one"}},
		[][]float32{{1, 0}, {0, 1}},
	)
	require.Error(t, err)
}
