package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/chunker"
	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/service"
)

type recordingStore struct {
	insertedMeta   *model.DocumentMetadata
	insertedChunks []model.Chunk
	insertedVecs   [][]float32

	deleteResult bool
	deleteErr    error
	docs         map[string]model.DocumentMetadata
}

func (r *recordingStore) Insert(ctx context.Context, meta model.DocumentMetadata, chunks []model.Chunk, vectors [][]float32) error {
	r.insertedMeta = &meta
	r.insertedChunks = chunks
	r.insertedVecs = vectors
	return nil
}

func (r *recordingStore) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	return r.deleteResult, r.deleteErr
}

func (r *recordingStore) Search(ctx context.Context, vector []float32, k int) ([]model.Chunk, error) {
	return nil, nil
}

func (r *recordingStore) Chunks(ctx context.Context, documentID string) ([]model.Chunk, error) {
	return nil, nil
}

func (r *recordingStore) ListDocuments(ctx context.Context) (map[string]model.DocumentMetadata, error) {
	return r.docs, nil
}

func (r *recordingStore) Len(ctx context.Context) (int, error) {
	return len(r.insertedChunks), nil
}

type flakyEmbedder struct {
	failures int
	calls    int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient embed failure")
	}
	return []float32{1, 0}, nil
}

func (f *flakyEmbedder) ModelName() string { return "flaky-embed" }

func TestIngestEmptyText(t *testing.T) {
	store := &recordingStore{}
	svc := service.NewDocumentService(chunker.NewSplitter(1000, 200), store, &flakyEmbedder{})

	_, err := svc.Ingest(context.Background(), "   \n ", "empty.txt")
	require.ErrorIs(t, err, apperrors.ErrEmptyDocument)
	require.Nil(t, store.insertedMeta)
}

func TestIngestStoresChunksWithVectors(t *testing.T) {
	store := &recordingStore{}
	svc := service.NewDocumentService(chunker.NewSplitter(1000, 200), store, &flakyEmbedder{})

	meta, err := svc.Ingest(context.Background(), "Loan Amount: RM10,000", "loan.txt")
	require.NoError(t, err)
	require.NotEmpty(t, meta.DocumentID)
	require.Equal(t, "loan.txt", meta.Filename)
	require.Equal(t, 1, meta.TotalChunks)

	require.NotNil(t, store.insertedMeta)
	require.Equal(t, meta, *store.insertedMeta)
	require.Len(t, store.insertedChunks, 1)
	require.Len(t, store.insertedVecs, 1)

	chunk := store.insertedChunks[0]
	require.Equal(t, "Loan Amount: RM10,000", chunk.Content)
	require.Equal(t, meta.DocumentID, chunk.DocumentID)
	require.Equal(t, "loan.txt", chunk.Filename)
	require.Equal(t, 0, chunk.ChunkIndex)
	require.Equal(t, 1, chunk.TotalChunks)
}

func TestIngestRetriesTransientEmbedFailures(t *testing.T) {
	store := &recordingStore{}
	embedder := &flakyEmbedder{failures: 2}
	svc := service.NewDocumentService(chunker.NewSplitter(1000, 200), store, embedder)

	_, err := svc.Ingest(context.Background(), "Loan Amount: RM10,000", "loan.txt")
	require.NoError(t, err)
	require.Equal(t, 3, embedder.calls)
}

func TestIngestEmbedFailurePropagates(t *testing.T) {
	store := &recordingStore{}
	svc := service.NewDocumentService(chunker.NewSplitter(1000, 200), store, &flakyEmbedder{failures: 100})

	_, err := svc.Ingest(context.Background(), "Loan Amount: RM10,000", "loan.txt")
	require.Error(t, err)
	require.Nil(t, store.insertedMeta)
}

func TestDeleteForwardsStoreResult(t *testing.T) {
	store := &recordingStore{deleteResult: true}
	svc := service.NewDocumentService(chunker.NewSplitter(1000, 200), store, &flakyEmbedder{})

	deleted, err := svc.Delete(context.Background(), "doc-1")
	require.NoError(t, err)
	require.True(t, deleted)

	store.deleteResult = false
	deleted, err = svc.Delete(context.Background(), "doc-1")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestListSortsByFilename(t *testing.T) {
	store := &recordingStore{docs: map[string]model.DocumentMetadata{
		"doc-2": {DocumentID: "doc-2", Filename: "zebra.txt", TotalChunks: 1},
		"doc-1": {DocumentID: "doc-1", Filename: "alpha.txt", TotalChunks: 2},
	}}
	svc := service.NewDocumentService(chunker.NewSplitter(1000, 200), store, &flakyEmbedder{})

	docs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "alpha.txt", docs[0].Filename)
	require.Equal(t, "zebra.txt", docs[1].Filename)
}
