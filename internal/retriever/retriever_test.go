package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/retriever"
)

type fakeStore struct {
	chunks        []model.Chunk
	searchResults []model.Chunk
	searchErr     error
	lenErr        error
}

func (f *fakeStore) Insert(ctx context.Context, meta model.DocumentMetadata, chunks []model.Chunk, vectors [][]float32) error {
	return errors.New("not implemented")
}

func (f *fakeStore) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, k int) ([]model.Chunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k > len(f.searchResults) {
		k = len(f.searchResults)
	}
	return f.searchResults[:k], nil
}

func (f *fakeStore) Chunks(ctx context.Context, documentID string) ([]model.Chunk, error) {
	if documentID == "" {
		return f.chunks, nil
	}
	var out []model.Chunk
	for _, chunk := range f.chunks {
		if chunk.DocumentID == documentID {
			out = append(out, chunk)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDocuments(ctx context.Context) (map[string]model.DocumentMetadata, error) {
	return nil, nil
}

func (f *fakeStore) Len(ctx context.Context) (int, error) {
	if f.lenErr != nil {
		return 0, f.lenErr
	}
	return len(f.chunks), nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func TestRetrieveEmptyIndex(t *testing.T) {
	r := retriever.New(&fakeStore{}, &fakeEmbedder{vector: []float32{1}}, 10, 5, 5)
	require.Nil(t, r.Retrieve(context.Background(), "anything", ""))
}

func TestRetrieveKeywordHitsRankFirst(t *testing.T) {
	keywordHit := model.Chunk{Content: "Loan Amount: RM10,000", DocumentID: "doc-1", Filename: "loan.txt"}
	semanticOnly := model.Chunk{Content: "general repayment terms", DocumentID: "doc-1", Filename: "loan.txt"}
	store := &fakeStore{
		chunks:        []model.Chunk{semanticOnly, keywordHit},
		searchResults: []model.Chunk{semanticOnly},
	}
	r := retriever.New(store, &fakeEmbedder{vector: []float32{1}}, 10, 5, 5)

	results := r.Retrieve(context.Background(), "what is the loan amount", "")
	require.NotEmpty(t, results)
	require.Equal(t, keywordHit.Content, results[0].Content)
}

func TestRetrieveDedupesAcrossPaths(t *testing.T) {
	shared := model.Chunk{Content: "Loan Amount: RM10,000", DocumentID: "doc-1", Filename: "loan.txt"}
	store := &fakeStore{
		chunks:        []model.Chunk{shared},
		searchResults: []model.Chunk{shared},
	}
	r := retriever.New(store, &fakeEmbedder{vector: []float32{1}}, 10, 5, 5)

	results := r.Retrieve(context.Background(), "loan amount", "")
	require.Len(t, results, 1)
}

func TestRetrieveRespectsMergeLimit(t *testing.T) {
	var chunks []model.Chunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, model.Chunk{
			Content:    "loan clause variant " + string(rune('a'+i)),
			DocumentID: "doc-1",
		})
	}
	store := &fakeStore{chunks: chunks, searchResults: chunks}
	r := retriever.New(store, &fakeEmbedder{vector: []float32{1}}, 10, 5, 5)

	results := r.Retrieve(context.Background(), "loan clause", "")
	require.Len(t, results, 5)
}

func TestRetrieveDocumentFilter(t *testing.T) {
	docA := model.Chunk{Content: "loan alpha", DocumentID: "doc-a"}
	docB := model.Chunk{Content: "loan beta", DocumentID: "doc-b"}
	store := &fakeStore{
		chunks:        []model.Chunk{docA, docB},
		searchResults: []model.Chunk{docB, docA},
	}
	r := retriever.New(store, &fakeEmbedder{vector: []float32{1}}, 10, 5, 5)

	results := r.Retrieve(context.Background(), "loan", "doc-a")
	require.NotEmpty(t, results)
	for _, chunk := range results {
		require.Equal(t, "doc-a", chunk.DocumentID)
	}
}

func TestRetrieveDegradesOnEmbedFailure(t *testing.T) {
	hit := model.Chunk{Content: "Loan Amount: RM10,000", DocumentID: "doc-1"}
	store := &fakeStore{chunks: []model.Chunk{hit}}
	r := retriever.New(store, &fakeEmbedder{err: errors.New("embed down")}, 10, 5, 5)

	// Keyword search still answers when the embedding service is down.
	results := r.Retrieve(context.Background(), "loan amount", "")
	require.Len(t, results, 1)
	require.Equal(t, hit.Content, results[0].Content)
}

func TestRetrieveLenFailure(t *testing.T) {
	store := &fakeStore{lenErr: errors.New("backend down")}
	r := retriever.New(store, &fakeEmbedder{vector: []float32{1}}, 10, 5, 5)
	require.Nil(t, r.Retrieve(context.Background(), "loan", ""))
}
