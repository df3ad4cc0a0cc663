package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/chunker"
	"github.com/xxxsen/docchat/internal/index"
	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/pkg/retry"
)

// DocumentService owns the ingest/delete/list lifecycle: it splits raw
// text, embeds every chunk and hands the result to the vector index store.
type DocumentService struct {
	splitter *chunker.Splitter
	store    index.Store
	embedder ai.IEmbedder
}

func NewDocumentService(splitter *chunker.Splitter, store index.Store, embedder ai.IEmbedder) *DocumentService {
	return &DocumentService{
		splitter: splitter,
		store:    store,
		embedder: embedder,
	}
}

// Ingest stores a document and returns its metadata, including the freshly
// assigned document id. Text that yields no chunks fails with
// ErrEmptyDocument and stores nothing.
func (s *DocumentService) Ingest(ctx context.Context, text string, filename string) (model.DocumentMetadata, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("filename", filename))

	parts := s.splitter.Split(text)
	if len(parts) == 0 {
		return model.DocumentMetadata{}, fmt.Errorf("%w: %s", apperrors.ErrEmptyDocument, filename)
	}

	documentID := uuid.NewString()
	chunks := make([]model.Chunk, 0, len(parts))
	vectors := make([][]float32, 0, len(parts))
	for i, content := range parts {
		chunks = append(chunks, model.Chunk{
			Content:     content,
			DocumentID:  documentID,
			Filename:    filename,
			ChunkIndex:  i,
			TotalChunks: len(parts),
		})
		var vector []float32
		err := retry.Do(ctx, func() error {
			var embedErr error
			vector, embedErr = s.embedder.Embed(ctx, content, "RETRIEVAL_DOCUMENT")
			return embedErr
		})
		if err != nil {
			logger.Error("chunk embedding failed", zap.Int("chunk_index", i), zap.Error(err))
			return model.DocumentMetadata{}, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		vectors = append(vectors, vector)
	}

	meta := model.DocumentMetadata{
		DocumentID:  documentID,
		Filename:    filename,
		TotalChunks: len(parts),
	}
	if err := s.store.Insert(ctx, meta, chunks, vectors); err != nil {
		return model.DocumentMetadata{}, err
	}
	logger.Info("document ingested",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(parts)),
	)
	return meta, nil
}

// Delete removes a document and its vectors. Unknown ids return false
// without error; persistence failures propagate.
func (s *DocumentService) Delete(ctx context.Context, documentID string) (bool, error) {
	deleted, err := s.store.DeleteDocument(ctx, documentID)
	if err != nil {
		logutil.GetLogger(ctx).Error("document delete failed",
			zap.String("document_id", documentID), zap.Error(err))
		return false, err
	}
	if !deleted {
		logutil.GetLogger(ctx).Info("document not found for delete",
			zap.String("document_id", documentID))
	}
	return deleted, nil
}

// List returns all ingested documents sorted by filename for stable output.
func (s *DocumentService) List(ctx context.Context) ([]model.DocumentMetadata, error) {
	all, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.DocumentMetadata, 0, len(all))
	for _, meta := range all {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Filename != out[j].Filename {
			return out[i].Filename < out[j].Filename
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out, nil
}
