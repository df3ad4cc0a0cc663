package index

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
)

const (
	indexFileName    = "index.json"
	metadataFileName = "metadata.json"
)

type localConfig struct {
	Dir string `json:"dir"`
}

// localStore keeps the whole index in memory and mirrors it to two JSON
// files. The index file and the metadata file load independently: a missing
// or corrupt one degrades to empty state instead of failing the process.
type localStore struct {
	dir string

	mu      sync.Mutex
	loaded  bool
	chunks  []model.Chunk
	vectors [][]float32
	meta    map[string]model.DocumentMetadata
}

type indexFile struct {
	Chunks  []model.Chunk `json:"chunks"`
	Vectors [][]float32   `json:"vectors"`
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local index dir is required")
	}
	return &localStore{dir: cfg.Dir, meta: map[string]model.DocumentMetadata{}}, nil
}

func (s *localStore) Insert(ctx context.Context, meta model.DocumentMetadata, chunks []model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	s.meta[meta.DocumentID] = meta
	if err := s.saveMetadataLocked(); err != nil {
		delete(s.meta, meta.DocumentID)
		return fmt.Errorf("%w: save metadata: %v", apperrors.ErrPersistence, err)
	}

	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	if err := s.saveIndexLocked(); err != nil {
		// Metadata stays on disk so the document still shows up in
		// listings; the vectors are re-created on re-ingestion.
		return fmt.Errorf("%w: save index: %v", apperrors.ErrPersistence, err)
	}
	logutil.GetLogger(ctx).Info("chunks stored",
		zap.String("document_id", meta.DocumentID),
		zap.String("filename", meta.Filename),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

func (s *localStore) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	if len(s.chunks) == 0 {
		return false, nil
	}
	remainingChunks := make([]model.Chunk, 0, len(s.chunks))
	remainingVectors := make([][]float32, 0, len(s.vectors))
	for i, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			continue
		}
		remainingChunks = append(remainingChunks, chunk)
		remainingVectors = append(remainingVectors, s.vectors[i])
	}
	if len(remainingChunks) == len(s.chunks) {
		return false, nil
	}

	oldChunks, oldVectors := s.chunks, s.vectors
	s.chunks, s.vectors = remainingChunks, remainingVectors
	if err := s.saveIndexLocked(); err != nil {
		s.chunks, s.vectors = oldChunks, oldVectors
		return false, fmt.Errorf("%w: save index: %v", apperrors.ErrPersistence, err)
	}
	delete(s.meta, documentID)
	if err := s.saveMetadataLocked(); err != nil {
		return false, fmt.Errorf("%w: save metadata: %v", apperrors.ErrPersistence, err)
	}
	logutil.GetLogger(ctx).Info("document deleted from index", zap.String("document_id", documentID))
	return true, nil
}

func (s *localStore) Search(ctx context.Context, vector []float32, k int) ([]model.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	if k <= 0 || len(s.chunks) == 0 {
		return nil, nil
	}
	scores := make([]float32, len(s.vectors))
	for i := range s.vectors {
		scores[i] = cosineSimilarity(vector, s.vectors[i])
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if k > len(order) {
		k = len(order)
	}
	results := make([]model.Chunk, 0, k)
	for i := 0; i < k; i++ {
		results = append(results, s.chunks[order[i]])
	}
	return results, nil
}

func (s *localStore) Chunks(ctx context.Context, documentID string) ([]model.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	if documentID == "" {
		out := make([]model.Chunk, len(s.chunks))
		copy(out, s.chunks)
		return out, nil
	}
	var out []model.Chunk
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			out = append(out, chunk)
		}
	}
	return out, nil
}

func (s *localStore) ListDocuments(ctx context.Context) (map[string]model.DocumentMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	out := make(map[string]model.DocumentMetadata, len(s.meta))
	for id, meta := range s.meta {
		out[id] = meta
	}
	return out, nil
}

func (s *localStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return len(s.chunks), nil
}

// loadLocked reads both files once per process. Load failures degrade to
// empty state so the service stays available with a damaged disk copy;
// prior documents reappear on re-ingestion.
func (s *localStore) loadLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	logger := logutil.GetLogger(ctx)

	var idx indexFile
	if ok := s.readJSON(ctx, indexFileName, &idx); ok && len(idx.Chunks) == len(idx.Vectors) {
		s.chunks = idx.Chunks
		s.vectors = idx.Vectors
	} else if ok {
		logger.Error("index file inconsistent, starting empty",
			zap.Int("chunks", len(idx.Chunks)), zap.Int("vectors", len(idx.Vectors)))
	}

	meta := map[string]model.DocumentMetadata{}
	if ok := s.readJSON(ctx, metadataFileName, &meta); ok {
		s.meta = meta
	}
	logger.Info("vector index loaded",
		zap.Int("chunks", len(s.chunks)),
		zap.Int("documents", len(s.meta)),
	)
}

func (s *localStore) readJSON(ctx context.Context, name string, dst interface{}) bool {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logutil.GetLogger(ctx).Error("read index file failed", zap.String("file", name), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logutil.GetLogger(ctx).Error("decode index file failed", zap.String("file", name), zap.Error(err))
		return false
	}
	return true
}

func (s *localStore) saveIndexLocked() error {
	return s.writeJSON(indexFileName, indexFile{Chunks: s.chunks, Vectors: s.vectors})
}

func (s *localStore) saveMetadataLocked() error {
	return s.writeJSON(metadataFileName, s.meta)
}

// writeJSON writes to a temp file and renames so a crash mid-write never
// corrupts the previous persisted copy.
func (s *localStore) writeJSON(name string, value interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, name))
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
