package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/docchat/internal/config"
	"github.com/xxxsen/docchat/internal/model"
)

// Store owns the persisted vector index and per-document metadata. Every
// chunk in the index has a matching DocumentMetadata entry and vice versa;
// mutations keep the persisted copy consistent even when one half of a
// write fails.
type Store interface {
	// Insert writes the document metadata first, then the chunk vectors, so
	// listings stay consistent even if the index write fails.
	Insert(ctx context.Context, meta model.DocumentMetadata, chunks []model.Chunk, vectors [][]float32) error
	// DeleteDocument removes every chunk of the document. It returns false
	// without touching persisted state when the document is unknown.
	DeleteDocument(ctx context.Context, documentID string) (bool, error)
	// Search returns up to k chunks nearest to vector, best first. It is
	// never restricted to a single document; callers filter post-hoc.
	Search(ctx context.Context, vector []float32, k int) ([]model.Chunk, error)
	// Chunks returns the chunks of one document, or all chunks when
	// documentID is empty.
	Chunks(ctx context.Context, documentID string) ([]model.Chunk, error)
	ListDocuments(ctx context.Context) (map[string]model.DocumentMetadata, error)
	Len(ctx context.Context) (int, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.IndexConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("index.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported index type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("index config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode index config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode index config: %w", err)
	}
	return nil
}
