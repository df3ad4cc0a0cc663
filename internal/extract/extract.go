package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
)

// Extractor turns an uploaded file into plain text. Implementations for
// PDF/DOCX/image sources (including OCR) register by extension; extraction
// failures are distinct from empty content, which the ingestion layer
// reports separately.
type Extractor interface {
	Extract(ctx context.Context, filename string, r io.Reader) (string, error)
}

type Manager struct {
	mu    sync.RWMutex
	byExt map[string]Extractor
}

func NewManager() *Manager {
	m := &Manager{byExt: map[string]Extractor{}}
	text := plainTextExtractor{}
	m.Register(".txt", text)
	m.Register(".md", text)
	m.Register(".markdown", text)
	return m
}

func (m *Manager) Register(ext string, e Extractor) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || e == nil {
		return
	}
	m.mu.Lock()
	m.byExt[ext] = e
	m.mu.Unlock()
}

func (m *Manager) Extract(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	m.mu.RLock()
	extractor := m.byExt[ext]
	m.mu.RUnlock()
	if extractor == nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFile, ext)
	}
	return extractor.Extract(ctx, filename, r)
}

type plainTextExtractor struct{}

func (plainTextExtractor) Extract(ctx context.Context, filename string, r io.Reader) (string, error) {
	_ = ctx
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	return string(data), nil
}
