package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/docchat/internal/model"
)

// ErrUnavailable marks a provider that is not configured or rejected the
// call; handlers degrade instead of failing the request.
var ErrUnavailable = errors.New("ai provider unavailable")

// StreamHandler receives generation output token by token. Returning an
// error aborts the upstream stream, which is how client disconnects are
// propagated.
type StreamHandler func(token string) error

// GenerateRequest is a chat-style generation call: a system instruction
// plus an ordered conversation ending with the user's prompt.
type GenerateRequest struct {
	System          string
	Messages        []model.ChatMessage
	Temperature     float32
	MaxOutputTokens int32
}

type IAIProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
	GenerateStream(ctx context.Context, model string, req *GenerateRequest, fn StreamHandler) error
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

// IStreamGenerator binds a provider to a fixed generation model.
type IStreamGenerator interface {
	GenerateStream(ctx context.Context, req *GenerateRequest, fn StreamHandler) error
}

// IEmbedder binds a provider to a fixed embedding model.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type streamGenerator struct {
	provider IAIProvider
	model    string
}

func NewStreamGenerator(p IAIProvider, model string) IStreamGenerator {
	return &streamGenerator{provider: p, model: model}
}

func (g *streamGenerator) GenerateStream(ctx context.Context, req *GenerateRequest, fn StreamHandler) error {
	return g.provider.GenerateStream(ctx, g.model, req, fn)
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IAIProvider, error)
type EmbedProviderFactory func(args interface{}) (IEmbedProvider, error)

var (
	registry      = map[string]ProviderFactory{}
	embedRegistry = map[string]EmbedProviderFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func RegisterEmbed(name string, factory EmbedProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IAIProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.embed_provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai embed provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
