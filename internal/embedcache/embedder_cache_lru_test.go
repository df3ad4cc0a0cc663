package embedcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/embedcache"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), float32(len(taskType))}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting-model" }

func TestWrapLRUCachesRepeatedText(t *testing.T) {
	inner := &countingEmbedder{}
	cached := embedcache.WrapLRU(inner, 16, time.Hour)

	first, err := cached.Embed(context.Background(), "loan terms", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "loan terms", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestWrapLRUKeyIncludesTaskType(t *testing.T) {
	inner := &countingEmbedder{}
	cached := embedcache.WrapLRU(inner, 16, time.Hour)

	_, err := cached.Embed(context.Background(), "loan terms", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "loan terms", "RETRIEVAL_QUERY")
	require.NoError(t, err)

	require.Equal(t, 2, inner.calls)
}

func TestWrapLRUDoesNotCacheFailures(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("upstream down")}
	cached := embedcache.WrapLRU(inner, 16, time.Hour)

	_, err := cached.Embed(context.Background(), "loan terms", "RETRIEVAL_QUERY")
	require.Error(t, err)

	inner.err = nil
	_, err = cached.Embed(context.Background(), "loan terms", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestWrapLRUReturnsIsolatedCopies(t *testing.T) {
	inner := &countingEmbedder{}
	cached := embedcache.WrapLRU(inner, 16, time.Hour)

	ctx := context.Background()
	_, err := cached.Embed(ctx, "loan terms", "RETRIEVAL_QUERY")
	require.NoError(t, err)

	hit, err := cached.Embed(ctx, "loan terms", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	hit[0] = -999

	again, err := cached.Embed(ctx, "loan terms", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.NotEqual(t, float32(-999), again[0])
	require.Equal(t, 1, inner.calls)
}

func TestWrapLRUDisabledPassesThrough(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, embedcache.WrapLRU(inner, 0, time.Hour))
	require.Equal(t, inner, embedcache.WrapLRU(inner, 16, 0))
}
