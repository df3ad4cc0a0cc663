package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"ai": {
			"provider": "gemini",
			"model": "gemini-2.0-flash",
			"embed_model": "text-embedding-004",
			"data": {"api_key": "k"}
		}
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "local", cfg.Index.Type)
	require.Equal(t, "local", cfg.FileStore.Type)
	require.Equal(t, "gemini", cfg.AI.EmbedProvider)
	require.Equal(t, 15000, cfg.Chat.MaxContextChars)
	require.Equal(t, float32(0.1), cfg.Chat.Temperature)
	require.Equal(t, int32(600), cfg.Chat.MaxOutputTokens)
	require.Equal(t, 10, cfg.Chat.SemanticTopK)
	require.Equal(t, 5, cfg.Chat.KeywordTopK)
	require.Equal(t, 5, cfg.Chat.MergeLimit)
	require.Equal(t, 10, cfg.Chat.HistoryLimit)
	require.Equal(t, 10, cfg.UploadWindow)
	require.Equal(t, "0 * * * *", cfg.Jobs.UploadCleanupSpec)
	require.NotNil(t, cfg.AI.EmbedData)
}

func TestLoadRequiresPort(t *testing.T) {
	path := writeConfig(t, `{"ai": {"provider": "gemini", "model": "m", "embed_model": "e"}}`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRequiresAIProvider(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "ai": {"model": "m", "embed_model": "e"}}`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
