package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	UploadWindow  int              `json:"upload_rate_window_seconds"`
	Index         IndexConfig      `json:"index"`
	FileStore     FileStoreConfig  `json:"file_store"`
	AI            AIConfig         `json:"ai"`
	Chat          ChatConfig       `json:"chat"`
	Jobs          JobsConfig       `json:"jobs"`
}

// IndexConfig selects the vector index backend. Data is backend-specific and
// decoded by the backend factory.
type IndexConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	EmbedProvider  string      `json:"embed_provider"`
	Model          string      `json:"model"`
	EmbedModel     string      `json:"embed_model"`
	Data           interface{} `json:"data"`
	EmbedData      interface{} `json:"embed_data"`
	EmbedCacheSize int         `json:"embed_cache_size"`
	EmbedCacheTTL  int         `json:"embed_cache_ttl_hours"`
}

type ChatConfig struct {
	MaxContextChars int     `json:"max_context_chars"`
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int32   `json:"max_output_tokens"`
	SemanticTopK    int     `json:"semantic_top_k"`
	KeywordTopK     int     `json:"keyword_top_k"`
	MergeLimit      int     `json:"merge_limit"`
	HistoryLimit    int     `json:"history_limit"`
}

type JobsConfig struct {
	UploadCleanupSpec string `json:"upload_cleanup_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "local"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.EmbedData == nil {
		cfg.AI.EmbedData = cfg.AI.Data
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	if cfg.AI.EmbedCacheTTL == 0 {
		cfg.AI.EmbedCacheTTL = 24
	}
	if cfg.UploadWindow == 0 {
		cfg.UploadWindow = 10
	}
	applyChatDefaults(&cfg.Chat)
	if cfg.Jobs.UploadCleanupSpec == "" {
		cfg.Jobs.UploadCleanupSpec = "0 * * * *"
	}
	return &cfg, nil
}

func applyChatDefaults(chat *ChatConfig) {
	if chat.MaxContextChars == 0 {
		chat.MaxContextChars = 15000
	}
	if chat.Temperature == 0 {
		chat.Temperature = 0.1
	}
	if chat.MaxOutputTokens == 0 {
		chat.MaxOutputTokens = 600
	}
	if chat.SemanticTopK == 0 {
		chat.SemanticTopK = 10
	}
	if chat.KeywordTopK == 0 {
		chat.KeywordTopK = 5
	}
	if chat.MergeLimit == 0 {
		chat.MergeLimit = 5
	}
	if chat.HistoryLimit == 0 {
		chat.HistoryLimit = 10
	}
}
