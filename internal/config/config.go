package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	LorebaseAPIKey string

	// Completion provider
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// KV store connection. Empty URL falls back to the in-memory store.
	KVStoreURL    string
	KVStoreAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Segmentation and prompt assembly
	ChunkMaxChars int
	PromptBudget  int

	// Provider pacing
	ExtractDelay time.Duration
	MergeDelay   time.Duration

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		LorebaseAPIKey: os.Getenv("LOREBASE_API_KEY"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),

		KVStoreURL:    os.Getenv("KVSTORE_URL"),
		KVStoreAPIKey: os.Getenv("KVSTORE_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ChunkMaxChars: envInt("CHUNK_MAX_CHARS", 3000),
		PromptBudget:  envInt("PROMPT_BUDGET", 50000),

		ExtractDelay: envDuration("EXTRACT_DELAY", 500*time.Millisecond),
		MergeDelay:   envDuration("MERGE_DELAY", 2*time.Second),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ChunkMaxChars <= 0 {
		cfg.ChunkMaxChars = 3000
	}
	if cfg.PromptBudget <= 0 {
		cfg.PromptBudget = 50000
	}
	if cfg.ExtractDelay < 0 {
		cfg.ExtractDelay = 500 * time.Millisecond
	}
	if cfg.MergeDelay < 0 {
		cfg.MergeDelay = 2 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings the server cannot run without. The completion
// credential is deliberately not required here: knowledge CRUD and context
// assembly work without it, and AI-backed operations report the missing key
// before any network attempt.
func (c Config) Validate() error {
	if c.LorebaseAPIKey == "" {
		return fmt.Errorf("LOREBASE_API_KEY is required")
	}
	if c.KVStoreURL != "" && c.KVStoreAPIKey == "" {
		return fmt.Errorf("KVSTORE_API_KEY is required when KVSTORE_URL is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
