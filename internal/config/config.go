// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	OllamaURL      string
	EmbeddingModel string
	ChatModel      string

	VectorStoreURL string
	CollectionName string

	IndexDir string

	LogLevel  string
	LogFormat string
	AppName   string

	RedisURL string // RAG_REDIS_URL; empty means "no distributed cache"

	UseJina bool

	AlertWebhook   string
	AlertLatencyMs float64

	ChunkSize      int
	ChunkOverlap   int
	ChunkStrategy  string // CHUNK_STRATEGY: "recursive" or "semantic"
	ChunkUseTokens bool   // CHUNK_USE_TOKENS: chunk size/overlap in cl100k_base tokens instead of characters

	BM25K1 float64
	BM25B  float64

	RerankURL       string // RAG_RERANK_URL; empty means "no cross-encoder, never rerank"
	CacheTTLSeconds int

	ExpandVariants int
}

// Load reads configuration from environment variables and a .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	defaultIndexDir := filepath.Join(home, ".config", "rag-engine", "rag_index")

	cfg := &Config{
		OllamaURL:      getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel: getEnvOrDefault("EMBEDDING_MODEL", "nomic-embed-text"),
		ChatModel:      getEnvOrDefault("LLM_MODEL", "llama3.2"),

		VectorStoreURL: getEnvOrDefault("VECTOR_STORE_URL", "http://localhost:6333"),
		CollectionName: getEnvOrDefault("COLLECTION_NAME", "rag_docs"),

		IndexDir: getEnvOrDefault("RAG_INDEX_DIR", defaultIndexDir),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		AppName:   getEnvOrDefault("RAG_APP_NAME", "rag-engine"),

		RedisURL: os.Getenv("RAG_REDIS_URL"),

		UseJina: getEnvAsBool("RAG_USE_JINA", true),

		AlertWebhook:   os.Getenv("RAG_ALERT_WEBHOOK"),
		AlertLatencyMs: getEnvAsFloat("RAG_ALERT_LATENCY_MS", 0),

		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 512),
		ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 102), // 20% of 512
		ChunkStrategy:  getEnvOrDefault("CHUNK_STRATEGY", "recursive"),
		ChunkUseTokens: getEnvAsBool("CHUNK_USE_TOKENS", false),

		BM25K1: getEnvAsFloat("BM25_K1", 1.2),
		BM25B:  getEnvAsFloat("BM25_B", 0.75),

		RerankURL:       os.Getenv("RAG_RERANK_URL"),
		CacheTTLSeconds: getEnvAsInt("RAG_CACHE_TTL_SECONDS", 300),

		ExpandVariants: getEnvAsInt("RAG_EXPAND_VARIANTS", 2),
	}

	if cfg.OllamaURL == "" {
		return nil, fmt.Errorf("OLLAMA_URL must be set")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "1" || value == "true" || value == "yes"
	}
	return defaultValue
}
