package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig holds credentials and model selection for one AI provider.
type ProviderConfig struct {
	APIKey       string
	Model        string
	Organization string
	BaseURL      string
}

// Features holds feature flags for AI-driven note enrichment.
// Each flag gates one enrichment independently; a disabled flag means the
// deterministic fallback is used instead of the AI path.
// ContentSummary is parsed for forward compatibility and has no consumer yet.
type Features struct {
	TitleGeneration bool
	TagSuggestions  bool
	ContentSummary  bool
}

// Config holds all configuration for the application.
type Config struct {
	DefaultProvider string
	OpenAI          ProviderConfig
	Gemini          ProviderConfig

	Features Features

	// Embedding defaults. EmbeddingDimensions must match QdrantVectorSize;
	// persisted vectors and query vectors have to live in the same space.
	EmbeddingModel      string
	EmbeddingDimensions int

	// Tag generation limits.
	TagMinContentLength int
	TagMaxGenerated     int

	AIRequestTimeout time.Duration

	DBPath           string
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int
	APIPort          string
	LogLevel         slog.Level
	LogFormat        string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up to find a project-root .env (next to go.mod), limited depth.
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		DefaultProvider: getEnv("AI_DEFAULT_PROVIDER", "openai"),
		OpenAI: ProviderConfig{
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			Model:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Organization: os.Getenv("OPENAI_ORG"),
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		Gemini: ProviderConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnv("GEMINI_MODEL", "gemini-pro"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		},
		Features: Features{
			TitleGeneration: getEnvBool("ENABLE_AI_TITLE_GENERATION", true),
			TagSuggestions:  getEnvBool("ENABLE_AI_TAG_SUGGESTIONS", true),
			ContentSummary:  getEnvBool("ENABLE_AI_CONTENT_SUMMARY", false),
		},
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		DBPath:           getEnv("DB_PATH", "./data/memory-lane.db"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "notes"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	var err error
	cfg.TagMinContentLength, err = getEnvInt("TAG_MIN_CONTENT_LENGTH", 20)
	if err != nil {
		return nil, err
	}
	cfg.TagMaxGenerated, err = getEnvInt("TAG_MAX_GENERATED", 5)
	if err != nil {
		return nil, err
	}

	timeoutSec, err := getEnvInt("AI_REQUEST_TIMEOUT", 30)
	if err != nil {
		return nil, err
	}
	if timeoutSec <= 0 {
		return nil, fmt.Errorf("AI_REQUEST_TIMEOUT must be greater than 0")
	}
	cfg.AIRequestTimeout = time.Duration(timeoutSec) * time.Second

	// QDRANT_VECTOR_SIZE must match the output dimensionality of the
	// embedding model. If it changes, the Qdrant collection has to be
	// recreated and all notes re-embedded.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	// EMBEDDING_DIMENSIONS defaults to the collection's vector size.
	cfg.EmbeddingDimensions, err = getEnvInt("EMBEDDING_DIMENSIONS", vectorSize)
	if err != nil {
		return nil, err
	}
	if cfg.EmbeddingDimensions != vectorSize {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS (%d) must match QDRANT_VECTOR_SIZE (%d)", cfg.EmbeddingDimensions, vectorSize)
	}

	if cfg.DefaultProvider != "openai" && cfg.DefaultProvider != "gemini" {
		return nil, fmt.Errorf("AI_DEFAULT_PROVIDER must be one of: openai, gemini")
	}

	if err := cfg.parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	// Create the data directory if it doesn't exist.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) parseLogLevel(raw string) error {
	switch strings.ToLower(raw) {
	case "debug":
		c.LogLevel = slog.LevelDebug
	case "info":
		c.LogLevel = slog.LevelInfo
	case "warn", "warning":
		c.LogLevel = slog.LevelWarn
	case "error":
		c.LogLevel = slog.LevelError
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error (got %q)", raw)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool parses a boolean environment variable.
// Anything other than an explicit "false"/"true" keeps the default.
func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return defaultValue
	}
}

// getEnvInt parses an integer environment variable.
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}
