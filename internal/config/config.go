package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names accepted by LLM_PROVIDER and EMBEDDING_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Vector backends accepted by VECTOR_BACKEND.
const (
	BackendMemory   = "memory"
	BackendQdrant   = "qdrant"
	BackendPgVector = "pgvector"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
	DBPath    string

	LLMProvider      string
	LLMBaseURL       string
	LLMModelName     string
	LLMAPIKey        string
	LLMAllowedModels []string
	LLMMaxRetries    int

	EmbeddingProvider  string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingDim       int

	VectorBackend          string
	QdrantURL              string
	QdrantCollectionPrefix string
	PgVectorDSN            string

	FAQPath             string
	TermsDir            string
	FAQEmbeddingsPath   string
	TermsEmbeddingsPath string
	PersonaCSVPath      string

	RAGTuningPath  string
	RAGFAQWeight   float64
	RAGTermsWeight float64
	RAGMaxResults  int

	PromptMode            string
	PromptMaxLength       int
	PromptMaxHistoryTurns int
	PromptRAGContentLimit int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// A .env file in the current directory or one of its parents is loaded first;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
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

	llmModelName := getEnv("LLM_MODEL", "claude-3.7-sonnet")

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		DBPath:    getEnv("DB_PATH", "./data/haetsal.db"),

		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName: llmModelName,
		LLMAPIKey:    getEnv("LLM_API_KEY", "dummy-key"),

		EmbeddingProvider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderOpenAI)),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "paraphrase-multilingual-MiniLM-L12-v2"),

		VectorBackend:          strings.ToLower(getEnv("VECTOR_BACKEND", BackendMemory)),
		QdrantURL:              getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollectionPrefix: getEnv("QDRANT_COLLECTION_PREFIX", "haetsal"),
		PgVectorDSN:            getEnv("PGVECTOR_DSN", ""),

		FAQPath:             getEnv("FAQ_PATH", "./data/faq.json"),
		TermsDir:            getEnv("TERMS_DIR", "./data/terms"),
		FAQEmbeddingsPath:   getEnv("FAQ_EMBEDDINGS_PATH", "./data/faq_embeddings.json"),
		TermsEmbeddingsPath: getEnv("TERMS_EMBEDDINGS_PATH", "./data/terms_embeddings.json"),
		PersonaCSVPath:      getEnv("PERSONA_CSV_PATH", "./data/customer_persona.csv"),

		RAGTuningPath: getEnv("RAG_TUNING_PATH", ""),
		PromptMode:    strings.ToLower(getEnv("PROMPT_MODE", "standard")),
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", cfg.LogFormat)
	}

	allowed := splitList(getEnv("LLM_ALLOWED_MODELS", ""))
	if len(allowed) == 0 {
		allowed = []string{llmModelName}
	}
	cfg.LLMAllowedModels = allowed

	if cfg.LLMProvider != ProviderOpenAI && cfg.LLMProvider != ProviderOllama {
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderOllama, cfg.LLMProvider)
	}
	if cfg.EmbeddingProvider != ProviderOpenAI && cfg.EmbeddingProvider != ProviderOllama {
		return nil, fmt.Errorf("EMBEDDING_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderOllama, cfg.EmbeddingProvider)
	}

	switch cfg.VectorBackend {
	case BackendMemory, BackendQdrant:
	case BackendPgVector:
		if cfg.PgVectorDSN == "" {
			return nil, fmt.Errorf("PGVECTOR_DSN is required when VECTOR_BACKEND=%s", BackendPgVector)
		}
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be one of memory, qdrant, pgvector, got %q", cfg.VectorBackend)
	}

	// Must match the output size of the embedding model used to build the record files.
	if cfg.EmbeddingDim, err = positiveInt("EMBEDDING_DIM", "384"); err != nil {
		return nil, err
	}
	if cfg.LLMMaxRetries, err = positiveInt("LLM_MAX_RETRIES", "3"); err != nil {
		return nil, err
	}
	if cfg.RAGMaxResults, err = positiveInt("RAG_MAX_RESULTS", "5"); err != nil {
		return nil, err
	}
	if cfg.PromptMaxLength, err = positiveInt("PROMPT_MAX_LENGTH", "6000"); err != nil {
		return nil, err
	}
	if cfg.PromptMaxHistoryTurns, err = positiveInt("PROMPT_MAX_HISTORY_TURNS", "5"); err != nil {
		return nil, err
	}
	if cfg.PromptRAGContentLimit, err = positiveInt("PROMPT_RAG_CONTENT_LIMIT", "300"); err != nil {
		return nil, err
	}
	if cfg.RAGFAQWeight, err = positiveFloat("RAG_FAQ_WEIGHT", "1.2"); err != nil {
		return nil, err
	}
	if cfg.RAGTermsWeight, err = positiveFloat("RAG_TERMS_WEIGHT", "1.0"); err != nil {
		return nil, err
	}

	switch cfg.PromptMode {
	case "compact", "standard", "comprehensive":
	default:
		return nil, fmt.Errorf("PROMPT_MODE must be one of compact, standard, comprehensive, got %q", cfg.PromptMode)
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func positiveInt(key, defaultValue string) (int, error) {
	raw := getEnv(key, defaultValue)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func positiveFloat(key, defaultValue string) (float64, error) {
	raw := getEnv(key, defaultValue)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	return level, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
