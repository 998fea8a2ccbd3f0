package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

var envVars = []string{
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "DB_PATH",
	"LLM_PROVIDER", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "LLM_ALLOWED_MODELS", "LLM_MAX_RETRIES",
	"EMBEDDING_PROVIDER", "EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME", "EMBEDDING_DIM",
	"VECTOR_BACKEND", "QDRANT_URL", "QDRANT_COLLECTION_PREFIX", "PGVECTOR_DSN",
	"FAQ_PATH", "TERMS_DIR", "FAQ_EMBEDDINGS_PATH", "TERMS_EMBEDDINGS_PATH", "PERSONA_CSV_PATH",
	"RAG_TUNING_PATH", "RAG_FAQ_WEIGHT", "RAG_TERMS_WEIGHT", "RAG_MAX_RESULTS",
	"PROMPT_MODE", "PROMPT_MAX_LENGTH", "PROMPT_MAX_HISTORY_TURNS", "PROMPT_RAG_CONTENT_LIMIT",
}

// clearEnv unsets every variable Load reads and restores the originals on cleanup.
func clearEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string)
	for _, key := range envVars {
		original[key] = os.Getenv(key)
		_ = os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for key, value := range original {
			if value != "" {
				_ = os.Setenv(key, value)
			} else {
				_ = os.Unsetenv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:    "defaults",
			env:     map[string]string{},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.LLMProvider == ProviderOpenAI &&
					cfg.EmbeddingDim == 384 &&
					cfg.VectorBackend == BackendMemory &&
					cfg.RAGFAQWeight == 1.2 &&
					cfg.RAGTermsWeight == 1.0 &&
					cfg.RAGMaxResults == 5 &&
					cfg.PromptMode == "standard" &&
					cfg.PromptMaxLength == 6000 &&
					cfg.PromptMaxHistoryTurns == 5 &&
					cfg.PromptRAGContentLimit == 300 &&
					len(cfg.LLMAllowedModels) == 1 && cfg.LLMAllowedModels[0] == cfg.LLMModelName
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"API_PORT":           "8088",
				"LOG_LEVEL":          "debug",
				"LOG_FORMAT":         "json",
				"LLM_PROVIDER":       "OLLAMA",
				"LLM_ALLOWED_MODELS": "a, b ,,c",
				"EMBEDDING_DIM":      "768",
				"VECTOR_BACKEND":     "qdrant",
				"RAG_FAQ_WEIGHT":     "1.5",
				"PROMPT_MODE":        "compact",
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "8088" &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json" &&
					cfg.LLMProvider == ProviderOllama &&
					len(cfg.LLMAllowedModels) == 3 && cfg.LLMAllowedModels[1] == "b" &&
					cfg.EmbeddingDim == 768 &&
					cfg.VectorBackend == BackendQdrant &&
					cfg.RAGFAQWeight == 1.5 &&
					cfg.PromptMode == "compact"
			},
		},
		{
			name:    "invalid EMBEDDING_DIM",
			env:     map[string]string{"EMBEDDING_DIM": "invalid"},
			wantErr: true,
		},
		{
			name:    "zero EMBEDDING_DIM",
			env:     map[string]string{"EMBEDDING_DIM": "0"},
			wantErr: true,
		},
		{
			name:    "negative RAG_TERMS_WEIGHT",
			env:     map[string]string{"RAG_TERMS_WEIGHT": "-1"},
			wantErr: true,
		},
		{
			name:    "unknown LLM_PROVIDER",
			env:     map[string]string{"LLM_PROVIDER": "gemini"},
			wantErr: true,
		},
		{
			name:    "unknown VECTOR_BACKEND",
			env:     map[string]string{"VECTOR_BACKEND": "faiss"},
			wantErr: true,
		},
		{
			name:    "pgvector without DSN",
			env:     map[string]string{"VECTOR_BACKEND": "pgvector"},
			wantErr: true,
		},
		{
			name: "pgvector with DSN",
			env: map[string]string{
				"VECTOR_BACKEND": "pgvector",
				"PGVECTOR_DSN":   "postgres://localhost/haetsal",
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.VectorBackend == BackendPgVector && cfg.PgVectorDSN != ""
			},
		},
		{
			name:    "invalid LOG_LEVEL",
			env:     map[string]string{"LOG_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "invalid LOG_FORMAT",
			env:     map[string]string{"LOG_FORMAT": "xml"},
			wantErr: true,
		},
		{
			name:    "invalid PROMPT_MODE",
			env:     map[string]string{"PROMPT_MODE": "huge"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "data", "test.db"))
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config check failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	clearEnv(t)
	dataDir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("DB_PATH", filepath.Join(dataDir, "haetsal.db"))

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	info, err := os.Stat(dataDir)
	if err != nil {
		t.Fatalf("data directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dataDir)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue string
		want         string
	}{
		{
			name:         "set value",
			key:          "HAETSAL_TEST_VAR",
			value:        "value",
			defaultValue: "default",
			want:         "value",
		},
		{
			name:         "empty falls back to default",
			key:          "HAETSAL_TEST_VAR",
			value:        "",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" x ,y,, z")
	want := []string{"x", "y", "z"}
	if len(got) != len(want) {
		t.Fatalf("splitList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitList()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
