package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"haetsal-ai/internal/config"
	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/corpus"
	"haetsal-ai/internal/http"
	"haetsal-ai/internal/llm"
	"haetsal-ai/internal/persona"
	"haetsal-ai/internal/prompt"
	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/sentiment"
	"haetsal-ai/internal/service"
	"haetsal-ai/internal/storage"
	"haetsal-ai/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// Customer consultation API of 햇살봇, the insurance chatbot. Answers are
// grounded in FAQ and policy terms retrieved for each message.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Haetsal AI API
//   description: |
//     Emotion-aware insurance chat with retrieval over FAQ and policy terms.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx := context.Background()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create LLM and embedding clients (external service layer)
	embedder, err := newEmbedder(cfg)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	slog.Info("LLM configured", "provider", cfg.LLMProvider, "model", cfg.LLMModelName, "embedding_provider", cfg.EmbeddingProvider)

	// Vector backends for the two corpora
	faqIdx, termsIdx, closeIdx, err := newVectorIndexes(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create vector indexes: %v", err)
	}
	defer closeIdx()
	slog.Info("Vector backend ready", "backend", cfg.VectorBackend, "dimension", cfg.EmbeddingDim)

	index := rag.NewIndex(embedder, faqIdx, termsIdx)
	loadIndex(ctx, index, cfg)

	tuning, err := loadTuning(cfg)
	if err != nil {
		log.Fatalf("Failed to load RAG tuning: %v", err)
	}

	analyzer := conversation.NewAnalyzer(conversation.DefaultLexicon())
	searcher := rag.NewEnhancedSearcher(index, analyzer, tuning)
	slog.Info("RAG engine initialized", "ready", index.Ready())

	personas := loadPersonas(cfg.PersonaCSVPath)

	mode, err := prompt.ParseMode(cfg.PromptMode)
	if err != nil {
		log.Fatalf("Invalid prompt mode: %v", err)
	}
	promptCfg := prompt.DefaultConfig()
	promptCfg.Mode = mode
	promptCfg.MaxLength = cfg.PromptMaxLength
	promptCfg.MaxHistoryTurns = cfg.PromptMaxHistoryTurns
	promptCfg.RAGContentLimit = cfg.PromptRAGContentLimit

	searchOpts := rag.DefaultSearchOptions()
	searchOpts.MaxResults = cfg.RAGMaxResults

	chatService := service.NewChatService(service.Deps{
		LLM:      generator,
		Searcher: searcher,
		FAQ:      index,
		Emotions: sentiment.NewAnalyzer(generator, cfg.LLMModelName),
		Personas: personas,
		Prompts:  prompt.NewManager(promptCfg),
		Analyzer: analyzer,
		Sessions: storage.NewSessionRepo(db),
		Messages: storage.NewMessageRepo(db),
		Feedback: storage.NewFeedbackRepo(db),
	}, service.Options{
		DefaultModel:  cfg.LLMModelName,
		AllowedModels: cfg.LLMAllowedModels,
		Search:        searchOpts,
	})

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		ChatService:   chatService,
		SearchService: service.NewSearchService(searcher),
		Personas:      personas,
		Index:         index,
		DB:            db,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

func newEmbedder(cfg *config.Config) (corpus.Embedder, error) {
	if cfg.EmbeddingProvider == config.ProviderOllama {
		client, err := llm.NewOllamaAPIClient(cfg.EmbeddingBaseURL)
		if err != nil {
			return nil, err
		}
		return llm.NewOllamaEmbedder(client, cfg.EmbeddingModelName, cfg.EmbeddingDim), nil
	}
	return llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDim), nil
}

func newGenerator(cfg *config.Config) (service.LLMClient, error) {
	if cfg.LLMProvider == config.ProviderOllama {
		client, err := llm.NewOllamaAPIClient(cfg.LLMBaseURL)
		if err != nil {
			return nil, err
		}
		return llm.NewOllamaGenerator(client, cfg.LLMModelName, cfg.LLMMaxRetries), nil
	}
	return llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMMaxRetries), nil
}

// newVectorIndexes returns the FAQ and terms backends and a func releasing them.
func newVectorIndexes(ctx context.Context, cfg *config.Config) (vectorstore.Index, vectorstore.Index, func(), error) {
	switch cfg.VectorBackend {
	case config.BackendQdrant:
		faq, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollectionPrefix+"_faq", cfg.EmbeddingDim)
		if err != nil {
			return nil, nil, nil, err
		}
		terms, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollectionPrefix+"_terms", cfg.EmbeddingDim)
		if err != nil {
			_ = faq.Close()
			return nil, nil, nil, err
		}
		return faq, terms, func() {
			_ = faq.Close()
			_ = terms.Close()
		}, nil
	case config.BackendPgVector:
		faq, err := vectorstore.NewPgVectorIndex(ctx, cfg.PgVectorDSN, "faq_embeddings", cfg.EmbeddingDim)
		if err != nil {
			return nil, nil, nil, err
		}
		terms, err := vectorstore.NewPgVectorIndex(ctx, cfg.PgVectorDSN, "terms_embeddings", cfg.EmbeddingDim)
		if err != nil {
			faq.Close()
			return nil, nil, nil, err
		}
		return faq, terms, func() {
			faq.Close()
			terms.Close()
		}, nil
	default:
		return vectorstore.NewFlatIndex(cfg.EmbeddingDim), vectorstore.NewFlatIndex(cfg.EmbeddingDim), func() {}, nil
	}
}

// loadIndex loads both record files. A missing or broken file leaves that
// corpus unloaded; the health check reports it and chat degrades to no RAG.
func loadIndex(ctx context.Context, index *rag.Index, cfg *config.Config) {
	faq, err := corpus.LoadRecords[corpus.FAQEntry](cfg.FAQEmbeddingsPath)
	if err == nil {
		err = index.LoadFAQ(ctx, faq)
	}
	logLoad("FAQ", cfg.FAQEmbeddingsPath, len(faq), err)

	terms, err := corpus.LoadRecords[corpus.TermsChunk](cfg.TermsEmbeddingsPath)
	if err == nil {
		err = index.LoadTerms(ctx, terms)
	}
	logLoad("terms", cfg.TermsEmbeddingsPath, len(terms), err)
}

func logLoad(corpusName, path string, n int, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("Embedding records not found, run cmd/indexer first", "corpus", corpusName, "path", path)
	case err != nil:
		slog.Error("Failed to load embedding records", "corpus", corpusName, "path", path, "error", err)
	default:
		slog.Info("Embedding records loaded", "corpus", corpusName, "count", n)
	}
}

// loadPersonas falls back to an empty store so chat keeps working without
// persona context.
func loadPersonas(path string) *persona.Store {
	personas, err := persona.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("Persona file not found, continuing without personas", "path", path)
		return persona.NewStore()
	case err != nil:
		slog.Error("Failed to load personas, continuing without personas", "path", path, "error", err)
		return persona.NewStore()
	}
	slog.Info("Personas loaded", "count", personas.Len())
	return personas
}

// loadTuning reads RAG_TUNING_PATH when set; otherwise the source weights come
// from RAG_FAQ_WEIGHT and RAG_TERMS_WEIGHT.
func loadTuning(cfg *config.Config) (rag.Tuning, error) {
	if cfg.RAGTuningPath != "" {
		t, err := rag.LoadTuning(cfg.RAGTuningPath)
		if err != nil {
			return t, fmt.Errorf("failed to load %s: %w", cfg.RAGTuningPath, err)
		}
		return t, nil
	}
	t := rag.DefaultTuning()
	t.FAQWeight = cfg.RAGFAQWeight
	t.TermsWeight = cfg.RAGTermsWeight
	return t, t.Validate()
}
