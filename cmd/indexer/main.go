package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"haetsal-ai/internal/config"
	"haetsal-ai/internal/corpus"
	"haetsal-ai/internal/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	only := flag.String("only", "all", "Corpus to build: faq, terms or all")
	faqPath := flag.String("faq", cfg.FAQPath, "FAQ JSON file")
	termsDir := flag.String("terms", cfg.TermsDir, "Directory of policy terms documents")
	faqOut := flag.String("faq-out", cfg.FAQEmbeddingsPath, "Output file for FAQ embedding records")
	termsOut := flag.String("terms-out", cfg.TermsEmbeddingsPath, "Output file for terms embedding records")
	batchSize := flag.Int("batch", corpus.DefaultBatchSize, "Texts per embedding request")
	flag.Parse()

	switch *only {
	case "all", "faq", "terms":
	default:
		log.Fatalf("-only must be faq, terms or all, got %q", *only)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	var embedder corpus.Embedder
	if cfg.EmbeddingProvider == config.ProviderOllama {
		client, err := llm.NewOllamaAPIClient(cfg.EmbeddingBaseURL)
		if err != nil {
			log.Fatalf("Failed to create Ollama client: %v", err)
		}
		embedder = llm.NewOllamaEmbedder(client, cfg.EmbeddingModelName, cfg.EmbeddingDim)
	} else {
		embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDim)
	}
	builder := corpus.NewBuilder(embedder, cfg.EmbeddingModelName, *batchSize)

	ctx := context.Background()
	start := time.Now()

	if *only != "terms" {
		entries, err := corpus.LoadFAQ(*faqPath)
		if err != nil {
			log.Fatalf("Failed to load FAQ: %v", err)
		}
		log.Printf("Embedding %d FAQ entries from %s", len(entries), *faqPath)
		build(ctx, builder, entries, *faqOut)
	}

	if *only != "faq" {
		chunks, err := corpus.LoadTerms(ctx, *termsDir, corpus.NewExtractor())
		if err != nil {
			log.Fatalf("Failed to load terms: %v", err)
		}
		log.Printf("Embedding %d terms chunks from %s", len(chunks), *termsDir)
		build(ctx, builder, chunks, *termsOut)
	}

	log.Printf("Completed in %v", time.Since(start).Round(time.Millisecond))
}

func build[T corpus.Embeddable](ctx context.Context, builder *corpus.Builder, entries []T, out string) {
	records, stats, err := corpus.BuildRecords(ctx, builder, entries)
	if err != nil {
		log.Fatalf("Failed to build embeddings: %v", err)
	}
	if err := corpus.SaveRecords(out, records); err != nil {
		log.Fatalf("Failed to save %s: %v", out, err)
	}
	printStats(out, stats)
}

func printStats(out string, stats *corpus.BuildStats) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		log.Printf("Failed to encode build stats: %v", err)
		return
	}
	fmt.Printf("%s\n%s\n", out, data)
}
