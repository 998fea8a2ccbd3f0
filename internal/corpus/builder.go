package corpus

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks haetsal-ai/internal/corpus Embedder

import (
	"context"
	"fmt"

	"haetsal-ai/internal/contextutil"
)

// DefaultBatchSize is the number of texts sent to the embedder per request.
const DefaultBatchSize = 32

// Embedder generates vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Builder computes embedding records for a corpus.
type Builder struct {
	embedder  Embedder
	modelName string
	batchSize int
}

// NewBuilder creates a builder. A batchSize <= 0 uses DefaultBatchSize.
func NewBuilder(embedder Embedder, modelName string, batchSize int) *Builder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Builder{
		embedder:  embedder,
		modelName: modelName,
		batchSize: batchSize,
	}
}

// BuildRecords embeds every entry in order and returns one record per entry
// together with build statistics.
func BuildRecords[T Embeddable](ctx context.Context, b *Builder, entries []T) ([]EmbeddingRecord[T], *BuildStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.EmbeddingText()
	}

	records := make([]EmbeddingRecord[T], 0, len(entries))
	dim := 0
	batches := 0
	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))

		vectors, err := b.embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate embeddings for batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", end-start, len(vectors))
		}

		for i, vec := range vectors {
			if dim == 0 {
				dim = len(vec)
			}
			if len(vec) != dim {
				return nil, nil, fmt.Errorf("embedding %d has dimension %d, expected %d", start+i, len(vec), dim)
			}
			records = append(records, EmbeddingRecord[T]{Entry: entries[start+i], Embedding: vec})
		}

		batches++
		logger.DebugContext(ctx, "embedded batch", "start", start, "end", end, "total", len(texts))
	}

	stats := computeBuildStats(texts, dim, batches, b.modelName)
	logger.InfoContext(ctx, "built embedding records", "count", len(records), "dimension", dim, "index_version", stats.IndexVersion)
	return records, stats, nil
}
