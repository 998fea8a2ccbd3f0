package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/corpus"
	"haetsal-ai/internal/vectorstore"
)

// Index answers nearest-neighbour queries over the FAQ and terms corpora.
//
// Lifecycle: NewIndex, then LoadFAQ and LoadTerms once at startup, then any
// number of concurrent SearchFAQ and SearchTerms calls. A reload takes the
// write lock, so searches never observe a half-loaded corpus.
type Index struct {
	embedder corpus.Embedder
	faqIdx   vectorstore.Index
	termsIdx vectorstore.Index

	mu          sync.RWMutex
	faq         []corpus.FAQEntry
	terms       []corpus.TermsChunk
	faqLoaded   bool
	termsLoaded bool
}

// IndexStats reports what is loaded.
type IndexStats struct {
	FAQLoaded   bool `json:"faq_loaded"`
	FAQCount    int  `json:"faq_count"`
	TermsLoaded bool `json:"terms_loaded"`
	TermsCount  int  `json:"terms_count"`
	Dimension   int  `json:"dimension"`
}

// NewIndex creates an index that embeds queries with embedder and stores
// FAQ and terms vectors in separate backends of the same dimension.
func NewIndex(embedder corpus.Embedder, faqIdx, termsIdx vectorstore.Index) *Index {
	return &Index{
		embedder: embedder,
		faqIdx:   faqIdx,
		termsIdx: termsIdx,
	}
}

// LoadFAQ replaces the FAQ corpus with records.
func (ix *Index) LoadFAQ(ctx context.Context, records []corpus.EmbeddingRecord[corpus.FAQEntry]) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries, err := loadRecords(ctx, ix.faqIdx, records)
	if err != nil {
		return fmt.Errorf("failed to load faq index: %w", err)
	}
	ix.faq = entries
	ix.faqLoaded = true

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "faq index loaded", "entries", len(entries))
	return nil
}

// LoadTerms replaces the terms corpus with records.
func (ix *Index) LoadTerms(ctx context.Context, records []corpus.EmbeddingRecord[corpus.TermsChunk]) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	chunks, err := loadRecords(ctx, ix.termsIdx, records)
	if err != nil {
		return fmt.Errorf("failed to load terms index: %w", err)
	}
	ix.terms = chunks
	ix.termsLoaded = true

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "terms index loaded", "chunks", len(chunks))
	return nil
}

func loadRecords[T corpus.Embeddable](ctx context.Context, idx vectorstore.Index, records []corpus.EmbeddingRecord[T]) ([]T, error) {
	vectors := make([][]float32, len(records))
	entries := make([]T, len(records))
	for i, rec := range records {
		if len(rec.Embedding) != idx.Dim() {
			return nil, fmt.Errorf("record %d: %w: expected %d, got %d",
				i, vectorstore.ErrDimensionMismatch, idx.Dim(), len(rec.Embedding))
		}
		vectors[i] = rec.Embedding
		entries[i] = rec.Entry
	}

	if err := idx.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset index: %w", err)
	}
	if len(vectors) > 0 {
		if err := idx.Add(ctx, vectors); err != nil {
			return nil, fmt.Errorf("failed to add vectors: %w", err)
		}
	}
	if n := idx.Len(); n != len(records) {
		return nil, fmt.Errorf("index holds %d vectors after loading %d records", n, len(records))
	}
	return entries, nil
}

// SearchFAQ returns up to topN FAQ entries closest to query.
// An empty query, topN <= 0 or an empty corpus yields no results and no error.
func (ix *Index) SearchFAQ(ctx context.Context, query string, topN int) ([]SearchResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if strings.TrimSpace(query) == "" || topN <= 0 {
		return nil, nil
	}
	if !ix.faqLoaded {
		return nil, &RetrievalError{Source: SourceFAQ, Op: "search", Err: ErrIndexNotReady}
	}
	if len(ix.faq) == 0 {
		return nil, nil
	}

	hits, err := ix.nearest(ctx, SourceFAQ, ix.faqIdx, query, min(topN, len(ix.faq)))
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Index < 0 || h.Index >= len(ix.faq) {
			continue
		}
		entry := ix.faq[h.Index]
		results = append(results, SearchResult{
			SourceType: SourceFAQ,
			FAQ:        &entry,
			RawScore:   -float64(h.Distance),
		})
	}
	return results, nil
}

// SearchTerms returns up to topN terms chunks closest to query.
// An empty query, topN <= 0 or an empty corpus yields no results and no error.
func (ix *Index) SearchTerms(ctx context.Context, query string, topN int) ([]SearchResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if strings.TrimSpace(query) == "" || topN <= 0 {
		return nil, nil
	}
	if !ix.termsLoaded {
		return nil, &RetrievalError{Source: SourceTerms, Op: "search", Err: ErrIndexNotReady}
	}
	if len(ix.terms) == 0 {
		return nil, nil
	}

	hits, err := ix.nearest(ctx, SourceTerms, ix.termsIdx, query, min(topN, len(ix.terms)))
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Index < 0 || h.Index >= len(ix.terms) {
			continue
		}
		chunk := ix.terms[h.Index]
		results = append(results, SearchResult{
			SourceType: SourceTerms,
			Terms:      &chunk,
			RawScore:   -float64(h.Distance),
		})
	}
	return results, nil
}

func (ix *Index) nearest(ctx context.Context, source SourceType, idx vectorstore.Index, query string, k int) ([]vectorstore.Neighbor, error) {
	logger := contextutil.LoggerFromContext(ctx)

	vectors, err := ix.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "source", source, "error", err)
		return nil, &RetrievalError{Source: source, Op: "embed", Err: err}
	}
	if len(vectors) != 1 {
		return nil, &RetrievalError{Source: source, Op: "embed", Err: fmt.Errorf("expected 1 embedding, got %d", len(vectors))}
	}

	hits, err := idx.Search(ctx, vectors[0], k)
	if err != nil {
		logger.ErrorContext(ctx, "vector search failed", "source", source, "error", err)
		return nil, &RetrievalError{Source: source, Op: "search", Err: err}
	}
	return hits, nil
}

// Stats reports load state and corpus sizes.
func (ix *Index) Stats() IndexStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return IndexStats{
		FAQLoaded:   ix.faqLoaded,
		FAQCount:    len(ix.faq),
		TermsLoaded: ix.termsLoaded,
		TermsCount:  len(ix.terms),
		Dimension:   ix.faqIdx.Dim(),
	}
}

// Ready reports whether both corpora have been loaded.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.faqLoaded && ix.termsLoaded
}
