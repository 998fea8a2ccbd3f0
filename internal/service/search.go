package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks haetsal-ai/internal/service SearchService

import (
	"context"
	"strings"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/rag"
)

// SearchRequest is a diagnostic search outside a chat session.
type SearchRequest struct {
	Query   string
	History []conversation.Turn
	// Options default to rag.DefaultSearchOptions when zero.
	Options rag.SearchOptions
}

// SearchResponse is the search result with a readable explanation.
type SearchResponse struct {
	Result      *rag.EnhancedResult
	Summary     rag.Summary
	Explanation string
}

// SearchService exposes the enhanced search directly.
type SearchService interface {
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
}

type searchService struct {
	searcher Searcher
}

// NewSearchService creates a SearchService.
func NewSearchService(searcher Searcher) SearchService {
	return &searchService{searcher: searcher}
}

func (s *searchService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return SearchResponse{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	opts := req.Options
	if opts == (rag.SearchOptions{}) {
		opts = rag.DefaultSearchOptions()
	}

	res, err := s.searcher.Search(ctx, req.History, query, opts)
	if err != nil {
		if res == nil || len(res.Results) == 0 {
			logger.ErrorContext(ctx, "search failed", "error", err)
			return SearchResponse{}, externalError(err, "failed to search")
		}
		logger.WarnContext(ctx, "search partially failed", "error", err)
	}
	if res == nil {
		res = &rag.EnhancedResult{Results: []rag.RankedResult{}}
	}

	hits := make([]rag.SearchResult, len(res.Results))
	for i, r := range res.Results {
		hits[i] = r.SearchResult
	}
	summary := rag.Summarize(hits)

	logger.InfoContext(ctx, "search completed",
		"results", summary.Total,
		"faq", summary.FAQ,
		"terms", summary.Terms,
		"strategy", res.Metadata.Strategy)
	return SearchResponse{Result: res, Summary: summary, Explanation: rag.Explain(res.Metadata)}, nil
}
