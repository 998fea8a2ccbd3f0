package handlers

import (
	"net/http"

	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/service"
)

// SearchHandler exposes the conversation-aware search for diagnostics.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchRequest represents the HTTP request payload for search.
// Omitted limits take the search defaults.
//
// swagger:model SearchRequest
type SearchRequest struct {
	Query      string        `json:"query"`
	History    []HistoryTurn `json:"history,omitempty"`
	FAQTopK    int           `json:"faq_top_k,omitempty"`
	TermsTopK  int           `json:"terms_top_k,omitempty"`
	MaxResults int           `json:"max_results,omitempty"`
}

// SearchResponse represents the HTTP response payload for search.
//
// swagger:model SearchResponse
type SearchResponse struct {
	Results     []rag.RankedResult `json:"results"`
	Metadata    rag.Metadata       `json:"search_metadata"`
	Summary     rag.Summary        `json:"summary"`
	Explanation string             `json:"explanation"`
}

// ServeHTTP handles POST /api/search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	opts := rag.DefaultSearchOptions()
	if req.FAQTopK > 0 {
		opts.FAQTopN = req.FAQTopK
	}
	if req.TermsTopK > 0 {
		opts.TermsTopN = req.TermsTopK
	}
	if req.MaxResults > 0 {
		opts.MaxResults = req.MaxResults
	}

	svcResp, err := h.searchService.Search(ctx, service.SearchRequest{
		Query:   req.Query,
		History: toTurns(req.History),
		Options: opts,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search")
		return
	}

	resp := SearchResponse{Results: []rag.RankedResult{}, Summary: svcResp.Summary, Explanation: svcResp.Explanation}
	if svcResp.Result != nil {
		resp.Metadata = svcResp.Result.Metadata
		if svcResp.Result.Results != nil {
			resp.Results = svcResp.Result.Results
		}
	}
	writeJSON(w, ctx, resp)
}
