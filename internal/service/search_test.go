package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/service"
	"haetsal-ai/internal/service/mocks"
)

func TestSearchService_Search(t *testing.T) {
	found := &rag.EnhancedResult{
		Results:  []rag.RankedResult{{SearchResult: faqHit("사고 접수", "", 1)}},
		Metadata: rag.Metadata{Strategy: conversation.StrategyBalanced},
	}

	tests := []struct {
		name      string
		req       service.SearchRequest
		result    *rag.EnhancedResult
		searchErr error
		calls     bool
		wantErr   error
	}{
		{name: "found", req: service.SearchRequest{Query: " 사고 접수 "}, result: found, calls: true},
		{name: "partial failure", req: service.SearchRequest{Query: "사고"}, result: found, searchErr: errors.New("terms down"), calls: true},
		{name: "empty query", req: service.SearchRequest{Query: "  "}, wantErr: service.ErrInvalidInput},
		{name: "total failure", req: service.SearchRequest{Query: "사고"}, result: &rag.EnhancedResult{}, searchErr: rag.ErrIndexNotReady, calls: true, wantErr: service.ErrExternalService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			searcher := mocks.NewMockSearcher(ctrl)
			if tt.calls {
				searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), rag.DefaultSearchOptions()).
					Return(tt.result, tt.searchErr)
			}

			resp, err := service.NewSearchService(searcher).Search(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Search() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(resp.Result.Results) != 1 || resp.Explanation != "균형잡힌 방식으로 검색했습니다." {
				t.Errorf("Search() = %+v, %q", resp.Result, resp.Explanation)
			}
			if want := (rag.Summary{Total: 1, FAQ: 1}); resp.Summary != want {
				t.Errorf("Search() summary = %+v, want %+v", resp.Summary, want)
			}
		})
	}
}
