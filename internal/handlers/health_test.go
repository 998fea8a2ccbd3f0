package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"haetsal-ai/internal/rag"
)

type stubIndex struct {
	ready bool
}

func (s stubIndex) Ready() bool { return s.ready }

func (s stubIndex) Stats() rag.IndexStats {
	return rag.IndexStats{FAQLoaded: s.ready, TermsLoaded: s.ready, FAQCount: 10, TermsCount: 40, Dimension: 384}
}

type stubPinger struct {
	err error
}

func (s stubPinger) PingContext(context.Context) error { return s.err }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		index      stubIndex
		db         stubPinger
		wantStatus int
		wantState  string
		wantIssues int
	}{
		{"healthy", http.MethodGet, stubIndex{ready: true}, stubPinger{}, http.StatusOK, "healthy", 0},
		{"index not ready", http.MethodGet, stubIndex{}, stubPinger{}, http.StatusServiceUnavailable, "degraded", 1},
		{"database down", http.MethodGet, stubIndex{ready: true}, stubPinger{err: errors.New("locked")}, http.StatusServiceUnavailable, "unhealthy", 1},
		{"everything down", http.MethodGet, stubIndex{}, stubPinger{err: errors.New("locked")}, http.StatusServiceUnavailable, "unhealthy", 2},
		{"method not allowed", http.MethodPost, stubIndex{ready: true}, stubPinger{}, http.StatusMethodNotAllowed, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.index, tt.db)

			req := httptest.NewRequest(tt.method, "/api/health", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantState == "" {
				return
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantState)
			}
			if len(resp.Issues) != tt.wantIssues {
				t.Errorf("issues = %v, want %d", resp.Issues, tt.wantIssues)
			}
			if resp.Index.Dimension != 384 {
				t.Errorf("index stats = %+v", resp.Index)
			}
		})
	}
}
