package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"haetsal-ai/internal/contextutil"
	"haetsal-ai/internal/persona"
)

const defaultPersonaLimit = 20

// PersonaStore is the read side of the persona catalogue.
type PersonaStore interface {
	List(keyword string, limit int) []persona.Persona
	Get(id string) (persona.Persona, error)
}

// PersonaHandler serves the customer persona catalogue.
type PersonaHandler struct {
	store PersonaStore
}

// NewPersonaHandler creates a new PersonaHandler.
func NewPersonaHandler(store PersonaStore) *PersonaHandler {
	return &PersonaHandler{store: store}
}

// PersonaListResponse is the result of a persona search.
//
// swagger:model PersonaListResponse
type PersonaListResponse struct {
	Personas []persona.Persona `json:"personas"`
	Count    int               `json:"count"`
}

// List handles GET /api/personas?keyword=&limit=.
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := defaultPersonaLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			logger.WarnContext(ctx, "invalid persona limit", "limit", raw)
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	personas := h.store.List(r.URL.Query().Get("keyword"), limit)
	writeJSON(w, ctx, PersonaListResponse{Personas: personas, Count: len(personas)})
}

// Get handles GET /api/personas/{id}.
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	p, err := h.store.Get(id)
	if errors.Is(err, persona.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Persona not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "persona lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load persona")
		return
	}

	writeJSON(w, ctx, p)
}
