package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"haetsal-ai/internal/handlers"
	"haetsal-ai/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService   service.ChatService
	SearchService service.SearchService
	Personas      handlers.PersonaStore
	Index         handlers.IndexStatus
	DB            handlers.Pinger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	personaHandler := handlers.NewPersonaHandler(deps.Personas)
	searchHandler := handlers.NewSearchHandler(deps.SearchService)
	healthHandler := handlers.NewHealthHandler(deps.Index, deps.DB)

	r.Route("/api", func(r chi.Router) {
		r.Route("/chat", func(r chi.Router) {
			r.Method(http.MethodPost, "/message", chatHandler)
			r.Post("/end-session", chatHandler.EndSession)
			r.Post("/submit-rating", chatHandler.SubmitRating)
		})
		r.Get("/personas", personaHandler.List)
		r.Get("/personas/{id}", personaHandler.Get)
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
