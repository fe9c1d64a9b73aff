package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"memory-lane/internal/handlers"
	"memory-lane/internal/notes"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	NoteService notes.NoteService
	ChatService handlers.ChatService
	DB          *sql.DB
	Vectors     handlers.CollectionChecker
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	notesHandler := handlers.NewNotesHandler(deps.NoteService)
	searchHandler := handlers.NewSearchHandler(deps.NoteService)
	assistantHandler := handlers.NewAssistantHandler(deps.ChatService)
	noteViewHandler := handlers.NewNoteViewHandler(deps.NoteService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Vectors)

	r.Route("/api", func(r chi.Router) {
		r.Route("/notes", func(r chi.Router) {
			r.Post("/", notesHandler.Create)
			r.Get("/", notesHandler.List)
			r.Get("/{id}", notesHandler.Get)
			r.Put("/{id}", notesHandler.Update)
			r.Delete("/{id}", notesHandler.Delete)
		})
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodPost, "/assistant", assistantHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	r.Method(http.MethodGet, "/notes/{id}/view", noteViewHandler)

	return r
}
