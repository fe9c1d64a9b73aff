package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memory-lane/internal/contextutil"
	"memory-lane/internal/notes"
	"memory-lane/internal/storage"
)

// NotesHandler handles HTTP requests for note CRUD operations.
type NotesHandler struct {
	service notes.NoteService
}

// NewNotesHandler creates a new NotesHandler.
func NewNotesHandler(service notes.NoteService) *NotesHandler {
	return &NotesHandler{service: service}
}

// NoteRequest represents the HTTP request payload for creating or updating
// a note. Title is optional; when empty, a title is generated.
type NoteRequest struct {
	Title        string   `json:"title,omitempty"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
}

// NoteResponse represents a note in HTTP responses.
type NoteResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func toNoteResponse(note *storage.Note) NoteResponse {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteResponse{
		ID:           note.ID,
		Title:        note.Title,
		Content:      note.Content,
		Tags:         tags,
		Latitude:     note.Latitude,
		Longitude:    note.Longitude,
		LocationName: note.LocationName,
		CreatedAt:    note.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    note.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /api/notes.
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.service.Create(ctx, notes.CreateInput{
		Title:        req.Title,
		Content:      req.Content,
		Tags:         req.Tags,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LocationName: req.LocationName,
	})
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to create note")
		return
	}

	writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

// List handles GET /api/notes.
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all, err := h.service.List(ctx)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to list notes")
		return
	}

	resp := make([]NoteResponse, 0, len(all))
	for i := range all {
		resp = append(resp, toNoteResponse(&all[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/notes/{id}.
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	note, err := h.service.Get(ctx, id)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to get note")
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

// Update handles PUT /api/notes/{id}.
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	id := chi.URLParam(r, "id")

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.service.Update(ctx, id, notes.UpdateInput{
		Title:        req.Title,
		Content:      req.Content,
		Tags:         req.Tags,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LocationName: req.LocationName,
	})
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to update note")
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

// Delete handles DELETE /api/notes/{id}.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(ctx, id); err != nil {
		h.handleServiceError(w, r, err, "Failed to delete note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps note service errors to HTTP status codes.
func (h *NotesHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var valErr *notes.ValidationError
	switch {
	case errors.As(err, &valErr):
		logger.WarnContext(ctx, "invalid note input", "field", valErr.Field, "error", err)
		writeError(w, http.StatusBadRequest, valErr.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Note not found")
	default:
		logger.ErrorContext(ctx, "note operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
