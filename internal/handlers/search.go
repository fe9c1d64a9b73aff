package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"memory-lane/internal/contextutil"
	"memory-lane/internal/notes"
)

// SearchHandler handles HTTP requests for semantic note search.
type SearchHandler struct {
	service notes.NoteService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(service notes.NoteService) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchRequest represents the HTTP request payload for semantic search.
// Threshold and Limit are optional; zero values select the defaults.
type SearchRequest struct {
	Query     string  `json:"query"`
	Threshold float32 `json:"threshold,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

// SearchResponse represents the HTTP response payload for semantic search.
type SearchResponse struct {
	Results []notes.SearchMatch `json:"results"`
}

// ServeHTTP handles POST /api/search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	matches, err := h.service.SearchSimilar(ctx, req.Query, req.Threshold, req.Limit)
	if err != nil {
		h.handleSearchError(w, r, err)
		return
	}

	if matches == nil {
		matches = []notes.SearchMatch{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: matches})
}

// handleSearchError maps search failures to HTTP status codes: embedding
// provider failures are a bad gateway, vector store failures mean the search
// backend is unavailable.
func (h *SearchHandler) handleSearchError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "search failed", "error", err)

	var searchErr *notes.SearchError
	if errors.As(err, &searchErr) {
		switch searchErr.Stage {
		case "embed":
			writeError(w, http.StatusBadGateway, "Embedding service unavailable")
			return
		case "search":
			writeError(w, http.StatusServiceUnavailable, "Search backend unavailable")
			return
		}
	}

	writeError(w, http.StatusInternalServerError, "Failed to search notes")
}
