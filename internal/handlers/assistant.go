package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"memory-lane/internal/ai"
	"memory-lane/internal/contextutil"
)

// assistantSystemMessage frames the assistant for journal-related questions.
const assistantSystemMessage = "You are a helpful AI assistant for the Memory Lane journal app. Provide concise, accurate responses."

// ChatService is the chat capability the assistant handler consumes.
// Satisfied by *ai.Service.
type ChatService interface {
	ChatCompletion(ctx context.Context, messages []ai.ChatMessage, opts *ai.RequestOptions) (*ai.Response, error)
}

// AssistantHandler handles HTTP requests for the journal assistant.
type AssistantHandler struct {
	chat ChatService
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(chat ChatService) *AssistantHandler {
	return &AssistantHandler{chat: chat}
}

// AssistantRequest represents the HTTP request payload for assistant chat.
// History carries prior turns in order, oldest first.
type AssistantRequest struct {
	Message string           `json:"message"`
	History []ai.ChatMessage `json:"history,omitempty"`
}

// AssistantResponse represents the HTTP response payload for assistant chat.
type AssistantResponse struct {
	Reply string `json:"reply"`
}

// ServeHTTP handles POST /api/assistant.
func (h *AssistantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	messages := make([]ai.ChatMessage, 0, len(req.History)+1)
	messages = append(messages, req.History...)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: req.Message})

	resp, err := h.chat.ChatCompletion(ctx, messages, &ai.RequestOptions{
		SystemMessage: assistantSystemMessage,
	})
	if err != nil {
		h.handleChatError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AssistantResponse{Reply: resp.Text})
}

// handleChatError maps provider failures to HTTP status codes.
func (h *AssistantHandler) handleChatError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "assistant chat failed", "error", err)

	var cfgErr *ai.ConfigurationError
	switch {
	case errors.Is(err, ai.ErrNoActiveProvider), errors.As(err, &cfgErr):
		writeError(w, http.StatusServiceUnavailable, "No AI provider available")
	default:
		writeError(w, http.StatusBadGateway, "AI provider error")
	}
}
