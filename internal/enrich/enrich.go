// Package enrich derives titles, tags and embeddings from note content.
//
// Title and tag generation never fail a note save: any AI failure degrades
// to a deterministic fallback. Embedding generation is different — its
// errors are caller-visible, because an embedding-less note is a degraded
// state the caller must decide how to handle.
package enrich

import (
	"context"
	"log/slog"

	"memory-lane/internal/ai"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_clients.go -package=mocks memory-lane/internal/enrich ChatClient,EmbeddingClient

// ChatClient is the chat-completion capability the enricher consumes.
// Satisfied by *ai.Service.
type ChatClient interface {
	ChatCompletion(ctx context.Context, messages []ai.ChatMessage, opts *ai.RequestOptions) (*ai.Response, error)
}

// EmbeddingClient is the embedding capability the enricher consumes.
// Satisfied by *ai.Service.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, text string, opts *ai.EmbeddingOptions) (*ai.EmbeddingResponse, error)
}

// Source records how an enrichment value was produced, so callers and tests
// can tell "AI succeeded" apart from "AI failed and the fallback engaged".
type Source string

const (
	// SourceAI means the value came from a successful AI call.
	SourceAI Source = "ai"
	// SourceFallback means the deterministic fallback produced the value.
	SourceFallback Source = "fallback"
	// SourceUser means user-supplied input was passed through unchanged.
	SourceUser Source = "user"
)

// Options carries the feature flags and limits for enrichment. It is built
// once at the composition root from configuration and threaded in
// explicitly; enrichment functions never read ambient config.
type Options struct {
	TitleGeneration bool
	TagSuggestions  bool

	// TagMinContentLength is the minimum content length (in characters)
	// required before AI tag generation runs.
	TagMinContentLength int

	// TagMaxGenerated caps how many AI-suggested tags are appended.
	TagMaxGenerated int

	EmbeddingModel      string
	EmbeddingDimensions int
}

// Enricher runs AI-backed note enrichment with deterministic fallbacks.
type Enricher struct {
	chat     ChatClient
	embedder EmbeddingClient
	opts     Options
	logger   *slog.Logger
}

// New creates an Enricher.
func New(chat ChatClient, embedder EmbeddingClient, opts Options) *Enricher {
	return &Enricher{
		chat:     chat,
		embedder: embedder,
		opts:     opts,
		logger:   slog.Default(),
	}
}
