package enrich

import (
	"context"
	"fmt"
	"strings"

	"memory-lane/internal/ai"
	"memory-lane/internal/contextutil"
)

// GenerateEmbedding produces an embedding vector for a note. Title and
// content are concatenated (title, blank line, content) so both carry
// signal. Unlike title and tag generation there is no fallback: errors are
// returned to the caller, who decides whether an embedding-less note is
// acceptable.
func (e *Enricher) GenerateEmbedding(ctx context.Context, title, content string) ([]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	text := strings.TrimSpace(title + "\n\n" + content)
	if text == "" {
		return nil, &ai.ValidationError{Field: "content", Message: "cannot generate an embedding for an empty note"}
	}
	if e.embedder == nil {
		return nil, ai.ErrNoActiveProvider
	}

	resp, err := e.embedder.CreateEmbedding(ctx, text, &ai.EmbeddingOptions{
		Model:      e.opts.EmbeddingModel,
		Dimensions: e.opts.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(resp.Embedding) == 0 {
		return nil, &ai.ValidationError{Field: "embedding", Message: "provider returned an empty vector"}
	}

	logger.DebugContext(ctx, "embedding generated", "dimensions", len(resp.Embedding))
	return resp.Embedding, nil
}
