package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks memory-lane/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
// Implementations are bound to a single collection.
type VectorStore interface {
	// Upsert inserts or updates points.
	Upsert(ctx context.Context, points []Point) error

	// Search performs a similarity search. Results scoring below threshold
	// are excluded; at most limit results are returned, best match first.
	Search(ctx context.Context, query []float32, threshold float32, limit int) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, ids []string) error
}
