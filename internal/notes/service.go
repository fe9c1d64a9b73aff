// Package notes implements the note lifecycle: creation with AI enrichment,
// updates with re-embedding, deletion, and semantic similarity search.
package notes

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_notes.go -package=mocks memory-lane/internal/notes Enricher,NoteService

import (
	"context"
	"log/slog"
	"strings"

	"memory-lane/internal/contextutil"
	"memory-lane/internal/enrich"
	"memory-lane/internal/storage"
	"memory-lane/internal/vectorstore"
)

const (
	// DefaultSearchThreshold is the minimum cosine similarity for a note to
	// count as a search match.
	DefaultSearchThreshold float32 = 0.7

	// DefaultSearchLimit caps how many matches a search returns.
	DefaultSearchLimit = 10
)

// Enricher is the enrichment capability the note service consumes.
// Satisfied by *enrich.Enricher.
type Enricher interface {
	GenerateTitle(ctx context.Context, content string) enrich.TitleResult
	GenerateTags(ctx context.Context, content, title string, existing []string) enrich.TagsResult
	GenerateEmbedding(ctx context.Context, title, content string) ([]float32, error)
}

// NoteService defines the note operations the HTTP layer consumes.
type NoteService interface {
	Create(ctx context.Context, input CreateInput) (*storage.Note, error)
	Get(ctx context.Context, id string) (*storage.Note, error)
	List(ctx context.Context) ([]storage.Note, error)
	Update(ctx context.Context, id string, input UpdateInput) (*storage.Note, error)
	Delete(ctx context.Context, id string) error
	SearchSimilar(ctx context.Context, query string, threshold float32, limit int) ([]SearchMatch, error)
}

// CreateInput carries the fields a client may supply when creating a note.
// A non-empty Title short-circuits AI title generation.
type CreateInput struct {
	Title        string
	Content      string
	Tags         []string
	Latitude     *float64
	Longitude    *float64
	LocationName string
}

// UpdateInput carries the fields a client may change on an existing note.
type UpdateInput struct {
	Title        string
	Content      string
	Tags         []string
	Latitude     *float64
	Longitude    *float64
	LocationName string
}

// SearchMatch is one semantic search result.
type SearchMatch struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// Service coordinates the note store, the vector store and AI enrichment.
type Service struct {
	store    storage.NoteStore
	vectors  vectorstore.VectorStore
	enricher Enricher
	logger   *slog.Logger

	// spawn runs the deferred embedding phase. Production uses a goroutine;
	// tests swap in a synchronous runner.
	spawn func(func())
}

// NewService creates a note service.
func NewService(store storage.NoteStore, vectors vectorstore.VectorStore, enricher Enricher) *Service {
	return &Service{
		store:    store,
		vectors:  vectors,
		enricher: enricher,
		logger:   slog.Default(),
		spawn:    func(fn func()) { go fn() },
	}
}

// Create saves a new note. The note row is durable before any embedding work
// starts; embedding failures never fail the save.
func (s *Service) Create(ctx context.Context, input CreateInput) (*storage.Note, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(input.Content) == "" {
		return nil, &ValidationError{Field: "content", Message: "content must not be empty"}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		result := s.enricher.GenerateTitle(ctx, input.Content)
		title = result.Title
		logger.InfoContext(ctx, "generated note title", "source", result.Source)
	}

	tagsResult := s.enricher.GenerateTags(ctx, input.Content, title, input.Tags)

	note := &storage.Note{
		Title:        title,
		Content:      input.Content,
		Tags:         tagsResult.Tags,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		LocationName: input.LocationName,
	}

	if err := s.store.Create(ctx, note); err != nil {
		return nil, err
	}

	s.embedAsync(ctx, note)
	return note, nil
}

// Get returns a note by ID.
func (s *Service) Get(ctx context.Context, id string) (*storage.Note, error) {
	return s.store.GetByID(ctx, id)
}

// List returns all notes, most recently updated first.
func (s *Service) List(ctx context.Context) ([]storage.Note, error) {
	return s.store.List(ctx)
}

// Update rewrites a note and re-embeds it. Like Create, the row update is
// durable before the embedding refresh starts.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*storage.Note, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, &ValidationError{Field: "content", Message: "content must not be empty"}
	}

	note, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		result := s.enricher.GenerateTitle(ctx, input.Content)
		title = result.Title
	}

	tagsResult := s.enricher.GenerateTags(ctx, input.Content, title, input.Tags)

	note.Title = title
	note.Content = input.Content
	note.Tags = tagsResult.Tags
	note.Latitude = input.Latitude
	note.Longitude = input.Longitude
	note.LocationName = input.LocationName

	if err := s.store.Update(ctx, note); err != nil {
		return nil, err
	}

	s.embedAsync(ctx, note)
	return note, nil
}

// Delete removes a note row and its vector point. A vector delete failure is
// logged but does not fail the operation; the row is the source of truth.
func (s *Service) Delete(ctx context.Context, id string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.vectors.Delete(ctx, []string{id}); err != nil {
		logger.WarnContext(ctx, "failed to delete note vector", "note_id", id, "error", err)
	}
	return nil
}

// SearchSimilar finds notes semantically close to the query. A threshold of 0
// or below falls back to DefaultSearchThreshold, and a limit of 0 or below to
// DefaultSearchLimit. An empty query returns no matches without calling the
// embedding provider.
func (s *Service) SearchSimilar(ctx context.Context, query string, threshold float32, limit int) ([]SearchMatch, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(query) == "" {
		return []SearchMatch{}, nil
	}
	if threshold <= 0 {
		threshold = DefaultSearchThreshold
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	vec, err := s.enricher.GenerateEmbedding(ctx, "", query)
	if err != nil {
		return nil, &SearchError{Stage: "embed", Err: err}
	}

	results, err := s.vectors.Search(ctx, vec, threshold, limit)
	if err != nil {
		return nil, &SearchError{Stage: "search", Err: err}
	}

	matches := make([]SearchMatch, 0, len(results))
	for _, r := range results {
		match := SearchMatch{ID: r.PointID, Similarity: r.Score}
		if title, ok := r.Meta["title"].(string); ok {
			match.Title = title
		}
		if content, ok := r.Meta["content"].(string); ok {
			match.Content = content
		}
		matches = append(matches, match)
	}

	logger.InfoContext(ctx, "similarity search completed", "matches", len(matches), "threshold", threshold, "limit", limit)
	return matches, nil
}

// embedAsync generates and upserts the note's embedding off the request path.
// The note is already durable; failures here are logged and swallowed, leaving
// the note saved but unsearchable until the next update.
func (s *Service) embedAsync(ctx context.Context, note *storage.Note) {
	// The request context will be cancelled when the response is written;
	// the embedding work must outlive it.
	bgCtx := context.WithoutCancel(ctx)
	logger := contextutil.LoggerFromContext(ctx)

	id := note.ID
	title := note.Title
	content := note.Content
	tags := append([]string(nil), note.Tags...)

	s.spawn(func() {
		vec, err := s.enricher.GenerateEmbedding(bgCtx, title, content)
		if err != nil {
			logger.WarnContext(bgCtx, "failed to generate note embedding", "note_id", id, "error", err)
			return
		}

		tagsMeta := make([]any, len(tags))
		for i, tag := range tags {
			tagsMeta[i] = tag
		}

		point := vectorstore.Point{
			ID:  id,
			Vec: vec,
			Meta: map[string]any{
				"title":   title,
				"content": content,
				"tags":    tagsMeta,
			},
		}
		if err := s.vectors.Upsert(bgCtx, []vectorstore.Point{point}); err != nil {
			logger.WarnContext(bgCtx, "failed to upsert note embedding", "note_id", id, "error", err)
			return
		}

		logger.InfoContext(bgCtx, "note embedding stored", "note_id", id)
	})
}
