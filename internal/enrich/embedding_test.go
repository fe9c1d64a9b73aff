package enrich_test

import (
	"context"
	"errors"
	"testing"

	"memory-lane/internal/ai"
	"memory-lane/internal/enrich"
	"memory-lane/internal/enrich/mocks"

	"go.uber.org/mock/gomock"
)

func TestGenerateEmbedding_CombinesTitleAndContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbeddingClient(ctrl)
	embedder.EXPECT().
		CreateEmbedding(gomock.Any(), "Morning walk\n\nWalked along the river before work.", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, opts *ai.EmbeddingOptions) (*ai.EmbeddingResponse, error) {
			if opts.Model != "text-embedding-3-small" {
				t.Errorf("opts.Model = %q, want text-embedding-3-small", opts.Model)
			}
			if opts.Dimensions != 1536 {
				t.Errorf("opts.Dimensions = %d, want 1536", opts.Dimensions)
			}
			return &ai.EmbeddingResponse{Embedding: []float32{0.1, 0.2, 0.3}}, nil
		})

	e := enrich.New(nil, embedder, defaultOptions())
	vec, err := e.GenerateEmbedding(context.Background(), "Morning walk", "Walked along the river before work.")
	if err != nil {
		t.Fatalf("GenerateEmbedding() unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("embedding length = %d, want 3", len(vec))
	}
}

func TestGenerateEmbedding_EmptyNote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbeddingClient(ctrl)
	embedder.EXPECT().CreateEmbedding(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	e := enrich.New(nil, embedder, defaultOptions())
	_, err := e.GenerateEmbedding(context.Background(), "", "   ")

	var valErr *ai.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("GenerateEmbedding() error = %v, want *ai.ValidationError", err)
	}
}

func TestGenerateEmbedding_ProviderErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	wrapped := &ai.ConfigurationError{Provider: "openai", Key: "apiKey"}
	embedder := mocks.NewMockEmbeddingClient(ctrl)
	embedder.EXPECT().
		CreateEmbedding(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, wrapped)

	e := enrich.New(nil, embedder, defaultOptions())
	_, err := e.GenerateEmbedding(context.Background(), "Title", "Content")

	// No fallback here: the caller must see the failure.
	var cfgErr *ai.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("GenerateEmbedding() error = %v, want wrapped *ai.ConfigurationError", err)
	}
}

func TestGenerateEmbedding_EmptyVectorRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbeddingClient(ctrl)
	embedder.EXPECT().
		CreateEmbedding(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ai.EmbeddingResponse{Embedding: []float32{}}, nil)

	e := enrich.New(nil, embedder, defaultOptions())
	_, err := e.GenerateEmbedding(context.Background(), "Title", "Content")

	var valErr *ai.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("GenerateEmbedding() error = %v, want *ai.ValidationError", err)
	}
}
