package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"memory-lane/internal/ai"
	"memory-lane/internal/config"
	"memory-lane/internal/enrich"
	"memory-lane/internal/http"
	"memory-lane/internal/notes"
	"memory-lane/internal/storage"
	"memory-lane/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	noteRepo := storage.NewNoteRepo(db)

	// Initialize Qdrant vector store
	ctx := context.Background()
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Configure the AI provider layer. Providers with missing keys are
	// skipped; the app still runs, saving unenriched notes.
	aiService, err := ai.NewService(ai.ServiceOptions{
		DefaultProvider: cfg.DefaultProvider,
		RequestTimeout:  cfg.AIRequestTimeout,
		OpenAI: ai.ProviderConfig{
			APIKey:       cfg.OpenAI.APIKey,
			Model:        cfg.OpenAI.Model,
			Organization: cfg.OpenAI.Organization,
			BaseURL:      cfg.OpenAI.BaseURL,
		},
		Gemini: ai.ProviderConfig{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		},
		EmbeddingModel: cfg.EmbeddingModel,
	})
	if err != nil {
		log.Fatalf("Failed to configure AI providers: %v", err)
	}
	if !aiService.InitializeProviders() {
		slog.Warn("No AI providers configured; notes will be saved without AI enrichment")
	}

	enricher := enrich.New(aiService, aiService, enrich.Options{
		TitleGeneration:     cfg.Features.TitleGeneration,
		TagSuggestions:      cfg.Features.TagSuggestions,
		TagMinContentLength: cfg.TagMinContentLength,
		TagMaxGenerated:     cfg.TagMaxGenerated,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	noteService := notes.NewService(noteRepo, vectorStore, enricher)
	slog.Info("Note service initialized", "default_provider", cfg.DefaultProvider)

	// Create router with dependencies
	deps := &http.Deps{
		NoteService: noteService,
		ChatService: aiService,
		DB:          db,
		Vectors:     vectorStore,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
