package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks memory-lane/internal/ai Provider

// ServiceOptions configures a Service at construction time.
type ServiceOptions struct {
	// DefaultProvider is the provider that serves chat requests.
	DefaultProvider string

	// RequestTimeout bounds every vendor HTTP call.
	RequestTimeout time.Duration

	// Per-provider credentials. A provider with an empty API key stays
	// registered but uninitialized; the app keeps working via fallbacks.
	OpenAI ProviderConfig
	Gemini ProviderConfig

	// EmbeddingModel overrides the embedding provider's default model.
	// Must stay pinned to the model whose vectors are already persisted.
	EmbeddingModel string
}

// Service is the provider registry. It holds every registered provider,
// tracks which one is active for chat, and dispatches chat and embedding
// requests.
//
// The active provider is selected at startup and treated as effectively
// immutable afterwards; SetActiveProvider is not safe concurrently with
// in-flight calls.
type Service struct {
	providers map[string]Provider
	configs   map[string]ProviderConfig

	active string

	// embeddingID pins embedding generation to one provider regardless of
	// which provider is active for chat. Mixing embedding spaces across
	// models would make stored similarity scores meaningless.
	embeddingID string

	initialized bool
	logger      *slog.Logger
}

// NewService builds a Service with the openai and gemini providers
// registered and the configured default provider active.
func NewService(opts ServiceOptions) (*Service, error) {
	s := &Service{
		providers:   make(map[string]Provider),
		configs:     make(map[string]ProviderConfig),
		embeddingID: openAIProviderID,
		logger:      slog.Default(),
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	openai := NewOpenAIProvider(timeout)
	openai.SetEmbeddingModel(opts.EmbeddingModel)
	s.RegisterProvider(openai, opts.OpenAI)
	s.RegisterProvider(NewGeminiProvider(timeout), opts.Gemini)

	if err := s.SetActiveProvider(opts.DefaultProvider); err != nil {
		return nil, err
	}

	return s, nil
}

// RegisterProvider adds a provider and its configuration to the registry.
func (s *Service) RegisterProvider(p Provider, cfg ProviderConfig) {
	s.providers[p.ID()] = p
	s.configs[p.ID()] = cfg
	s.logger.Info("AI provider registered", "provider", p.ID())
}

// SetActiveProvider selects the provider that serves chat requests.
// It fails with *UnknownProviderError for unregistered names.
func (s *Service) SetActiveProvider(name string) error {
	if _, ok := s.providers[name]; !ok {
		return &UnknownProviderError{Name: name, Available: s.ProviderNames()}
	}
	s.active = name
	s.logger.Info("active AI provider set", "provider", name)
	return nil
}

// ActiveProvider returns the provider currently serving chat requests, or
// nil when none is set.
func (s *Service) ActiveProvider() Provider {
	return s.providers[s.active]
}

// ActiveProviderName returns the name of the active provider.
func (s *Service) ActiveProviderName() string {
	return s.active
}

// ProviderNames returns the registered provider names, sorted.
func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsInitialized reports whether at least one provider initialized
// successfully.
func (s *Service) IsInitialized() bool {
	return s.initialized
}

// InitializeProviders attempts to initialize every registered provider from
// its configuration. A provider with a missing API key is skipped with a
// warning rather than treated as an error; the AI subsystem is optional and
// the app must keep functioning through fallbacks when nothing initializes.
// Returns true iff at least one provider initialized successfully.
func (s *Service) InitializeProviders() bool {
	any := false
	for _, name := range s.ProviderNames() {
		provider := s.providers[name]
		cfg := s.configs[name]
		if cfg.APIKey == "" {
			s.logger.Warn("AI provider initialization skipped: no API key provided", "provider", name)
			continue
		}
		if err := provider.Initialize(cfg); err != nil {
			s.logger.Error("failed to initialize AI provider", "provider", name, "error", err)
			continue
		}
		s.logger.Info("AI provider initialized", "provider", name)
		any = true
	}
	s.initialized = s.initialized || any
	return any
}

// ChatCompletion dispatches a chat request to the active provider,
// initializing it just-in-time from its configuration if needed.
func (s *Service) ChatCompletion(ctx context.Context, messages []ChatMessage, opts *RequestOptions) (*Response, error) {
	provider := s.ActiveProvider()
	if provider == nil {
		return nil, ErrNoActiveProvider
	}

	if err := s.ensureInitialized(provider); err != nil {
		return nil, err
	}

	return provider.ChatCompletion(ctx, messages, opts)
}

// CreateEmbedding generates an embedding using the embedding provider. The
// active chat provider is deliberately ignored here: chat may run against
// any backend, but embeddings always come from the backend whose vector
// space the persisted notes already use.
func (s *Service) CreateEmbedding(ctx context.Context, text string, opts *EmbeddingOptions) (*EmbeddingResponse, error) {
	provider, ok := s.providers[s.embeddingID]
	if !ok {
		return nil, &UnknownProviderError{Name: s.embeddingID, Available: s.ProviderNames()}
	}

	embedder, ok := provider.(Embedder)
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", provider.ID(), ErrUnsupportedOperation)
	}

	if err := s.ensureInitialized(provider); err != nil {
		return nil, err
	}

	return embedder.CreateEmbedding(ctx, text, opts)
}

// ensureInitialized performs just-in-time initialization for a provider
// that was skipped during startup. A missing API key surfaces as a
// *ConfigurationError to the caller.
func (s *Service) ensureInitialized(provider Provider) error {
	if provider.IsInitialized() {
		return nil
	}
	cfg := s.configs[provider.ID()]
	if cfg.APIKey == "" {
		return &ConfigurationError{Provider: provider.ID(), Key: "apiKey"}
	}
	if err := provider.Initialize(cfg); err != nil {
		return err
	}
	s.initialized = true
	return nil
}
