package ai

import "context"

// Chat message roles shared by all providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single provider-agnostic message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestOptions holds per-request parameters for chat completions.
// Unset fields fall back to provider defaults; they are never coerced to
// zero values on the wire.
type RequestOptions struct {
	// MaxTokens caps the number of generated tokens. 0 means no explicit cap.
	MaxTokens int

	// Temperature controls randomness, in [0, 2]. nil means the vendor default.
	// A pointer is used because 0 is a meaningful temperature.
	Temperature *float32

	// StopSequences end generation when emitted.
	StopSequences []string

	// SystemMessage is prepended as a system turn when the message slice
	// does not already carry one.
	SystemMessage string
}

// Usage reports token accounting for a request. Advisory only; callers must
// not depend on it for correctness.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the provider-agnostic result of a chat completion.
// Text may be empty for a valid-but-empty completion.
type Response struct {
	Text  string
	Usage *Usage
}

// EmbeddingOptions holds per-request parameters for embedding generation.
type EmbeddingOptions struct {
	// Model overrides the provider's default embedding model.
	Model string

	// Dimensions requests a specific output dimensionality, for models that
	// support shortening. 0 means the model default.
	Dimensions int
}

// EmbeddingResponse is the provider-agnostic result of embedding generation.
// The vector is returned exactly as the vendor produced it; normalization,
// if any, is the vendor's responsibility.
type EmbeddingResponse struct {
	Embedding []float32
	Usage     *Usage
}

// ProviderConfig carries the credentials and model selection used to
// initialize a provider.
type ProviderConfig struct {
	APIKey       string
	Model        string
	Organization string
	BaseURL      string
}

// Provider is the contract every AI backend must satisfy.
type Provider interface {
	// ID returns the unique provider identifier (e.g. "openai").
	ID() string

	// DisplayName returns the human-readable provider name.
	DisplayName() string

	// Initialize configures the provider. It fails with a
	// *ConfigurationError if the API key is missing and is idempotent:
	// calling it again re-configures the provider.
	Initialize(cfg ProviderConfig) error

	// IsInitialized reports whether the provider is ready to serve requests.
	IsInitialized() bool

	// ChatCompletion sends a conversation to the backend and returns the
	// assistant response. It fails with a *ProviderError when the vendor
	// call fails, and never errors on an empty-but-valid completion.
	ChatCompletion(ctx context.Context, messages []ChatMessage, opts *RequestOptions) (*Response, error)
}

// Embedder is the optional embedding capability. Providers that support
// embedding generation implement it in addition to Provider; callers
// discover it with a type assertion.
type Embedder interface {
	// CreateEmbedding generates an embedding vector for the given text.
	CreateEmbedding(ctx context.Context, text string, opts *EmbeddingOptions) (*EmbeddingResponse, error)
}
