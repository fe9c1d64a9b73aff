package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	openAIProviderID   = "openai"
	openAIProviderName = "OpenAI"

	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultOpenAIChatModel      = "gpt-4o-mini"
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
)

// OpenAIProvider talks to an OpenAI-compatible REST API. It serves both chat
// completions and embeddings.
type OpenAIProvider struct {
	baseURL        string
	apiKey         string
	organization   string
	model          string
	embeddingModel string
	client         *http.Client
	initialized    bool
}

// NewOpenAIProvider creates an uninitialized OpenAI provider. Initialize
// must be called with an API key before first use.
func NewOpenAIProvider(timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL:        defaultOpenAIBaseURL,
		model:          defaultOpenAIChatModel,
		embeddingModel: defaultOpenAIEmbeddingModel,
		client:         &http.Client{Timeout: timeout},
	}
}

// ID returns the unique provider identifier.
func (p *OpenAIProvider) ID() string { return openAIProviderID }

// DisplayName returns the human-readable provider name.
func (p *OpenAIProvider) DisplayName() string { return openAIProviderName }

// Initialize configures the provider with API key, model and optional
// organization/base URL. Calling it again re-configures the provider.
func (p *OpenAIProvider) Initialize(cfg ProviderConfig) error {
	if cfg.APIKey == "" {
		return &ConfigurationError{Provider: openAIProviderID, Key: "apiKey"}
	}

	p.apiKey = cfg.APIKey
	p.organization = cfg.Organization
	if cfg.Model != "" {
		p.model = cfg.Model
	}
	if cfg.BaseURL != "" {
		p.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	p.initialized = true
	return nil
}

// IsInitialized reports whether Initialize has succeeded.
func (p *OpenAIProvider) IsInitialized() bool {
	return p.initialized && p.apiKey != ""
}

// SetEmbeddingModel overrides the default embedding model identifier.
func (p *OpenAIProvider) SetEmbeddingModel(model string) {
	if model != "" {
		p.embeddingModel = model
	}
}

// EmbeddingModel returns the embedding model identifier currently in use.
func (p *OpenAIProvider) EmbeddingModel() string { return p.embeddingModel }

// openAIChatRequest is the request payload for /chat/completions.
type openAIChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

// openAIUsage mirrors the usage block returned by the API.
type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// openAIChatResponse is the response payload from /chat/completions.
type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *openAIUsage `json:"usage"`
}

// ChatCompletion sends a chat completion request.
// An empty-but-valid completion returns Text "" with a nil error.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, messages []ChatMessage, opts *RequestOptions) (*Response, error) {
	if !p.IsInitialized() {
		return nil, fmt.Errorf("openai: %w", ErrNotInitialized)
	}

	payload := openAIChatRequest{
		Model:    p.model,
		Messages: withSystemMessage(messages, opts),
	}
	if opts != nil {
		payload.MaxTokens = opts.MaxTokens
		payload.Temperature = opts.Temperature
		payload.Stop = opts.StopSequences
	}

	var chatResp openAIChatResponse
	if err := p.post(ctx, "/chat/completions", payload, &chatResp); err != nil {
		return nil, err
	}

	text := ""
	if len(chatResp.Choices) > 0 {
		text = chatResp.Choices[0].Message.Content
	}

	var usage *Usage
	if chatResp.Usage != nil {
		usage = &Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		}
	}

	return &Response{Text: text, Usage: usage}, nil
}

// openAIEmbeddingRequest is the request payload for /embeddings.
type openAIEmbeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// openAIEmbeddingResponse is the response payload from /embeddings.
type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage *openAIUsage `json:"usage"`
}

// CreateEmbedding generates an embedding vector for the given text.
// The vector is returned as the vendor produced it, without re-normalization.
func (p *OpenAIProvider) CreateEmbedding(ctx context.Context, text string, opts *EmbeddingOptions) (*EmbeddingResponse, error) {
	if !p.IsInitialized() {
		return nil, fmt.Errorf("openai: %w", ErrNotInitialized)
	}

	payload := openAIEmbeddingRequest{
		Model: p.embeddingModel,
		Input: text,
	}
	if opts != nil {
		if opts.Model != "" {
			payload.Model = opts.Model
		}
		payload.Dimensions = opts.Dimensions
	}

	var embResp openAIEmbeddingResponse
	if err := p.post(ctx, "/embeddings", payload, &embResp); err != nil {
		return nil, err
	}

	if len(embResp.Data) == 0 {
		return nil, &ProviderError{Provider: openAIProviderID, Err: fmt.Errorf("no embedding returned")}
	}

	embedding := embResp.Data[0].Embedding
	if err := validateEmbedding(embedding); err != nil {
		return nil, err
	}

	var usage *Usage
	if embResp.Usage != nil {
		usage = &Usage{
			PromptTokens: embResp.Usage.PromptTokens,
			TotalTokens:  embResp.Usage.TotalTokens,
		}
	}

	return &EmbeddingResponse{Embedding: embedding, Usage: usage}, nil
}

// post sends a JSON request to the given API path and decodes the response.
// Vendor-level failures come back as *ProviderError.
func (p *OpenAIProvider) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if p.organization != "" {
		req.Header.Set("OpenAI-Organization", p.organization)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: openAIProviderID, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &ProviderError{
			Provider: openAIProviderID,
			Err:      fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Provider: openAIProviderID, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// withSystemMessage prepends opts.SystemMessage as a system turn when the
// conversation doesn't already carry one.
func withSystemMessage(messages []ChatMessage, opts *RequestOptions) []ChatMessage {
	if opts == nil || opts.SystemMessage == "" {
		return messages
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			return messages
		}
	}
	out := make([]ChatMessage, 0, len(messages)+1)
	out = append(out, ChatMessage{Role: RoleSystem, Content: opts.SystemMessage})
	return append(out, messages...)
}

// validateEmbedding rejects empty vectors and non-finite values.
func validateEmbedding(embedding []float32) error {
	if len(embedding) == 0 {
		return &ValidationError{Field: "embedding", Message: "must be a non-empty vector"}
	}
	for i, v := range embedding {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &ValidationError{Field: "embedding", Message: fmt.Sprintf("element %d is not a finite number", i)}
		}
	}
	return nil
}
