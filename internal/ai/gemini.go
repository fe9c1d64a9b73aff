package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	geminiProviderID   = "gemini"
	geminiProviderName = "Google Gemini"

	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-pro"
)

// GeminiProvider talks to the Gemini generateContent REST API. It is
// chat-only; it does not implement the Embedder capability.
type GeminiProvider struct {
	baseURL     string
	apiKey      string
	model       string
	client      *http.Client
	initialized bool
}

// NewGeminiProvider creates an uninitialized Gemini provider. Initialize
// must be called with an API key before first use.
func NewGeminiProvider(timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{
		baseURL: defaultGeminiBaseURL,
		model:   defaultGeminiModel,
		client:  &http.Client{Timeout: timeout},
	}
}

// ID returns the unique provider identifier.
func (p *GeminiProvider) ID() string { return geminiProviderID }

// DisplayName returns the human-readable provider name.
func (p *GeminiProvider) DisplayName() string { return geminiProviderName }

// Initialize configures the provider with API key and model. Calling it
// again re-configures the provider.
func (p *GeminiProvider) Initialize(cfg ProviderConfig) error {
	if cfg.APIKey == "" {
		return &ConfigurationError{Provider: geminiProviderID, Key: "apiKey"}
	}

	p.apiKey = cfg.APIKey
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
func (p *GeminiProvider) IsInitialized() bool {
	return p.initialized && p.apiKey != ""
}

// geminiPart is a single text part of a content turn.
type geminiPart struct {
	Text string `json:"text"`
}

// geminiContent is one turn in the conversation. Role is "user" or "model".
type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

// geminiGenerationConfig carries sampling parameters.
type geminiGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float32 `json:"temperature,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

// geminiRequest is the request payload for models/{model}:generateContent.
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// geminiResponse is the response payload from generateContent.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// ChatCompletion sends the conversation to Gemini. The full turn history is
// replayed in a single generateContent call, so the most recent user message
// always reaches the model.
func (p *GeminiProvider) ChatCompletion(ctx context.Context, messages []ChatMessage, opts *RequestOptions) (*Response, error) {
	if !p.IsInitialized() {
		return nil, fmt.Errorf("gemini: %w", ErrNotInitialized)
	}

	payload := geminiRequest{
		Contents: convertGeminiContents(withSystemMessage(messages, opts)),
	}
	if opts != nil && (opts.MaxTokens != 0 || opts.Temperature != nil || len(opts.StopSequences) > 0) {
		payload.GenerationConfig = &geminiGenerationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
			StopSequences:   opts.StopSequences,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, p.model, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: geminiProviderID, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{
			Provider: geminiProviderID,
			Err:      fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var genResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, &ProviderError{Provider: geminiProviderID, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	text := ""
	if len(genResp.Candidates) > 0 {
		var sb strings.Builder
		for _, part := range genResp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		text = sb.String()
	}

	var usage *Usage
	if genResp.UsageMetadata != nil {
		usage = &Usage{
			PromptTokens:     genResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: genResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      genResp.UsageMetadata.TotalTokenCount,
		}
	}

	return &Response{Text: text, Usage: usage}, nil
}

// convertGeminiContents maps generic messages to Gemini turns. Gemini has no
// system role: the system message is folded into the text of the first user
// turn and dropped from the history. This transform is deliberately lossy.
func convertGeminiContents(messages []ChatMessage) []geminiContent {
	contents := make([]geminiContent, 0, len(messages))
	systemMessage := ""

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemMessage = msg.Content
		case RoleUser:
			content := msg.Content
			if systemMessage != "" && len(contents) == 0 {
				content = systemMessage + "\n\n" + content
			}
			systemMessage = ""
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: content}},
			})
		case RoleAssistant:
			contents = append(contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	return contents
}
