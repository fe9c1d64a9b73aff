package ai

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) (*OpenAIProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewOpenAIProvider(5 * time.Second)
	if err := p.Initialize(ProviderConfig{APIKey: "test-key", Model: "test-model", BaseURL: server.URL}); err != nil {
		t.Fatalf("Initialize() unexpected error: %v", err)
	}
	return p, server
}

func TestOpenAIProvider_Initialize(t *testing.T) {
	p := NewOpenAIProvider(5 * time.Second)

	if p.IsInitialized() {
		t.Error("IsInitialized() = true before Initialize()")
	}

	err := p.Initialize(ProviderConfig{})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Initialize() without API key: got %v, want *ConfigurationError", err)
	}
	if cfgErr.Provider != "openai" || cfgErr.Key != "apiKey" {
		t.Errorf("ConfigurationError = %+v, want provider openai key apiKey", cfgErr)
	}
	if p.IsInitialized() {
		t.Error("IsInitialized() = true after failed Initialize()")
	}

	if err := p.Initialize(ProviderConfig{APIKey: "key-1"}); err != nil {
		t.Fatalf("Initialize() unexpected error: %v", err)
	}
	if !p.IsInitialized() {
		t.Error("IsInitialized() = false after successful Initialize()")
	}

	// Re-initialization re-configures rather than erroring.
	if err := p.Initialize(ProviderConfig{APIKey: "key-2", Model: "other-model"}); err != nil {
		t.Fatalf("Initialize() second call unexpected error: %v", err)
	}
	if p.model != "other-model" {
		t.Errorf("re-Initialize() model = %q, want other-model", p.model)
	}
}

func TestOpenAIProvider_ChatCompletion(t *testing.T) {
	temp := float32(0.5)

	tests := []struct {
		name       string
		messages   []ChatMessage
		opts       *RequestOptions
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantText   string
		wantErr    bool
	}{
		{
			name:     "successful completion with options",
			messages: []ChatMessage{{Role: RoleUser, Content: "Hello"}},
			opts:     &RequestOptions{MaxTokens: 30, Temperature: &temp, StopSequences: []string{"END"}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/completions" {
					t.Errorf("path = %s, want /chat/completions", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q, want Bearer test-key", got)
				}
				var req openAIChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if req.Model != "test-model" {
					t.Errorf("model = %q, want test-model", req.Model)
				}
				if req.MaxTokens != 30 {
					t.Errorf("max_tokens = %d, want 30", req.MaxTokens)
				}
				if req.Temperature == nil || *req.Temperature != 0.5 {
					t.Errorf("temperature = %v, want 0.5", req.Temperature)
				}
				_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi there!"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
			},
			wantText: "Hi there!",
		},
		{
			name:     "unset numeric params stay off the wire",
			messages: []ChatMessage{{Role: RoleUser, Content: "Hello"}},
			opts:     nil,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				var raw map[string]any
				if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if _, ok := raw["temperature"]; ok {
					t.Error("temperature sent despite being unset")
				}
				if _, ok := raw["max_tokens"]; ok {
					t.Error("max_tokens sent despite being unset")
				}
				_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
			},
			wantText: "ok",
		},
		{
			name:     "empty choices is a valid empty completion",
			messages: []ChatMessage{{Role: RoleUser, Content: "Hello"}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			wantText: "",
		},
		{
			name:     "server error",
			messages: []ChatMessage{{Role: RoleUser, Content: "Hello"}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			})

			resp, err := p.ChatCompletion(context.Background(), tt.messages, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ChatCompletion() expected error, got nil")
				}
				var provErr *ProviderError
				if !errors.As(err, &provErr) {
					t.Errorf("ChatCompletion() error = %v, want *ProviderError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChatCompletion() unexpected error: %v", err)
			}
			if resp.Text != tt.wantText {
				t.Errorf("ChatCompletion() text = %q, want %q", resp.Text, tt.wantText)
			}
		})
	}
}

func TestOpenAIProvider_ChatCompletion_NotInitialized(t *testing.T) {
	p := NewOpenAIProvider(5 * time.Second)
	_, err := p.ChatCompletion(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ChatCompletion() error = %v, want ErrNotInitialized", err)
	}
}

func TestOpenAIProvider_ChatCompletion_SystemMessageFromOptions(t *testing.T) {
	p, _ := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != RoleSystem || req.Messages[0].Content != "be brief" {
			t.Errorf("messages = %+v, want system turn prepended", req.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	_, err := p.ChatCompletion(context.Background(),
		[]ChatMessage{{Role: RoleUser, Content: "hi"}},
		&RequestOptions{SystemMessage: "be brief"})
	if err != nil {
		t.Fatalf("ChatCompletion() unexpected error: %v", err)
	}
}

func TestOpenAIProvider_CreateEmbedding(t *testing.T) {
	tests := []struct {
		name       string
		opts       *EmbeddingOptions
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantVector []float32
		wantErr    bool
		errCheck   func(error) bool
	}{
		{
			name: "successful embedding",
			opts: &EmbeddingOptions{Model: "text-embedding-3-small", Dimensions: 3},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/embeddings" {
					t.Errorf("path = %s, want /embeddings", r.URL.Path)
				}
				var req openAIEmbeddingRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if req.Input != "some note text" {
					t.Errorf("input = %q, want some note text", req.Input)
				}
				if req.Dimensions != 3 {
					t.Errorf("dimensions = %d, want 3", req.Dimensions)
				}
				_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}],"usage":{"prompt_tokens":4,"total_tokens":4}}`))
			},
			wantVector: []float32{0.1, 0.2, 0.3},
		},
		{
			name: "empty embedding rejected",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":[{"embedding":[]}]}`))
			},
			wantErr: true,
			errCheck: func(err error) bool {
				var valErr *ValidationError
				return errors.As(err, &valErr)
			},
		},
		{
			name: "no data rejected",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":[]}`))
			},
			wantErr: true,
			errCheck: func(err error) bool {
				var provErr *ProviderError
				return errors.As(err, &provErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			})

			resp, err := p.CreateEmbedding(context.Background(), "some note text", tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("CreateEmbedding() expected error, got nil")
				}
				if tt.errCheck != nil && !tt.errCheck(err) {
					t.Errorf("CreateEmbedding() error = %v, wrong type", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateEmbedding() unexpected error: %v", err)
			}
			if len(resp.Embedding) != len(tt.wantVector) {
				t.Fatalf("embedding length = %d, want %d", len(resp.Embedding), len(tt.wantVector))
			}
			for i, v := range tt.wantVector {
				if resp.Embedding[i] != v {
					t.Errorf("embedding[%d] = %v, want %v", i, resp.Embedding[i], v)
				}
			}
		})
	}
}

func TestOpenAIProvider_OrganizationHeader(t *testing.T) {
	var gotOrg string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg = r.Header.Get("OpenAI-Organization")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(5 * time.Second)
	if err := p.Initialize(ProviderConfig{APIKey: "k", Organization: "org-123", BaseURL: server.URL}); err != nil {
		t.Fatalf("Initialize() unexpected error: %v", err)
	}
	if _, err := p.ChatCompletion(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, nil); err != nil {
		t.Fatalf("ChatCompletion() unexpected error: %v", err)
	}
	if gotOrg != "org-123" {
		t.Errorf("OpenAI-Organization = %q, want org-123", gotOrg)
	}
}

func TestValidateEmbedding(t *testing.T) {
	if err := validateEmbedding([]float32{0.1, -0.2}); err != nil {
		t.Errorf("validateEmbedding() unexpected error: %v", err)
	}
	if err := validateEmbedding(nil); err == nil {
		t.Error("validateEmbedding(nil) expected error")
	}
	if err := validateEmbedding([]float32{float32(math.NaN())}); err == nil {
		t.Error("validateEmbedding(NaN) expected error")
	}
}

func TestOpenAIProvider_BaseURLTrailingSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(5 * time.Second)
	if err := p.Initialize(ProviderConfig{APIKey: "k", BaseURL: server.URL + "/"}); err != nil {
		t.Fatalf("Initialize() unexpected error: %v", err)
	}
	if _, err := p.ChatCompletion(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, nil); err != nil {
		t.Fatalf("ChatCompletion() unexpected error: %v", err)
	}
	if strings.Contains(gotPath, "//") {
		t.Errorf("request path %q contains double slash", gotPath)
	}
}
