package enrich_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"memory-lane/internal/ai"
	"memory-lane/internal/enrich"
	"memory-lane/internal/enrich/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func defaultOptions() enrich.Options {
	return enrich.Options{
		TitleGeneration:     true,
		TagSuggestions:      true,
		TagMinContentLength: 20,
		TagMaxGenerated:     5,
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
	}
}

func TestGenerateTitle_AISuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name      string
		aiText    string
		wantTitle string
	}{
		{
			name:      "plain title passes through",
			aiText:    "Morning Coffee Ritual",
			wantTitle: "Morning Coffee Ritual",
		},
		{
			name:      "wrapping quotes stripped",
			aiText:    `"A Walk Through Old Lisbon"`,
			wantTitle: "A Walk Through Old Lisbon",
		},
		{
			name:      "single quotes stripped",
			aiText:    "'Notes On Sourdough'",
			wantTitle: "Notes On Sourdough",
		},
		{
			name:      "overlong title truncated with ellipsis",
			aiText:    strings.Repeat("Long Title ", 10),
			wantTitle: strings.Repeat("Long Title ", 10)[:47] + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := mocks.NewMockChatClient(ctrl)
			chat.EXPECT().
				ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(&ai.Response{Text: tt.aiText}, nil)

			e := enrich.New(chat, nil, defaultOptions())
			result := e.GenerateTitle(context.Background(), "some note content")

			if result.Source != enrich.SourceAI {
				t.Errorf("Source = %q, want ai", result.Source)
			}
			got := strings.TrimSpace(tt.wantTitle)
			if result.Title != got {
				t.Errorf("Title = %q, want %q", result.Title, got)
			}
			if len([]rune(result.Title)) > 50 {
				t.Errorf("Title length = %d, want <= 50", len([]rune(result.Title)))
			}
			if strings.HasPrefix(result.Title, `"`) || strings.HasSuffix(result.Title, `"`) {
				t.Errorf("Title %q has quote characters", result.Title)
			}
		})
	}
}

func TestGenerateTitle_FeatureDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	opts := defaultOptions()
	opts.TitleGeneration = false
	e := enrich.New(chat, nil, opts)

	result := e.GenerateTitle(context.Background(), "A quiet evening at the lake with friends")
	if result.Source != enrich.SourceFallback {
		t.Errorf("Source = %q, want fallback", result.Source)
	}
	if result.Title != "A quiet evening at the lake with friends" {
		t.Errorf("Title = %q, want the content itself", result.Title)
	}
}

func TestGenerateTitle_AIFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().
		ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &ai.ProviderError{Provider: "openai", Err: errors.New("quota exceeded")})

	e := enrich.New(chat, nil, defaultOptions())
	result := e.GenerateTitle(context.Background(), "Dinner with Ana near the river")

	if result.Source != enrich.SourceFallback {
		t.Errorf("Source = %q, want fallback", result.Source)
	}
	if result.Title != "Dinner with Ana near the river" {
		t.Errorf("Title = %q, want content-derived fallback", result.Title)
	}
}

func TestGenerateTitle_EmptyAIResponseFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().
		ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ai.Response{Text: ""}, nil)

	e := enrich.New(chat, nil, defaultOptions())
	result := e.GenerateTitle(context.Background(), "Short note")

	if result.Source != enrich.SourceFallback {
		t.Errorf("Source = %q, want fallback", result.Source)
	}
	if result.Title != "Short note" {
		t.Errorf("Title = %q, want Short note", result.Title)
	}
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty content uses placeholder",
			content: "",
			want:    "Untitled Note",
		},
		{
			name:    "whitespace-only content uses placeholder",
			content: "   \n\t  ",
			want:    "Untitled Note",
		},
		{
			name:    "short content kept whole",
			content: "Coffee with Marta",
			want:    "Coffee with Marta",
		},
		{
			name:    "long content truncated at word boundary",
			content: "Hello world this is a very long note about testing",
			want:    "Hello world this is a very long note...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enrich.FallbackTitle(tt.content)
			if got != tt.want {
				t.Errorf("FallbackTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
			if strings.HasSuffix(got, "...") {
				base := strings.TrimSuffix(got, "...")
				if len(base) > 40 {
					t.Errorf("truncation boundary = %d chars, want <= 40", len(base))
				}
			}
		})
	}
}

func TestFallbackTitle_Deterministic(t *testing.T) {
	content := "Hello world this is a very long note about testing"
	first := enrich.FallbackTitle(content)
	second := enrich.FallbackTitle(content)
	if first != second {
		t.Errorf("FallbackTitle not deterministic: %q vs %q", first, second)
	}
}
