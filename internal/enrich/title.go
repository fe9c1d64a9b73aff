package enrich

import (
	"context"
	"strings"

	"memory-lane/internal/ai"
	"memory-lane/internal/contextutil"
)

const (
	titleSystemPrompt = "You are a helpful assistant that generates concise, meaningful titles for notes. " +
		"Create a title that captures the essence of the note in 5-7 words maximum. " +
		"The title should be specific to the content, not generic. Do not use quotes around the title. " +
		"Respond with ONLY the title text and nothing else."

	// maxTitleLength is the hard cap on generated titles.
	maxTitleLength = 50

	// fallbackTitleLength caps how much leading content the fallback keeps.
	fallbackTitleLength = 40

	fallbackPlaceholderTitle = "Untitled Note"
)

// TitleResult is a generated title plus how it was produced.
type TitleResult struct {
	Title  string
	Source Source
}

// GenerateTitle produces a title for the given note content. When title
// generation is disabled, no provider is available, or the AI call fails,
// it degrades to a deterministic content-derived fallback. It never returns
// an error: a note save must not fail because of a title.
func (e *Enricher) GenerateTitle(ctx context.Context, content string) TitleResult {
	logger := contextutil.LoggerFromContext(ctx)

	if !e.opts.TitleGeneration {
		logger.DebugContext(ctx, "AI title generation disabled by configuration")
		return TitleResult{Title: FallbackTitle(content), Source: SourceFallback}
	}
	if e.chat == nil {
		return TitleResult{Title: FallbackTitle(content), Source: SourceFallback}
	}

	temp := float32(0.7)
	messages := []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: titleSystemPrompt},
		{Role: ai.RoleUser, Content: "Generate a short, specific title for this note: \"" + content + "\""},
	}

	resp, err := e.chat.ChatCompletion(ctx, messages, &ai.RequestOptions{
		Temperature: &temp,
		MaxTokens:   30,
	})
	if err != nil {
		logger.WarnContext(ctx, "AI title generation failed, using fallback", "error", err)
		return TitleResult{Title: FallbackTitle(content), Source: SourceFallback}
	}

	title := strings.Trim(strings.TrimSpace(resp.Text), `"'`)
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength-3]) + "..."
	}
	if title == "" {
		return TitleResult{Title: FallbackTitle(content), Source: SourceFallback}
	}

	return TitleResult{Title: title, Source: SourceAI}
}

// FallbackTitle derives a title from the leading words of the content, up
// to 40 characters, appending an ellipsis when truncated. Deterministic:
// the same content always yields the same title. Empty content yields a
// fixed placeholder.
func FallbackTitle(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fallbackPlaceholderTitle
	}

	title := ""
	for _, word := range strings.Fields(trimmed) {
		if len(title)+1+len(word) > fallbackTitleLength {
			break
		}
		if title != "" {
			title += " "
		}
		title += word
	}

	if len(title) < len(trimmed) {
		title += "..."
	}
	return title
}
