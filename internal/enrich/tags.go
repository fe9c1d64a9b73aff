package enrich

import (
	"context"
	"regexp"
	"strings"

	"memory-lane/internal/ai"
	"memory-lane/internal/contextutil"
)

const tagSystemPrompt = "You are a helpful assistant that generates relevant tags for note content. " +
	"Create 3-5 concise, single-word or short phrase tags that accurately represent the key topics in the note. " +
	"Tags should be in English even if the content is in another language. " +
	"Respond with ONLY the tags, separated by commas, and nothing else. " +
	"Do not use quotes or bullet points. Keep tags lowercase unless they are proper nouns."

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	separatorRe  = regexp.MustCompile(`[-_\s]+`)
)

// TagsResult is a merged tag list plus how it was produced.
type TagsResult struct {
	Tags   []string
	Source Source
}

// GenerateTags suggests tags for the given note content and merges them
// after the user's existing tags. Existing tags are always preserved
// verbatim, in their original order, ahead of any AI suggestions. When tag
// suggestions are disabled, the content is too short, or the AI call fails,
// the existing tags come back unchanged. It never returns an error.
func (e *Enricher) GenerateTags(ctx context.Context, content, title string, existing []string) TagsResult {
	logger := contextutil.LoggerFromContext(ctx)

	if !e.opts.TagSuggestions {
		logger.DebugContext(ctx, "AI tag suggestions disabled by configuration")
		return TagsResult{Tags: existing, Source: SourceUser}
	}

	trimmed := strings.TrimSpace(content)
	if len([]rune(trimmed)) < e.opts.TagMinContentLength {
		logger.DebugContext(ctx, "content too short for AI tag generation",
			"length", len([]rune(trimmed)), "min_length", e.opts.TagMinContentLength)
		return TagsResult{Tags: existing, Source: SourceUser}
	}
	if e.chat == nil {
		return TagsResult{Tags: existing, Source: SourceUser}
	}

	userPrompt := "Generate relevant English-language tags for this note"
	if title != "" {
		userPrompt += " with title: \"" + title + "\""
	}
	userPrompt += ": \"" + content + "\""

	temp := float32(0.5)
	resp, err := e.chat.ChatCompletion(ctx, []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: tagSystemPrompt},
		{Role: ai.RoleUser, Content: userPrompt},
	}, &ai.RequestOptions{
		Temperature: &temp,
		MaxTokens:   50,
	})
	if err != nil {
		logger.WarnContext(ctx, "AI tag generation failed, keeping existing tags", "error", err)
		return TagsResult{Tags: existing, Source: SourceUser}
	}

	suggested := parseTagList(resp.Text)
	fresh := dedupeTags(suggested, existing)
	if len(fresh) > e.opts.TagMaxGenerated {
		fresh = fresh[:e.opts.TagMaxGenerated]
	}

	merged := make([]string, 0, len(existing)+len(fresh))
	merged = append(merged, existing...)
	merged = append(merged, fresh...)

	logger.InfoContext(ctx, "AI tags merged", "suggested", len(suggested), "added", len(fresh))
	return TagsResult{Tags: merged, Source: SourceAI}
}

// parseTagList splits a comma-separated model response into lowercase tags.
func parseTagList(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), `"'`)
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// dedupeTags drops candidates that collide with an existing tag. A
// candidate is rejected when it equals an existing tag after lowercasing,
// after removing internal whitespace, or after removing hyphens,
// underscores and whitespace — three separate comparisons, any match
// excludes it. Note this deliberately collides pairs like "well-being" and
// "wellbeing"; the behavior is kept as-is.
func dedupeTags(candidates, existing []string) []string {
	existingLower := make([]string, len(existing))
	for i, tag := range existing {
		existingLower[i] = strings.ToLower(tag)
	}

	fresh := make([]string, 0, len(candidates))
	for _, tag := range candidates {
		duplicate := false
		for _, have := range existingLower {
			if have == tag ||
				whitespaceRe.ReplaceAllString(have, "") == whitespaceRe.ReplaceAllString(tag, "") ||
				separatorRe.ReplaceAllString(have, "") == separatorRe.ReplaceAllString(tag, "") {
				duplicate = true
				break
			}
		}
		if !duplicate {
			fresh = append(fresh, tag)
		}
	}
	return fresh
}
