package enrich_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"memory-lane/internal/ai"
	"memory-lane/internal/enrich"
	"memory-lane/internal/enrich/mocks"

	"go.uber.org/mock/gomock"
)

func TestGenerateTags_ShortContentReturnsExistingUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	e := enrich.New(chat, nil, defaultOptions())
	existing := []string{"Travel", "summer"}

	result := e.GenerateTags(context.Background(), "too short", "", existing)
	if result.Source != enrich.SourceUser {
		t.Errorf("Source = %q, want user", result.Source)
	}
	if !reflect.DeepEqual(result.Tags, existing) {
		t.Errorf("Tags = %v, want %v unchanged", result.Tags, existing)
	}
}

func TestGenerateTags_FeatureDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	opts := defaultOptions()
	opts.TagSuggestions = false
	e := enrich.New(chat, nil, opts)
	existing := []string{"keep-me"}

	result := e.GenerateTags(context.Background(), "plenty of content to tag here, well above the minimum", "", existing)
	if result.Source != enrich.SourceUser {
		t.Errorf("Source = %q, want user", result.Source)
	}
	if !reflect.DeepEqual(result.Tags, existing) {
		t.Errorf("Tags = %v, want %v unchanged", result.Tags, existing)
	}
}

func TestGenerateTags_MergeAndDedupe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().
		ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ai.Response{Text: "coffee, morning routine, focus"}, nil)

	e := enrich.New(chat, nil, defaultOptions())
	existing := []string{"Coffee", "morning-routine"}

	result := e.GenerateTags(context.Background(), "long enough note about my coffee habits in the morning", "", existing)
	if result.Source != enrich.SourceAI {
		t.Errorf("Source = %q, want ai", result.Source)
	}
	// "coffee" collides case-insensitively, "morning routine" collides
	// separator-insensitively; only "focus" survives, appended last.
	want := []string{"Coffee", "morning-routine", "focus"}
	if !reflect.DeepEqual(result.Tags, want) {
		t.Errorf("Tags = %v, want %v", result.Tags, want)
	}
}

func TestGenerateTags_SeparatorCollisionOverRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().
		ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ai.Response{Text: "wellbeing, sleep"}, nil)

	e := enrich.New(chat, nil, defaultOptions())

	// "well-being" and "wellbeing" are distinct concepts but collide under
	// separator-insensitive comparison. This documents the current
	// behavior rather than endorsing it.
	result := e.GenerateTags(context.Background(), "a sufficiently long note about health and rest habits", "", []string{"well-being"})
	want := []string{"well-being", "sleep"}
	if !reflect.DeepEqual(result.Tags, want) {
		t.Errorf("Tags = %v, want %v", result.Tags, want)
	}
}

func TestGenerateTags_CapsGeneratedTags(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().
		ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ai.Response{Text: "one, two, three, four"}, nil)

	opts := defaultOptions()
	opts.TagMaxGenerated = 2
	e := enrich.New(chat, nil, opts)

	result := e.GenerateTags(context.Background(), "a sufficiently long note with many possible topics", "", []string{"existing"})
	want := []string{"existing", "one", "two"}
	if !reflect.DeepEqual(result.Tags, want) {
		t.Errorf("Tags = %v, want %v", result.Tags, want)
	}
}

func TestGenerateTags_AIFailureKeepsExisting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().
		ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &ai.ProviderError{Provider: "openai", Err: errors.New("timeout")})

	e := enrich.New(chat, nil, defaultOptions())
	existing := []string{"journal", "daily"}

	result := e.GenerateTags(context.Background(), "a sufficiently long note about the day that just went by", "", existing)
	if result.Source != enrich.SourceUser {
		t.Errorf("Source = %q, want user", result.Source)
	}
	if !reflect.DeepEqual(result.Tags, existing) {
		t.Errorf("Tags = %v, want %v unchanged", result.Tags, existing)
	}
}

func TestGenerateTags_ParsesMessyResponses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatClient(ctrl)
	chat.EXPECT().
		ChatCompletion(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ai.Response{Text: `"Hiking , NATURE,, trail running "`}, nil)

	e := enrich.New(chat, nil, defaultOptions())

	result := e.GenerateTags(context.Background(), "a sufficiently long note about a weekend in the mountains", "", nil)
	want := []string{"hiking", "nature", "trail running"}
	if !reflect.DeepEqual(result.Tags, want) {
		t.Errorf("Tags = %v, want %v", result.Tags, want)
	}
}
