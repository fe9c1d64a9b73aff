package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoActiveProvider is returned when a chat request arrives and no
	// provider has been selected.
	ErrNoActiveProvider = errors.New("no active AI provider set")

	// ErrNotInitialized is returned when a provider is used before a
	// successful Initialize.
	ErrNotInitialized = errors.New("provider not initialized")

	// ErrUnsupportedOperation is returned when a capability is requested
	// from a provider that lacks it (e.g. embeddings from a chat-only
	// provider).
	ErrUnsupportedOperation = errors.New("operation not supported by provider")
)

// ConfigurationError indicates a required credential or config key was
// missing at initialize time.
type ConfigurationError struct {
	Provider string
	Key      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %s: missing required configuration %q", e.Provider, e.Key)
}

// UnknownProviderError indicates a provider name that is not registered.
type UnknownProviderError struct {
	Name      string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("AI provider %q not found; available providers: %s", e.Name, strings.Join(e.Available, ", "))
}

// ProviderError wraps a vendor-level failure (network, auth, quota) with the
// provider it came from, so callers can log provenance.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ValidationError indicates a malformed value coming back from a provider,
// such as an empty or non-finite embedding vector.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}
