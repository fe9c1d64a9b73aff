package notes

import "fmt"

// ValidationError indicates invalid note input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SearchError wraps a failure during similarity search, recording which stage
// failed ("embed" or "search").
type SearchError struct {
	Stage string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("similarity search failed at %s stage: %v", e.Stage, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}
