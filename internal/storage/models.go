package storage

import "time"

// Note represents a journal note record.
// The note's embedding is persisted separately in the vector store, keyed
// by the same ID.
type Note struct {
	ID           string   // UUID
	Title        string   // User-supplied or AI-generated
	Content      string   // Free-text note body
	Tags         []string // User tags first, then AI suggestions
	Latitude     *float64 // Optional capture location
	Longitude    *float64
	LocationName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
