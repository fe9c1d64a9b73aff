package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks memory-lane/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// NoteStore defines the interface for note storage operations.
type NoteStore interface {
	// Create inserts a new note, assigning an ID when absent.
	Create(ctx context.Context, note *Note) error
	// GetByID gets a note by ID. Returns nil and ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Note, error)
	// List returns all notes, most recently updated first.
	List(ctx context.Context) ([]Note, error)
	// Update rewrites a note's mutable fields. Returns ErrNotFound when
	// the note does not exist.
	Update(ctx context.Context, note *Note) error
	// Delete removes a note by ID. Returns ErrNotFound when the note does
	// not exist.
	Delete(ctx context.Context, id string) error
}

// NoteRepo provides methods for note operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// Create inserts a new note. A missing ID gets a fresh UUID; timestamps are
// set server-side.
func (r *NoteRepo) Create(ctx context.Context, note *Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}

	tags, err := marshalTags(note.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, tags, latitude, longitude, location_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.Title, note.Content, tags, note.Latitude, note.Longitude, note.LocationName,
		now.Format(sqliteTimeFormat), now.Format(sqliteTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	return nil
}

// GetByID gets a note by ID. Returns nil and ErrNotFound if not found.
func (r *NoteRepo) GetByID(ctx context.Context, id string) (*Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, tags, latitude, longitude, location_name, created_at, updated_at
		 FROM notes WHERE id = ?`, id)

	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}
	return note, nil
}

// List returns all notes, most recently updated first.
func (r *NoteRepo) List(ctx context.Context) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, tags, latitude, longitude, location_name, created_at, updated_at
		 FROM notes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var notes []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	return notes, nil
}

// Update rewrites a note's mutable fields and bumps updated_at.
func (r *NoteRepo) Update(ctx context.Context, note *Note) error {
	tags, err := marshalTags(note.Tags)
	if err != nil {
		return err
	}

	note.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, tags = ?, latitude = ?, longitude = ?, location_name = ?, updated_at = ?
		 WHERE id = ?`,
		note.Title, note.Content, tags, note.Latitude, note.Longitude, note.LocationName,
		note.UpdatedAt.Format(sqliteTimeFormat), note.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a note by ID.
func (r *NoteRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const sqliteTimeFormat = "2006-01-02 15:04:05"

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var note Note
	var tagsJSON string
	var createdAtStr, updatedAtStr string

	err := row.Scan(&note.ID, &note.Title, &note.Content, &tagsJSON,
		&note.Latitude, &note.Longitude, &note.LocationName, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &note.Tags); err != nil {
		return nil, fmt.Errorf("failed to parse tags: %w", err)
	}

	note.CreatedAt, err = parseSQLiteTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	note.UpdatedAt, err = parseSQLiteTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return &note, nil
}

// parseSQLiteTime handles the DATETIME string formats SQLite may emit.
func parseSQLiteTime(raw string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeFormat, raw)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// marshalTags stores tags as a JSON array; nil becomes an empty list.
func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	out, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(out), nil
}
