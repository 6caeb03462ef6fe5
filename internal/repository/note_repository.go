package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amirk1998/notes-web/internal/database"
	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/pkg/errors"
)

// NoteRepository reads and writes notes. Every method takes the owner id and
// filters on it in the same statement that touches the row.
type NoteRepository struct {
	db *database.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *database.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = "id, user_id, title, content, created_at, updated_at"

// Insert stores a fully populated note
func (r *NoteRepository) Insert(ctx context.Context, note *models.Note) error {
	query := r.db.Rebind(`
        INSERT INTO notes (id, user_id, title, content, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `)

	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.OwnerID,
		note.Title,
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// FindOwned retrieves a note only if ownerID owns it
func (r *NoteRepository) FindOwned(ctx context.Context, ownerID, id string) (*models.Note, error) {
	query := r.db.Rebind(`
        SELECT ` + noteColumns + `
        FROM notes
        WHERE id = ? AND user_id = ?
    `)

	note, err := scanNote(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, errors.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// ListByOwner retrieves every note of ownerID, newest first
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error) {
	query := r.db.Rebind(`
        SELECT ` + noteColumns + `
        FROM notes
        WHERE user_id = ?
        ORDER BY created_at DESC
    `)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*models.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return notes, nil
}

// UpdateOwned replaces title and content of a note owned by ownerID
func (r *NoteRepository) UpdateOwned(ctx context.Context, ownerID, id, title, content string, updatedAt int64) error {
	query := r.db.Rebind(`
        UPDATE notes
        SET title = ?, content = ?, updated_at = ?
        WHERE id = ? AND user_id = ?
    `)

	result, err := r.db.ExecContext(ctx, query, title, content, updatedAt, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	return requireRow(result)
}

// DeleteOwned permanently removes a note owned by ownerID
func (r *NoteRepository) DeleteOwned(ctx context.Context, ownerID, id string) error {
	query := r.db.Rebind(`
        DELETE FROM notes
        WHERE id = ? AND user_id = ?
    `)

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	note := &models.Note{}
	err := row.Scan(
		&note.ID,
		&note.OwnerID,
		&note.Title,
		&note.Content,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return note, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}
