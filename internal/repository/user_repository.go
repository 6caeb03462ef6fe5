package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amirk1998/notes-web/internal/database"
	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/pkg/errors"
)

type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user; ID, username and hash must already be set
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
        INSERT INTO users (id, username, password_hash, created_at, failed_login_attempts)
        VALUES (?, ?, ?, ?, 0)
    `)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := r.db.Rebind(`
        SELECT id, username, password_hash, created_at, failed_login_attempts, locked_until
        FROM users
        WHERE username = ?
    `)

	var (
		user        models.User
		createdAt   int64
		lockedUntil sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&createdAt,
		&user.FailedLoginAttempts,
		&lockedUntil,
	)
	if err == sql.ErrNoRows {
		return nil, errors.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	if lockedUntil.Valid {
		t := time.UnixMilli(lockedUntil.Int64).UTC()
		user.LockedUntil = &t
	}

	return &user, nil
}

// IncrementFailedLogins increments failed login attempts and returns the new count
func (r *UserRepository) IncrementFailedLogins(ctx context.Context, userID string) (int, error) {
	update := r.db.Rebind(`
        UPDATE users
        SET failed_login_attempts = failed_login_attempts + 1
        WHERE id = ?
    `)
	if _, err := r.db.ExecContext(ctx, update, userID); err != nil {
		return 0, fmt.Errorf("failed to increment failed logins: %w", err)
	}

	var attempts int
	query := r.db.Rebind(`SELECT failed_login_attempts FROM users WHERE id = ?`)
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("failed to read failed logins: %w", err)
	}

	return attempts, nil
}

// LockAccount locks user account until the given time
func (r *UserRepository) LockAccount(ctx context.Context, userID string, until time.Time) error {
	query := r.db.Rebind(`
        UPDATE users
        SET locked_until = ?
        WHERE id = ?
    `)

	if _, err := r.db.ExecContext(ctx, query, until.UnixMilli(), userID); err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	return nil
}

// ResetFailedLogins clears the failure counter and any lock
func (r *UserRepository) ResetFailedLogins(ctx context.Context, userID string) error {
	query := r.db.Rebind(`
        UPDATE users
        SET failed_login_attempts = 0, locked_until = NULL
        WHERE id = ?
    `)

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to reset failed logins: %w", err)
	}

	return nil
}
