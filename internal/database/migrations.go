package database

import (
	"context"
	"database/sql"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        username TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        failed_login_attempts INTEGER NOT NULL DEFAULT 0,
        locked_until INTEGER
    )`,
	`CREATE TABLE IF NOT EXISTS notes (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        title TEXT NOT NULL,
        content TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        updated_at INTEGER NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        created_at INTEGER NOT NULL,
        level TEXT NOT NULL,
        user_id TEXT NOT NULL DEFAULT '',
        username TEXT NOT NULL DEFAULT '',
        action TEXT NOT NULL,
        resource TEXT NOT NULL,
        ip_address TEXT NOT NULL DEFAULT '',
        success BOOLEAN NOT NULL,
        error_msg TEXT NOT NULL DEFAULT '',
        metadata TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action, created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        username TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at BIGINT NOT NULL,
        failed_login_attempts INTEGER NOT NULL DEFAULT 0,
        locked_until BIGINT
    )`,
	`CREATE TABLE IF NOT EXISTS notes (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        title TEXT NOT NULL,
        content TEXT NOT NULL,
        created_at BIGINT NOT NULL,
        updated_at BIGINT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
        id BIGSERIAL PRIMARY KEY,
        created_at BIGINT NOT NULL,
        level TEXT NOT NULL,
        user_id TEXT NOT NULL DEFAULT '',
        username TEXT NOT NULL DEFAULT '',
        action TEXT NOT NULL,
        resource TEXT NOT NULL,
        ip_address TEXT NOT NULL DEFAULT '',
        success BOOLEAN NOT NULL,
        error_msg TEXT NOT NULL DEFAULT '',
        metadata TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action, created_at)`,
}

// Schema returns the DDL statements for a dialect.
func Schema(dialect Dialect) []string {
	if dialect == DialectPostgres {
		return postgresSchema
	}
	return sqliteSchema
}

// Migrate applies the schema in a single transaction.
func Migrate(ctx context.Context, db *DB) error {
	tm := NewTransactionManager(db)
	return tm.Execute(ctx, func(tx *sql.Tx) error {
		for _, stmt := range Schema(db.Dialect) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
