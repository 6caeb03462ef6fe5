// Package testdb opens throwaway encrypted SQLite stores for tests.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/amirk1998/notes-web/internal/database"
)

// TestKey is the SQLCipher key used by every in-memory test store.
const TestKey = "test-key-0123456789abcdef0123456789abcdef"

// Open creates a migrated in-memory SQLCipher database that is closed when
// the test ends.
func Open(tb testing.TB) *database.DB {
	tb.Helper()

	db, err := NewInMemory()
	if err != nil {
		tb.Fatalf("open in-memory database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })
	return db
}

// NewInMemory creates a migrated in-memory SQLCipher database with a unique name.
func NewInMemory() (*database.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma_key=%s&_pragma_cipher_page_size=4096",
		uuid.NewString(), TestKey)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// Shared-cache memory databases vanish with their last connection.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(10)

	if err := applyFastSQLitePragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply fast SQLite pragmas: %w", err)
	}

	db := database.New(sqlDB, database.DialectSQLite)
	if err := database.Migrate(context.Background(), db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize in-memory schema: %w", err)
	}
	return db, nil
}

func applyFastSQLitePragmas(sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
