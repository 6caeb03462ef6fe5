package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	sqliteDriverName   = "sqlite3"
	postgresDriverName = "postgres"
	pingTimeout        = 5 * time.Second
)

type Config struct {
	URL           string
	EncryptionKey string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	MaxIdleTime   time.Duration
}

// DB is a connection pool paired with the SQL dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// New wraps an already-open pool.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, Dialect: dialect}
}

// Rebind rewrites ? placeholders for the pool's dialect.
func (db *DB) Rebind(query string) string {
	return db.Dialect.Rebind(query)
}

// Connect opens the store named by cfg.URL: file: URLs and bare paths open an
// encrypted SQLite database, postgres:// URLs open PostgreSQL.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	dialect, err := DialectFromURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect {
	case DialectPostgres:
		db, err = sql.Open(postgresDriverName, cfg.URL)
	default:
		db, err = openSQLite(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	if dialect == DialectSQLite {
		if err := configureSecurePragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
		if err := os.Chmod(sqlitePath(cfg.URL), 0600); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set file permissions: %w", err)
		}
	}

	return New(db, dialect), nil
}

// DialectFromURL picks the dialect from a database URL's scheme.
func DialectFromURL(raw string) (Dialect, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("database URL is required")
	}
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "file:") {
		return DialectSQLite, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "file", "sqlite":
		return DialectSQLite, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database scheme: %s", parsed.Scheme)
	}
}

func openSQLite(cfg Config) (*sql.DB, error) {
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("encryption key is required for SQLite")
	}

	path := sqlitePath(cfg.URL)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma_key=%s&_pragma_cipher_page_size=4096&_pragma_kdf_iter=256000&_journal_mode=WAL&_busy_timeout=5000",
		path,
		url.QueryEscape(cfg.EncryptionKey),
	)
	return sql.Open(sqliteDriverName, dsn)
}

// sqlitePath strips the scheme and query from a SQLite URL.
func sqlitePath(raw string) string {
	path := strings.TrimSpace(raw)
	path = strings.TrimPrefix(path, "sqlite://")
	path = strings.TrimPrefix(path, "file://")
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// configureSecurePragmas sets secure database settings
func configureSecurePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA secure_delete = ON",
		"PRAGMA synchronous = FULL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA journal_mode = WAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}
