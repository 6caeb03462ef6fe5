// Package backup takes compressed, checksummed snapshots of the SQLite store.
package backup

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amirk1998/notes-web/internal/database"
	"github.com/amirk1998/notes-web/internal/logging"
)

const (
	filePrefix     = "notes_"
	snapshotSuffix = ".db.gz"
	checksumSuffix = ".sha256"
)

type Manager struct {
	db            *database.DB
	backupDir     string
	retentionDays int
	now           func() time.Time
}

// NewManager creates a new backup manager
func NewManager(db *database.DB, backupDir string, retentionDays int) (*Manager, error) {
	if db.Dialect != database.DialectSQLite {
		return nil, fmt.Errorf("backups are only supported for sqlite stores, got %s", db.Dialect)
	}

	// Ensure backup directory exists with secure permissions
	if err := os.MkdirAll(backupDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Manager{
		db:            db,
		backupDir:     backupDir,
		retentionDays: retentionDays,
		now:           time.Now,
	}, nil
}

// CreateBackup writes a gzip-compressed snapshot and its checksum file, and
// returns the snapshot path. The snapshot keeps the store's encryption.
func (m *Manager) CreateBackup(ctx context.Context) (string, error) {
	timestamp := m.now().UTC().Format("20060102_150405.000")
	rawPath := filepath.Join(m.backupDir, filePrefix+strings.Replace(timestamp, ".", "_", 1)+".db")

	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", rawPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	defer os.Remove(rawPath)

	snapshotPath := strings.TrimSuffix(rawPath, ".db") + snapshotSuffix
	if err := compressFile(rawPath, snapshotPath); err != nil {
		os.Remove(snapshotPath)
		return "", fmt.Errorf("failed to compress backup: %w", err)
	}

	if err := writeChecksumFile(snapshotPath); err != nil {
		return "", fmt.Errorf("failed to create checksum: %w", err)
	}

	logging.Pkg("backup").Info("backup created", "path", snapshotPath)
	return snapshotPath, nil
}

func compressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		return fmt.Errorf("failed to write compressed data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return dst.Sync()
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeChecksumFile(path string) error {
	sum, err := fileChecksum(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path+checksumSuffix, []byte(sum), 0600)
}

// VerifyBackup checks the snapshot against its checksum file and that it
// decompresses cleanly.
func (m *Manager) VerifyBackup(backupPath string) error {
	stored, err := os.ReadFile(backupPath + checksumSuffix)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}

	current, err := fileChecksum(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}
	if current != strings.TrimSpace(string(stored)) {
		return fmt.Errorf("checksum mismatch: backup file may be corrupted")
	}

	f, err := os.Open(backupPath)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("backup is not a gzip stream: %w", err)
	}
	defer gz.Close()
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return fmt.Errorf("backup is truncated: %w", err)
	}
	return nil
}

// CleanOldBackups removes snapshots older than the retention period and
// returns how many files were deleted.
func (m *Manager) CleanOldBackups() (int, error) {
	cutoff := m.now().AddDate(0, 0, -m.retentionDays)
	log := logging.Pkg("backup")

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(m.backupDir, name)
		if err := os.Remove(path); err != nil {
			log.Warn("failed to delete old backup", "path", path, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		log.Info("cleaned old backups", "count", deleted)
	}
	return deleted, nil
}
