// Package audit records security-relevant account events in the audit_log
// table and mirrors each one to the structured log.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirk1998/notes-web/internal/database"
	"github.com/amirk1998/notes-web/internal/logging"
)

const defaultQueryLimit = 100

type Logger struct {
	db  *database.DB
	now func() time.Time
}

// NewLogger creates a new audit logger. The audit_log table is created by
// database.Migrate.
func NewLogger(db *database.DB) *Logger {
	return &Logger{db: db, now: time.Now}
}

// Log stamps and stores an event. The structured log line is written even
// when the database write fails.
func (al *Logger) Log(ctx context.Context, event *Event) error {
	event.Timestamp = al.now().UTC()
	if event.Level == "" {
		event.Level = LevelInfo
	}

	query := al.db.Rebind(`
        INSERT INTO audit_log (
            created_at, level, user_id, username, action, resource,
            ip_address, success, error_msg, metadata
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)

	_, err := al.db.ExecContext(ctx, query,
		event.Timestamp.UnixMilli(),
		string(event.Level),
		event.UserID,
		event.Username,
		string(event.Action),
		event.Resource,
		event.IPAddress,
		event.Success,
		event.ErrorMsg,
		event.Metadata,
	)

	logging.Pkg("audit").LogAttrs(ctx, slogLevel(event.Level), "audit event",
		slog.String("action", string(event.Action)),
		slog.String("resource", event.Resource),
		slog.String("user_id", event.UserID),
		slog.String("username", event.Username),
		slog.String("ip", event.IPAddress),
		slog.Bool("success", event.Success),
		slog.String("error_msg", event.ErrorMsg),
	)

	if err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelWarning:
		return slog.LevelWarn
	case LevelError, LevelCritical:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// QueryLogs returns events matching filters, newest first.
func (al *Logger) QueryLogs(ctx context.Context, filters QueryFilters) ([]*Event, error) {
	query := `
        SELECT id, created_at, level, user_id, username, action, resource,
               ip_address, success, error_msg, metadata
        FROM audit_log
        WHERE 1=1
    `
	args := []any{}

	if filters.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, filters.Since.UnixMilli())
	}
	if filters.Until != nil {
		query += " AND created_at <= ?"
		args = append(args, filters.Until.UnixMilli())
	}
	if filters.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filters.UserID)
	}
	if filters.Username != "" {
		query += " AND username = ?"
		args = append(args, filters.Username)
	}
	if filters.Action != "" {
		query += " AND action = ?"
		args = append(args, string(filters.Action))
	}
	if filters.Level != "" {
		query += " AND level = ?"
		args = append(args, string(filters.Level))
	}

	if filters.Limit <= 0 {
		filters.Limit = defaultQueryLimit
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, filters.Limit)

	rows, err := al.db.QueryContext(ctx, al.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		var (
			event     Event
			createdAt int64
			level     string
			action    string
		)
		err := rows.Scan(
			&event.ID,
			&createdAt,
			&level,
			&event.UserID,
			&event.Username,
			&action,
			&event.Resource,
			&event.IPAddress,
			&event.Success,
			&event.ErrorMsg,
			&event.Metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		event.Timestamp = time.UnixMilli(createdAt).UTC()
		event.Level = LogLevel(level)
		event.Action = Action(action)
		events = append(events, &event)
	}

	return events, rows.Err()
}
