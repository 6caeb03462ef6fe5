package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/amirk1998/notes-web/internal/logging"
)

const (
	defaultWindow    = 5 * time.Minute
	defaultThreshold = 5
	scanLimit        = 1000
)

// Monitor looks for bursts of failed logins across all accounts, including
// usernames that do not exist.
type Monitor struct {
	logger    *Logger
	window    time.Duration
	threshold int
}

// NewMonitor creates a new security monitor
func NewMonitor(logger *Logger) *Monitor {
	return &Monitor{
		logger:    logger,
		window:    defaultWindow,
		threshold: defaultThreshold,
	}
}

// DetectFailedLogins returns the usernames with at least threshold failed
// logins inside the window, sorted, and records a critical event for each.
func (m *Monitor) DetectFailedLogins(ctx context.Context) ([]string, error) {
	now := m.logger.now()
	since := now.Add(-m.window)

	events, err := m.logger.QueryLogs(ctx, QueryFilters{
		Since:  &since,
		Until:  &now,
		Action: ActionLoginFailed,
		Limit:  scanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	failed := make(map[string]int)
	for _, event := range events {
		if event.Username != "" {
			failed[event.Username]++
		}
	}

	var flagged []string
	for username, count := range failed {
		if count >= m.threshold {
			flagged = append(flagged, username)
		}
	}
	sort.Strings(flagged)

	for _, username := range flagged {
		err := m.logger.Log(ctx, &Event{
			Level:    LevelCritical,
			Username: username,
			Action:   ActionFailedLoginBurst,
			Resource: "authentication",
			ErrorMsg: fmt.Sprintf("%d failed attempts in %s", failed[username], m.window),
		})
		if err != nil {
			return flagged, err
		}
	}

	return flagged, nil
}

// Start runs DetectFailedLogins once per window until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.DetectFailedLogins(ctx); err != nil {
				logging.Pkg("audit").Warn("failed login scan failed", "error", err)
			}
		}
	}
}
