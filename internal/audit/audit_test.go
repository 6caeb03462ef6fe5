package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirk1998/notes-web/internal/testdb"
)

func newTestLogger(t *testing.T, now *time.Time) *Logger {
	t.Helper()
	l := NewLogger(testdb.Open(t))
	l.now = func() time.Time { return *now }
	return l
}

func TestLogAndQuery(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLogger(t, &now)

	require.NoError(t, l.Log(ctx, &Event{
		UserID: "u1", Username: "alice", Action: ActionRegister,
		Resource: "account", IPAddress: "203.0.113.9", Success: true,
	}))
	now = now.Add(time.Minute)
	require.NoError(t, l.Log(ctx, &Event{
		Level: LevelWarning, Username: "alice", Action: ActionLoginFailed,
		Resource: "authentication", ErrorMsg: "invalid password",
	}))

	all, err := l.QueryLogs(ctx, QueryFilters{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ActionLoginFailed, all[0].Action, "newest first")
	assert.Equal(t, LevelWarning, all[0].Level)
	assert.False(t, all[0].Success)
	assert.Equal(t, now, all[0].Timestamp)

	reg := all[1]
	assert.Equal(t, ActionRegister, reg.Action)
	assert.Equal(t, LevelInfo, reg.Level, "level defaults to info")
	assert.Equal(t, "u1", reg.UserID)
	assert.Equal(t, "203.0.113.9", reg.IPAddress)
	assert.True(t, reg.Success)

	failed, err := l.QueryLogs(ctx, QueryFilters{Action: ActionLoginFailed})
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	since := now
	recent, err := l.QueryLogs(ctx, QueryFilters{Since: &since, Username: "alice"})
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	limited, err := l.QueryLogs(ctx, QueryFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestQueryTreatsFilterValuesAsData(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	l := newTestLogger(t, &now)
	require.NoError(t, l.Log(ctx, &Event{Username: "bob", Action: ActionLogin, Resource: "authentication", Success: true}))

	events, err := l.QueryLogs(ctx, QueryFilters{Username: "bob' OR '1'='1"})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDetectFailedLogins(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLogger(t, &now)
	m := NewMonitor(l)

	// Outside the window.
	for i := 0; i < defaultThreshold; i++ {
		require.NoError(t, l.Log(ctx, &Event{Username: "carol", Action: ActionLoginFailed, Resource: "authentication"}))
	}
	now = now.Add(time.Hour)

	for i := 0; i < defaultThreshold; i++ {
		require.NoError(t, l.Log(ctx, &Event{Username: "mallory", Action: ActionLoginFailed, Resource: "authentication"}))
	}
	for i := 0; i < defaultThreshold-1; i++ {
		require.NoError(t, l.Log(ctx, &Event{Username: "dave", Action: ActionLoginFailed, Resource: "authentication"}))
	}

	flagged, err := m.DetectFailedLogins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mallory"}, flagged)

	alerts, err := l.QueryLogs(ctx, QueryFilters{Action: ActionFailedLoginBurst})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, LevelCritical, alerts[0].Level)
	assert.Equal(t, "mallory", alerts[0].Username)
}
