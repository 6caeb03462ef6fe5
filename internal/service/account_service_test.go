package service

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirk1998/notes-web/internal/audit"
	"github.com/amirk1998/notes-web/internal/identity"
	"github.com/amirk1998/notes-web/internal/logging"
	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/internal/ratelimit"
	"github.com/amirk1998/notes-web/internal/repository"
	"github.com/amirk1998/notes-web/internal/security"
	"github.com/amirk1998/notes-web/internal/testdb"
	"github.com/amirk1998/notes-web/pkg/errors"
)

const strongPassword = "Correct-Horse-42"

func newTestAccounts(t *testing.T) (*AccountService, *identity.TokenIssuer) {
	svc, tokens, _ := newAuditedAccounts(t, ratelimit.NewRateLimiter(1000, 1000))
	return svc, tokens
}

func newAuditedAccounts(t *testing.T, limiter *ratelimit.RateLimiter) (*AccountService, *identity.TokenIssuer, *recordingAuditor) {
	t.Helper()
	tokens := identity.NewTokenIssuer(strings.Repeat("s", 32), time.Hour)
	auditor := &recordingAuditor{}
	svc := NewAccountService(
		repository.NewUserRepository(testdb.Open(t)),
		security.NewFastPasswordHasher(),
		limiter,
		tokens,
		auditor,
	)
	return svc, tokens, auditor
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newTestAccounts(t)
	ctx := context.Background()

	reg := svc.Register(ctx, models.CreateUserRequest{Username: "alice_1", Password: strongPassword})
	require.True(t, reg.OK(), reg.ErrorMessage())
	assert.NotEmpty(t, reg.Value().ID)
	assert.NotContains(t, reg.Value().PasswordHash, strongPassword)

	login := svc.Login(ctx, models.LoginRequest{Username: "alice_1", Password: strongPassword})
	require.True(t, login.OK(), login.ErrorMessage())

	userID, err := tokens.Verify(login.Value().SessionToken)
	require.NoError(t, err)
	assert.Equal(t, reg.Value().ID, userID)
}

func TestRegisterRejectsDuplicatesAndWeakInput(t *testing.T) {
	svc, _ := newTestAccounts(t)
	ctx := context.Background()

	require.True(t, svc.Register(ctx, models.CreateUserRequest{Username: "bob_1", Password: strongPassword}).OK())

	dup := svc.Register(ctx, models.CreateUserRequest{Username: "bob_1", Password: strongPassword})
	assert.ErrorIs(t, dup.Err(), errors.ErrUserAlreadyExists)

	weak := svc.Register(ctx, models.CreateUserRequest{Username: "carol", Password: "short"})
	assert.ErrorIs(t, weak.Err(), errors.ErrWeakPassword)

	badName := svc.Register(ctx, models.CreateUserRequest{Username: "no spaces!", Password: strongPassword})
	assert.ErrorIs(t, badName.Err(), errors.ErrInvalidUsername)
}

func TestLoginUnknownUserLooksLikeBadPassword(t *testing.T) {
	svc, _ := newTestAccounts(t)
	ctx := context.Background()
	require.True(t, svc.Register(ctx, models.CreateUserRequest{Username: "dave", Password: strongPassword}).OK())

	unknown := svc.Login(ctx, models.LoginRequest{Username: "nobody", Password: strongPassword})
	wrong := svc.Login(ctx, models.LoginRequest{Username: "dave", Password: "Wrong-Password-1"})

	assert.Equal(t, unknown.ErrorMessage(), wrong.ErrorMessage())
	assert.ErrorIs(t, unknown.Err(), errors.ErrInvalidCredentials)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	svc, _ := newTestAccounts(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.True(t, svc.Register(ctx, models.CreateUserRequest{Username: "erin", Password: strongPassword}).OK())

	for i := 0; i < maxFailedLoginAttempts; i++ {
		res := svc.Login(ctx, models.LoginRequest{Username: "erin", Password: "Wrong-Password-1"})
		require.ErrorIs(t, res.Err(), errors.ErrInvalidCredentials, "attempt %d", i+1)
	}

	locked := svc.Login(ctx, models.LoginRequest{Username: "erin", Password: strongPassword})
	assert.ErrorIs(t, locked.Err(), errors.ErrAccountLocked)

	now = now.Add(accountLockDuration + time.Second)
	unlocked := svc.Login(ctx, models.LoginRequest{Username: "erin", Password: strongPassword})
	assert.True(t, unlocked.OK(), unlocked.ErrorMessage())
}

func TestLoginIsRateLimited(t *testing.T) {
	svc, _, _ := newAuditedAccounts(t, ratelimit.NewRateLimiter(1, 1))
	ctx := context.Background()

	svc.Login(ctx, models.LoginRequest{Username: "frank", Password: "x"})
	res := svc.Login(ctx, models.LoginRequest{Username: "frank", Password: "x"})
	assert.ErrorIs(t, res.Err(), errors.ErrRateLimitExceeded)
}

func TestUnexpectedErrorLogsOneDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	restore := logging.SetOutputForTests(&buf)
	defer restore()

	failing := identity.ResolverFunc(func(context.Context) (string, error) {
		return "", stderrors.New("session backend unavailable")
	})
	res := NewNoteService(newMemStore(), failing).GetByID(context.Background(), "id")

	assert.Equal(t, errors.KindUnexpected, res.Kind())
	assert.Equal(t, 1, strings.Count(buf.String(), "unexpected error"))
	assert.Contains(t, buf.String(), "session backend unavailable")
	assert.NotContains(t, res.ErrorMessage(), "session backend")
}

func TestRegisterRateLimitIsPerClientAddress(t *testing.T) {
	svc, _, auditor := newAuditedAccounts(t, ratelimit.NewRateLimiter(1, 1))
	fromA := identity.WithClientIP(context.Background(), "198.51.100.1")
	fromB := identity.WithClientIP(context.Background(), "198.51.100.2")

	require.True(t, svc.Register(fromA, models.CreateUserRequest{Username: "gina", Password: strongPassword}).OK())

	blocked := svc.Register(fromA, models.CreateUserRequest{Username: "hank", Password: strongPassword})
	assert.ErrorIs(t, blocked.Err(), errors.ErrRateLimitExceeded)

	other := svc.Register(fromB, models.CreateUserRequest{Username: "hank", Password: strongPassword})
	assert.True(t, other.OK(), other.ErrorMessage())

	limited := auditor.byAction(audit.ActionRegisterRateLimited)
	require.Len(t, limited, 1)
	assert.Equal(t, "198.51.100.1", limited[0].IPAddress)
	assert.Equal(t, "hank", limited[0].Username)
}

func TestAccountEventsAreAudited(t *testing.T) {
	svc, _, auditor := newAuditedAccounts(t, ratelimit.NewRateLimiter(1000, 1000))
	ctx := identity.WithClientIP(context.Background(), "203.0.113.7")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	reg := svc.Register(ctx, models.CreateUserRequest{Username: "ivy", Password: strongPassword})
	require.True(t, reg.OK())
	userID := reg.Value().ID

	require.True(t, svc.Login(ctx, models.LoginRequest{Username: "ivy", Password: strongPassword}).OK())
	svc.Login(ctx, models.LoginRequest{Username: "ghost", Password: strongPassword})
	for i := 0; i < maxFailedLoginAttempts; i++ {
		svc.Login(ctx, models.LoginRequest{Username: "ivy", Password: "Wrong-Password-1"})
	}
	svc.Login(ctx, models.LoginRequest{Username: "ivy", Password: strongPassword})

	registered := auditor.byAction(audit.ActionRegister)
	require.Len(t, registered, 1)
	assert.Equal(t, userID, registered[0].UserID)
	assert.True(t, registered[0].Success)
	assert.Equal(t, "203.0.113.7", registered[0].IPAddress)

	assert.Len(t, auditor.byAction(audit.ActionLogin), 1)

	failed := auditor.byAction(audit.ActionLoginFailed)
	// unknown user, five bad passwords, one attempt while locked
	require.Len(t, failed, 1+maxFailedLoginAttempts+1)
	assert.Equal(t, "ghost", failed[0].Username)
	assert.Empty(t, failed[0].UserID)
	assert.Equal(t, "account locked", failed[len(failed)-1].ErrorMsg)
	for _, e := range failed {
		assert.False(t, e.Success)
		assert.NotContains(t, e.ErrorMsg, strongPassword)
	}

	locked := auditor.byAction(audit.ActionAccountLocked)
	require.Len(t, locked, 1)
	assert.Equal(t, userID, locked[0].UserID)
	assert.Equal(t, audit.LevelCritical, locked[0].Level)
}

func TestLoginRateLimitIsAudited(t *testing.T) {
	svc, _, auditor := newAuditedAccounts(t, ratelimit.NewRateLimiter(1, 1))
	ctx := context.Background()

	svc.Login(ctx, models.LoginRequest{Username: "jack", Password: "x"})
	svc.Login(ctx, models.LoginRequest{Username: "jack", Password: "x"})

	limited := auditor.byAction(audit.ActionLoginRateLimited)
	require.Len(t, limited, 1)
	assert.Equal(t, "jack", limited[0].Username)
}

func TestAuditFailureDoesNotFailLogin(t *testing.T) {
	tokens := identity.NewTokenIssuer(strings.Repeat("s", 32), time.Hour)
	broken := auditorFunc(func(context.Context, *audit.Event) error { return stderrors.New("audit table missing") })
	svc := NewAccountService(
		repository.NewUserRepository(testdb.Open(t)),
		security.NewFastPasswordHasher(),
		ratelimit.NewRateLimiter(1000, 1000),
		tokens,
		broken,
	)
	ctx := context.Background()

	require.True(t, svc.Register(ctx, models.CreateUserRequest{Username: "kate", Password: strongPassword}).OK())
	assert.True(t, svc.Login(ctx, models.LoginRequest{Username: "kate", Password: strongPassword}).OK())
}
