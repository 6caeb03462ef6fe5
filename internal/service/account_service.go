package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amirk1998/notes-web/internal/audit"
	"github.com/amirk1998/notes-web/internal/identity"
	"github.com/amirk1998/notes-web/internal/logging"
	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/internal/ratelimit"
	"github.com/amirk1998/notes-web/internal/security"
	"github.com/amirk1998/notes-web/pkg/errors"
	"github.com/amirk1998/notes-web/pkg/validator"
)

const (
	maxFailedLoginAttempts = 5
	accountLockDuration    = 30 * time.Minute
)

// UserStore persists local accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	IncrementFailedLogins(ctx context.Context, userID string) (int, error)
	LockAccount(ctx context.Context, userID string, until time.Time) error
	ResetFailedLogins(ctx context.Context, userID string) error
}

// Auditor records security-relevant account events.
type Auditor interface {
	Log(ctx context.Context, event *audit.Event) error
}

type noopAuditor struct{}

func (noopAuditor) Log(context.Context, *audit.Event) error { return nil }

// AccountService registers local users and signs them in. It is the identity
// provider behind the session tokens the web layer resolves.
type AccountService struct {
	users       UserStore
	hasher      *security.PasswordHasher
	validator   *validator.Validator
	rateLimiter *ratelimit.RateLimiter
	tokens      *identity.TokenIssuer
	audit       Auditor
	now         func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(
	users UserStore,
	hasher *security.PasswordHasher,
	rateLimiter *ratelimit.RateLimiter,
	tokens *identity.TokenIssuer,
	auditor Auditor,
) *AccountService {
	if auditor == nil {
		auditor = noopAuditor{}
	}
	return &AccountService{
		users:       users,
		hasher:      hasher,
		validator:   validator.New(),
		rateLimiter: rateLimiter,
		tokens:      tokens,
		audit:       auditor,
		now:         time.Now,
	}
}

// Register creates a new account
func (s *AccountService) Register(ctx context.Context, req models.CreateUserRequest) (res Result[*models.User]) {
	defer recoverInto("register", &res)

	if err := s.rateLimiter.CheckLimit(registerKey(ctx)); err != nil {
		s.record(ctx, &audit.Event{
			Level:    audit.LevelWarning,
			Username: req.Username,
			Action:   audit.ActionRegisterRateLimited,
			Resource: "account",
			ErrorMsg: "rate limit exceeded",
		})
		return Fail[*models.User](err)
	}

	username := s.validator.SanitizeString(req.Username)
	if err := s.validator.ValidateUsername(username); err != nil {
		return Fail[*models.User](err)
	}
	if err := s.validator.ValidatePassword(req.Password); err != nil {
		return Fail[*models.User](err)
	}

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return Fail[*models.User](errors.ErrUserAlreadyExists)
	}
	if !errors.Is(err, errors.ErrRecordNotFound) {
		logUnexpected("register", err)
		return Fail[*models.User](err)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		logUnexpected("register", err)
		return Fail[*models.User](fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		logUnexpected("register", err)
		return Fail[*models.User](err)
	}

	s.record(ctx, &audit.Event{
		UserID:   user.ID,
		Username: user.Username,
		Action:   audit.ActionRegister,
		Resource: "account",
		Success:  true,
	})

	return Ok(user)
}

// Login verifies credentials and issues a session token
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (res Result[*models.LoginResponse]) {
	defer recoverInto("login", &res)

	username := s.validator.SanitizeString(req.Username)
	if err := s.rateLimiter.CheckLimit("login:" + username); err != nil {
		s.record(ctx, &audit.Event{
			Level:    audit.LevelWarning,
			Username: username,
			Action:   audit.ActionLoginRateLimited,
			Resource: "authentication",
			ErrorMsg: "rate limit exceeded",
		})
		return Fail[*models.LoginResponse](err)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, errors.ErrRecordNotFound) {
		s.hasher.VerifyDummy(req.Password)
		s.recordFailedLogin(ctx, "", username, "unknown user")
		return Fail[*models.LoginResponse](errors.ErrInvalidCredentials)
	}
	if err != nil {
		logUnexpected("login", err)
		return Fail[*models.LoginResponse](err)
	}

	if user.LockedUntil != nil && s.now().Before(*user.LockedUntil) {
		s.recordFailedLogin(ctx, user.ID, username, "account locked")
		return Fail[*models.LoginResponse](errors.ErrAccountLocked)
	}

	valid, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		logUnexpected("login", err)
		return Fail[*models.LoginResponse](err)
	}
	if !valid {
		attempts, err := s.users.IncrementFailedLogins(ctx, user.ID)
		if err != nil {
			logUnexpected("login", err)
			return Fail[*models.LoginResponse](err)
		}
		s.recordFailedLogin(ctx, user.ID, username, "invalid password")
		if attempts >= maxFailedLoginAttempts {
			if err := s.users.LockAccount(ctx, user.ID, s.now().Add(accountLockDuration)); err != nil {
				logUnexpected("login", err)
				return Fail[*models.LoginResponse](err)
			}
			s.record(ctx, &audit.Event{
				Level:    audit.LevelCritical,
				UserID:   user.ID,
				Username: username,
				Action:   audit.ActionAccountLocked,
				Resource: "authentication",
				ErrorMsg: fmt.Sprintf("locked for %s after %d failed attempts", accountLockDuration, attempts),
			})
		}
		return Fail[*models.LoginResponse](errors.ErrInvalidCredentials)
	}

	if err := s.users.ResetFailedLogins(ctx, user.ID); err != nil {
		logUnexpected("login", err)
		return Fail[*models.LoginResponse](err)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		logUnexpected("login", err)
		return Fail[*models.LoginResponse](err)
	}

	s.record(ctx, &audit.Event{
		UserID:   user.ID,
		Username: username,
		Action:   audit.ActionLogin,
		Resource: "authentication",
		Success:  true,
	})

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return Ok(&models.LoginResponse{
		User:         user,
		SessionToken: token,
		ExpiresAt:    expiresAt,
	})
}

// registerKey buckets sign-ups per client address.
func registerKey(ctx context.Context) string {
	if ip := identity.ClientIPFrom(ctx); ip != "" {
		return "register:" + ip
	}
	return "register"
}

// record writes an audit event. Audit failures never fail the operation.
func (s *AccountService) record(ctx context.Context, event *audit.Event) {
	event.IPAddress = identity.ClientIPFrom(ctx)
	if err := s.audit.Log(ctx, event); err != nil {
		logging.Pkg("service").Warn("audit write failed", "action", event.Action, "error", err)
	}
}

func (s *AccountService) recordFailedLogin(ctx context.Context, userID, username, reason string) {
	s.record(ctx, &audit.Event{
		Level:    audit.LevelWarning,
		UserID:   userID,
		Username: username,
		Action:   audit.ActionLoginFailed,
		Resource: "authentication",
		ErrorMsg: reason,
	})
}
