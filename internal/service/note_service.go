package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amirk1998/notes-web/internal/identity"
	"github.com/amirk1998/notes-web/internal/logging"
	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/pkg/errors"
	"github.com/amirk1998/notes-web/pkg/validator"
)

// NoteStore is the owner-scoped persistence the note service needs. Every
// method filters by owner in the same statement that reads or writes the row,
// and reports a missing or foreign row as errors.ErrRecordNotFound.
type NoteStore interface {
	Insert(ctx context.Context, note *models.Note) error
	FindOwned(ctx context.Context, ownerID, id string) (*models.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error)
	UpdateOwned(ctx context.Context, ownerID, id, title, content string, updatedAt int64) error
	DeleteOwned(ctx context.Context, ownerID, id string) error
}

// Invalidator is told which views of an owner went stale after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID string, paths ...string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, string, ...string) {}

// NoteService is the action layer for notes.
type NoteService struct {
	notes       NoteStore
	identity    identity.Resolver
	validator   *validator.Validator
	invalidator Invalidator
	now         func() time.Time
	newID       func() string
}

// NoteOption customises a NoteService.
type NoteOption func(*NoteService)

// WithClock replaces the time source.
func WithClock(now func() time.Time) NoteOption {
	return func(s *NoteService) { s.now = now }
}

// WithIDGenerator replaces the note id generator.
func WithIDGenerator(newID func() string) NoteOption {
	return func(s *NoteService) { s.newID = newID }
}

// WithInvalidator registers the receiver of stale-view notifications.
func WithInvalidator(inv Invalidator) NoteOption {
	return func(s *NoteService) { s.invalidator = inv }
}

// NewNoteService creates a new note service
func NewNoteService(notes NoteStore, resolver identity.Resolver, opts ...NoteOption) *NoteService {
	s := &NoteService{
		notes:       notes,
		identity:    resolver,
		validator:   validator.New(),
		invalidator: noopInvalidator{},
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create creates a new note owned by the caller
func (s *NoteService) Create(ctx context.Context, req models.CreateNoteRequest) (res Result[*models.Note]) {
	defer recoverInto("create", &res)

	ownerID, err := s.resolveOwner(ctx, "create")
	if err != nil {
		return Fail[*models.Note](err)
	}

	title, content, err := s.validateFields(req.Title, req.Content)
	if err != nil {
		return Fail[*models.Note](err)
	}

	now := s.now().UnixMilli()
	note := &models.Note{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.notes.Insert(ctx, note); err != nil {
		return Fail[*models.Note](errors.Wrap(errors.ErrCreateFailed, err))
	}

	s.invalidator.Invalidate(ctx, ownerID, "/")

	return Ok(note)
}

// List returns the caller's notes, newest first
func (s *NoteService) List(ctx context.Context) (res Result[[]*models.Note]) {
	defer recoverInto("list", &res)

	ownerID, err := s.resolveOwner(ctx, "list")
	if err != nil {
		return Fail[[]*models.Note](err)
	}

	notes, err := s.notes.ListByOwner(ctx, ownerID)
	if err != nil {
		return Fail[[]*models.Note](errors.Wrap(errors.ErrFetchFailed, err))
	}
	if notes == nil {
		notes = []*models.Note{}
	}

	return Ok(notes)
}

// GetByID returns one of the caller's notes. A note owned by someone else is
// reported exactly like a missing one.
func (s *NoteService) GetByID(ctx context.Context, id string) (res Result[*models.Note]) {
	defer recoverInto("get", &res)

	ownerID, err := s.resolveOwner(ctx, "get")
	if err != nil {
		return Fail[*models.Note](err)
	}

	id = s.validator.SanitizeString(id)
	if err := s.validator.ValidateNoteID(id); err != nil {
		return Fail[*models.Note](err)
	}

	note, err := s.fetchOwned(ctx, ownerID, id)
	if err != nil {
		return Fail[*models.Note](err)
	}

	return Ok(note)
}

// Update replaces title and content of one of the caller's notes
func (s *NoteService) Update(ctx context.Context, id string, req models.UpdateNoteRequest) (res Result[*models.Note]) {
	defer recoverInto("update", &res)

	ownerID, err := s.resolveOwner(ctx, "update")
	if err != nil {
		return Fail[*models.Note](err)
	}

	id = s.validator.SanitizeString(id)
	if err := s.validator.ValidateNoteID(id); err != nil {
		return Fail[*models.Note](err)
	}
	title, content, err := s.validateFields(req.Title, req.Content)
	if err != nil {
		return Fail[*models.Note](err)
	}

	existing, err := s.fetchOwned(ctx, ownerID, id)
	if err != nil {
		return Fail[*models.Note](err)
	}

	// updatedAt never moves backwards, even if the clock does.
	updatedAt := max(s.now().UnixMilli(), existing.UpdatedAt)

	// The write repeats the owner filter; the lookup alone enforces nothing.
	if err := s.notes.UpdateOwned(ctx, ownerID, id, title, content, updatedAt); err != nil {
		if errors.Is(err, errors.ErrRecordNotFound) {
			return Fail[*models.Note](errors.ErrNotFound)
		}
		return Fail[*models.Note](errors.Wrap(errors.ErrUpdateFailed, err))
	}

	s.invalidator.Invalidate(ctx, ownerID, "/", notePath(id))

	return Ok(&models.Note{
		ID:        id,
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: updatedAt,
	})
}

// Delete permanently removes one of the caller's notes
func (s *NoteService) Delete(ctx context.Context, id string) (res Result[Unit]) {
	defer recoverInto("delete", &res)

	ownerID, err := s.resolveOwner(ctx, "delete")
	if err != nil {
		return Fail[Unit](err)
	}

	id = s.validator.SanitizeString(id)
	if err := s.validator.ValidateNoteID(id); err != nil {
		return Fail[Unit](err)
	}

	if _, err := s.fetchOwned(ctx, ownerID, id); err != nil {
		return Fail[Unit](err)
	}

	if err := s.notes.DeleteOwned(ctx, ownerID, id); err != nil {
		if errors.Is(err, errors.ErrRecordNotFound) {
			return Fail[Unit](errors.ErrNotFound)
		}
		return Fail[Unit](errors.Wrap(errors.ErrDeleteFailed, err))
	}

	s.invalidator.Invalidate(ctx, ownerID, "/", notePath(id))

	return Ok(Unit{})
}

// resolveOwner returns the caller's id, ErrUnauthorized when anonymous, or
// ErrUnexpected when the identity provider fails.
func (s *NoteService) resolveOwner(ctx context.Context, op string) (string, error) {
	ownerID, err := s.identity.ResolveCurrentUser(ctx)
	if err != nil {
		logUnexpected(op, err)
		return "", errors.Wrap(errors.ErrUnexpected, err)
	}
	if ownerID == "" {
		return "", errors.ErrUnauthorized
	}
	return ownerID, nil
}

// fetchOwned reads a note by id and owner in one statement.
func (s *NoteService) fetchOwned(ctx context.Context, ownerID, id string) (*models.Note, error) {
	note, err := s.notes.FindOwned(ctx, ownerID, id)
	if errors.Is(err, errors.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrFetchFailed, err)
	}
	return note, nil
}

func (s *NoteService) validateFields(rawTitle, rawContent string) (string, string, error) {
	title := s.validator.SanitizeString(rawTitle)
	if err := s.validator.ValidateNoteTitle(title); err != nil {
		return "", "", err
	}
	content := s.validator.SanitizeString(rawContent)
	if err := s.validator.ValidateNoteContent(content); err != nil {
		return "", "", err
	}
	return title, content, nil
}

func notePath(id string) string {
	return "/notes/" + id
}

func logUnexpected(op string, err error) {
	logging.Pkg("service").Error("unexpected error", "op", op, "error", err)
}

// recoverInto turns a panic inside an operation into the generic failure.
func recoverInto[T any](op string, res *Result[T]) {
	if p := recover(); p != nil {
		logUnexpected(op, fmt.Errorf("panic: %v", p))
		*res = Fail[T](errors.ErrUnexpected)
	}
}
