package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/internal/repository"
	"github.com/amirk1998/notes-web/internal/testdb"
	"github.com/amirk1998/notes-web/pkg/errors"
)

func insertNote(t *testing.T, repo *repository.NoteRepository, id, owner string, createdAt int64) *models.Note {
	t.Helper()
	note := &models.Note{
		ID:        id,
		OwnerID:   owner,
		Title:     "title " + id,
		Content:   "content " + id,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, repo.Insert(context.Background(), note))
	return note
}

func TestNoteRepository_OwnerScopedReads(t *testing.T) {
	repo := repository.NewNoteRepository(testdb.Open(t))
	ctx := context.Background()

	want := insertNote(t, repo, "n1", "alice", 1000)

	got, err := repo.FindOwned(ctx, "alice", "n1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = repo.FindOwned(ctx, "bob", "n1")
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)

	_, err = repo.FindOwned(ctx, "alice", "missing")
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)
}

func TestNoteRepository_ListNewestFirst(t *testing.T) {
	repo := repository.NewNoteRepository(testdb.Open(t))
	ctx := context.Background()

	insertNote(t, repo, "old", "alice", 1000)
	insertNote(t, repo, "new", "alice", 3000)
	insertNote(t, repo, "mid", "alice", 2000)
	insertNote(t, repo, "other", "bob", 4000)

	notes, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "new", notes[0].ID)
	assert.Equal(t, "mid", notes[1].ID)
	assert.Equal(t, "old", notes[2].ID)

	empty, err := repo.ListByOwner(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNoteRepository_WritesRequireOwnership(t *testing.T) {
	repo := repository.NewNoteRepository(testdb.Open(t))
	ctx := context.Background()

	insertNote(t, repo, "n1", "alice", 1000)

	err := repo.UpdateOwned(ctx, "bob", "n1", "hijack", "hijack", 2000)
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)
	err = repo.DeleteOwned(ctx, "bob", "n1")
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)

	require.NoError(t, repo.UpdateOwned(ctx, "alice", "n1", "new title", "new content", 2000))
	got, err := repo.FindOwned(ctx, "alice", "n1")
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, "new content", got.Content)
	assert.Equal(t, int64(1000), got.CreatedAt)
	assert.Equal(t, int64(2000), got.UpdatedAt)

	require.NoError(t, repo.DeleteOwned(ctx, "alice", "n1"))
	_, err = repo.FindOwned(ctx, "alice", "n1")
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)
}

func TestNoteRepository_ParametersAreNotInterpolated(t *testing.T) {
	repo := repository.NewNoteRepository(testdb.Open(t))
	ctx := context.Background()

	insertNote(t, repo, "n1", "alice", 1000)

	_, err := repo.FindOwned(ctx, "x' OR '1'='1", "n1")
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)

	notes, err := repo.ListByOwner(ctx, "' OR 1=1 --")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestUserRepository_Lockout(t *testing.T) {
	repo := repository.NewUserRepository(testdb.Open(t))
	ctx := context.Background()

	user := &models.User{ID: "u1", Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Nil(t, got.LockedUntil)

	n, err := repo.IncrementFailedLogins(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	until := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	require.NoError(t, repo.LockAccount(ctx, "u1", until))
	got, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.LockedUntil)
	assert.True(t, got.LockedUntil.Equal(until))

	require.NoError(t, repo.ResetFailedLogins(ctx, "u1"))
	got, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, got.FailedLoginAttempts)
	assert.Nil(t, got.LockedUntil)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)
}
