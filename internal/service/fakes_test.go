package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/amirk1998/notes-web/internal/audit"
	"github.com/amirk1998/notes-web/internal/identity"
	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/pkg/errors"
)

// memStore is an owner-scoped NoteStore with failure injection.
type memStore struct {
	mu    sync.Mutex
	notes map[string]models.Note
	calls int

	failInsert error
	failFind   error
	failList   error
	failUpdate error
	failDelete error
	panicOn    string

	// afterFind runs after every successful FindOwned, to simulate races.
	afterFind func()
}

func newMemStore() *memStore {
	return &memStore{notes: make(map[string]models.Note)}
}

func (m *memStore) enter(op string) {
	m.calls++
	if m.panicOn == op {
		panic("boom in " + op)
	}
}

func (m *memStore) Insert(_ context.Context, note *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enter("insert")
	if m.failInsert != nil {
		return m.failInsert
	}
	m.notes[note.ID] = *note
	return nil
}

func (m *memStore) FindOwned(_ context.Context, ownerID, id string) (*models.Note, error) {
	m.mu.Lock()
	m.enter("find")
	if m.failFind != nil {
		m.mu.Unlock()
		return nil, m.failFind
	}
	n, ok := m.notes[id]
	m.mu.Unlock()
	if !ok || n.OwnerID != ownerID {
		return nil, errors.ErrRecordNotFound
	}
	if m.afterFind != nil {
		m.afterFind()
	}
	return &n, nil
}

func (m *memStore) ListByOwner(_ context.Context, ownerID string) ([]*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enter("list")
	if m.failList != nil {
		return nil, m.failList
	}
	var out []*models.Note
	for _, n := range m.notes {
		if n.OwnerID == ownerID {
			n := n
			out = append(out, &n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *memStore) UpdateOwned(_ context.Context, ownerID, id, title, content string, updatedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enter("update")
	if m.failUpdate != nil {
		return m.failUpdate
	}
	n, ok := m.notes[id]
	if !ok || n.OwnerID != ownerID {
		return errors.ErrRecordNotFound
	}
	n.Title, n.Content, n.UpdatedAt = title, content, updatedAt
	m.notes[id] = n
	return nil
}

func (m *memStore) DeleteOwned(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enter("delete")
	if m.failDelete != nil {
		return m.failDelete
	}
	n, ok := m.notes[id]
	if !ok || n.OwnerID != ownerID {
		return errors.ErrRecordNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(start time.Time, step time.Duration) *fakeClock {
	return &fakeClock{now: start, step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// as returns a context authenticated as userID.
func as(userID string) context.Context {
	return identity.WithUser(context.Background(), userID)
}

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []invalidation
}

type invalidation struct {
	owner string
	paths []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ownerID string, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, invalidation{owner: ownerID, paths: paths})
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAuditor) Log(_ context.Context, event *audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *recordingAuditor) byAction(action audit.Action) []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Event
	for _, e := range r.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type auditorFunc func(ctx context.Context, event *audit.Event) error

func (f auditorFunc) Log(ctx context.Context, event *audit.Event) error { return f(ctx, event) }
