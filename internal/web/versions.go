package web

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ViewVersions tracks a version per (owner, path) and bumps it whenever the
// note layer reports the view stale. Versions are process-local; the nonce
// keeps ETags from one process run from matching the next.
type ViewVersions struct {
	mu       sync.RWMutex
	nonce    string
	versions map[viewKey]uint64
}

type viewKey struct {
	owner string
	path  string
}

func NewViewVersions() *ViewVersions {
	return &ViewVersions{
		nonce:    uuid.NewString()[:8],
		versions: make(map[viewKey]uint64),
	}
}

// Invalidate implements service.Invalidator.
func (v *ViewVersions) Invalidate(_ context.Context, ownerID string, paths ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range paths {
		v.versions[viewKey{ownerID, p}]++
	}
}

// ETag returns the weak entity tag for an owner's view of path in the given
// representation (html, json).
func (v *ViewVersions) ETag(ownerID, path, variant string) string {
	v.mu.RLock()
	n := v.versions[viewKey{ownerID, path}]
	v.mu.RUnlock()
	return fmt.Sprintf(`W/"%s-%s-%d"`, variant, v.nonce, n)
}
