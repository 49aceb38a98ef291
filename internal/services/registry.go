package services

import (
	"sync"

	"github.com/Max-OMeara/Library/internal/models"
)

// Registry maps usernames to their in-memory library state. The mutex only
// protects the map itself; per-account collections keep the one-request-at-
// a-time assumption of the rest of the design (see scripts/ for a probe that
// demonstrates the gap under concurrent writes to a single account).
type Registry struct {
	mu        sync.RWMutex
	libraries map[string]*models.Library
}

func NewRegistry() *Registry {
	return &Registry{libraries: make(map[string]*models.Library)}
}

// Library returns the library owned by username, creating an empty one on
// first access.
func (r *Registry) Library(username string) *models.Library {
	r.mu.RLock()
	lib, ok := r.libraries[username]
	r.mu.RUnlock()
	if ok {
		return lib
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if lib, ok := r.libraries[username]; ok {
		return lib
	}
	lib = models.NewLibrary()
	r.libraries[username] = lib
	return lib
}

// Remove drops all in-memory state for username.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.libraries, username)
}
