package page

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tavukcu/ahmetlimedya/internal/store"
)

// Registry hands out per-view handles so the HTTP layer can keep one View
// per open admin listing instead of a process-wide singleton. Views for
// different sessions never share paging state.
type Registry struct {
	st    store.Store
	mu    sync.Mutex
	views map[string]*View
}

func NewRegistry(st store.Store) *Registry {
	return &Registry{st: st, views: make(map[string]*View)}
}

// Create opens a new view and returns its handle.
func (r *Registry) Create(opts Options) (string, *View) {
	id := uuid.NewString()
	v := NewView(r.st, opts)

	r.mu.Lock()
	r.views[id] = v
	r.mu.Unlock()

	return id, v
}

func (r *Registry) Get(id string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	return v, ok
}

// Drop discards a view once its listing is closed.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.views, id)
	r.mu.Unlock()
}
