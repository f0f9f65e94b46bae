package chathub

import (
	"sync"
	"time"

	"strangerchat/backend/internal/models"

	"github.com/google/uuid"
)

// Registry tracks live connections and their liveness flag.
// MarkAlive is called from connection goroutines, so the registry locks;
// everything else runs on the manager loop.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*models.Connection
	now   func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*models.Connection),
		now:   time.Now,
	}
}

// Register issues a fresh opaque id for a new connection.
func (r *Registry) Register(meta models.ClientMeta) string {
	id := newID()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &models.Connection{
		ID:        id,
		Alive:     true,
		CreatedAt: r.now(),
		Meta:      meta,
	}
	return id
}

// Unregister removes id and returns the removed entry.
func (r *Registry) Unregister(id string) (models.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return models.Connection{}, false
	}
	delete(r.conns, id)
	return *c, true
}

// Find returns a copy of the entry for id.
func (r *Registry) Find(id string) (models.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return models.Connection{}, false
	}
	return *c, true
}

// MarkAlive records that id confirmed liveness since the last sweep.
func (r *Registry) MarkAlive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[id]; ok {
		c.Alive = true
	}
}

// SweepDead returns the ids that did not confirm liveness since the previous
// sweep and clears the flag on the rest. Dead entries stay registered: the
// caller removes them through the regular disconnect path.
func (r *Registry) SweepDead() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dead []string
	for id, c := range r.conns {
		if !c.Alive {
			dead = append(dead, id)
			continue
		}
		c.Alive = false
	}
	return dead
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func newID() string {
	return uuid.New().String()
}
