package repository

import (
	"context"
	"sort"
	"sync"

	routemapDomain "github.com/colectivo/service-routemap/internal/domain/routemap"
	"github.com/google/uuid"
)

// MemorySessionRepository keeps map sessions in process memory. Sessions
// do not survive a restart.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*routemapDomain.Session
}

// NewMemorySessionRepository creates an empty MemorySessionRepository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]*routemapDomain.Session),
	}
}

// FindByID retrieves a session by its unique identifier.
func (r *MemorySessionRepository) FindByID(_ context.Context, id uuid.UUID) (*routemapDomain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, routemapDomain.NewNotFoundError("Session", id.String())
	}
	return s, nil
}

// List returns every session, oldest first.
func (r *MemorySessionRepository) List(_ context.Context) ([]*routemapDomain.Session, error) {
	r.mu.RLock()
	out := make([]*routemapDomain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

// Save stores a session, replacing any session with the same ID.
func (r *MemorySessionRepository) Save(_ context.Context, session *routemapDomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
	return nil
}

// Delete removes a session.
func (r *MemorySessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return routemapDomain.NewNotFoundError("Session", id.String())
	}
	delete(r.sessions, id)
	return nil
}
