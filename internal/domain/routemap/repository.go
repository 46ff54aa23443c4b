package routemap

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository defines the storage contract for map sessions.
type SessionRepository interface {
	// FindByID retrieves a session by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// List returns every live session.
	List(ctx context.Context) ([]*Session, error)

	// Save stores a new session or replaces an existing one with the same ID.
	Save(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id uuid.UUID) error
}
