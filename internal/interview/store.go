package interview

import "context"

// Store keeps sessions by id. Implementations hand out and accept copies, so
// callers never alias the stored record.
type Store interface {
	// Create stores a new session. An existing id is an error.
	Create(ctx context.Context, s *Session) error
	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Save replaces an existing session or returns ErrNotFound.
	Save(ctx context.Context, s *Session) error
}
