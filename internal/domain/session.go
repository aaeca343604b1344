package domain

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind one issued token. A token stays
// cryptographically valid until its own expiry, so this record is what makes
// a login independently revocable: once Invalidated is set the session is
// dead no matter what the token claims.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	Invalidated bool      `json:"invalidated"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionRepository defines the interface for session data access.
//
// Invalidate is idempotent and succeeds silently when the id does not
// exist; logout must not fail because the session is already gone.
// DeleteExpired is maintenance only: validation never deletes rows.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Invalidate(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
