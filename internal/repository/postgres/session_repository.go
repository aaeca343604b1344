package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gatehouse/internal/domain"

	"github.com/google/uuid"
)

// SessionRepository implements domain.SessionRepository for PostgreSQL.
// Session lookups return the record regardless of expiry or invalidation;
// deciding liveness is the validator's job, not the store's.
type SessionRepository struct {
	db                *sql.DB
	createStmt        *sql.Stmt
	getByIDStmt       *sql.Stmt
	invalidateStmt    *sql.Stmt
	deleteExpiredStmt *sql.Stmt
}

// NewSessionRepository creates a new SessionRepository with prepared statements.
// Returns an error if statement preparation fails.
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	repo := &SessionRepository{db: db}

	var err error
	repo.createStmt, err = db.Prepare(`
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}

	repo.getByIDStmt, err = db.Prepare(`
		SELECT id, user_id, expires_at, invalidated, created_at
		FROM sessions
		WHERE id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByID statement: %w", err)
	}

	repo.invalidateStmt, err = db.Prepare(`
		UPDATE sessions SET invalidated = TRUE, expires_at = $2 WHERE id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare invalidate statement: %w", err)
	}

	repo.deleteExpiredStmt, err = db.Prepare(`
		DELETE FROM sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare deleteExpired statement: %w", err)
	}

	return repo, nil
}

// Create allocates a new session record. The id is generated here if the
// caller did not set one; the single INSERT keeps creation atomic.
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	err := r.createStmt.QueryRowContext(ctx,
		session.ID,
		session.UserID,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its id.
// Returns domain.ErrSessionNotFound when no record exists.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	session := &domain.Session{}
	err := r.getByIDStmt.QueryRowContext(ctx, id).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.Invalidated,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}
	return session, nil
}

// Invalidate marks a session dead and pulls its expiry to now. Idempotent:
// re-invalidating, or invalidating an id that does not exist, is not an
// error. Rows affected is deliberately ignored.
func (r *SessionRepository) Invalidate(ctx context.Context, id string) error {
	_, err := r.invalidateStmt.ExecContext(ctx, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry has passed. Invalidated
// sessions had their expiry pulled to the invalidation instant, so they are
// swept too. Returns the number of sessions deleted.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.deleteExpiredStmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}
