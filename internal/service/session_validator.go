package service

import (
	"context"
	"errors"
	"time"

	"gatehouse/internal/domain"
	"gatehouse/internal/observability"
)

// SessionValidator decides, fresh on every call, whether a session may still
// be used. A session is live iff it exists, has not been invalidated and its
// expiry is strictly in the future. Nothing is cached: the clock advances
// and a logout on another request can flip the record at any time.
type SessionValidator struct {
	sessionRepo domain.SessionRepository
	now         func() time.Time
}

func NewSessionValidator(sessionRepo domain.SessionRepository) *SessionValidator {
	return &SessionValidator{
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
}

// IsLive reports whether the session identified by sessionID is live.
// Missing, invalidated and expired sessions all read as not live; none of
// them is an error. A store fault also reads as not live: the check fails
// closed, and the fault is kept apart from confirmed-dead sessions only in
// logs and metrics.
func (v *SessionValidator) IsLive(ctx context.Context, sessionID string) bool {
	session, err := v.sessionRepo.GetByID(ctx, sessionID)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		observability.SessionValidations.WithLabelValues(observability.ValidationNotFound).Inc()
		return false

	case err != nil:
		observability.SessionValidations.WithLabelValues(observability.ValidationStoreError).Inc()
		observability.FromContext(ctx).Warn("session lookup failed, treating as not live",
			"session_id", sessionID,
			"error", err.Error())
		return false

	case session.Invalidated:
		observability.SessionValidations.WithLabelValues(observability.ValidationInvalidated).Inc()
		return false

	case !session.ExpiresAt.After(v.now()):
		observability.SessionValidations.WithLabelValues(observability.ValidationExpired).Inc()
		return false
	}

	observability.SessionValidations.WithLabelValues(observability.ValidationLive).Inc()
	return true
}
