package middleware

import (
	"context"
	"net/http"
	"strings"

	"gatehouse/internal/token"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller produced by the guard and threaded to
// downstream handlers through the request context. SessionID is carried so
// that logout can invalidate the exact record behind the presented token.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

// SessionChecker is the authoritative liveness decision the guard defers to
// after the token itself checks out.
type SessionChecker interface {
	IsLive(ctx context.Context, sessionID string) bool
}

// Auth is the per-request gate in front of protected handlers. It extracts
// the bearer token, verifies its signature and shape, and then asks the
// session checker for the final word; the token's own expiry is only a fast
// pre-check, so a logged-out session is rejected even while its token is
// still cryptographically valid. The guard never mutates session state.
func Auth(tokens *token.Issuer, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				http.Error(w, `{"error":"no credential"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Decode(raw)
			if err != nil {
				http.Error(w, `{"error":"invalid credential"}`, http.StatusUnauthorized)
				return
			}

			if !sessions.IsLive(r.Context(), claims.SessionID) {
				http.Error(w, `{"error":"session invalid or expired"}`, http.StatusUnauthorized)
				return
			}

			identity := &Identity{
				UserID:    claims.Subject,
				Email:     claims.Email,
				SessionID: claims.SessionID,
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" when the header is absent or not a bearer credential.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}

// GetIdentity retrieves the authenticated identity from the context
func GetIdentity(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}

// WithIdentity attaches an authenticated identity to the context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
