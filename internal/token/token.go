// Package token issues and decodes the signed bearer tokens that bind a
// user identity to a server-side session record.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret indicates a deployment defect: the service must not
	// start without a signing secret.
	ErrMissingSecret = errors.New("signing secret is not configured")

	// ErrInvalidToken covers every decode failure: bad signature, malformed
	// structure, missing claims, expired claim set. Callers must not learn
	// which check failed.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the signed claim set carried by an access token. SessionID is
// the join key back to the server-side session record; the embedded expiry
// mirrors that record's expiry at issuance time.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	SessionID string `json:"sessionId"`
}

// Issuer signs and decodes access tokens with an HMAC-SHA256 secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. The same ttl must be used for the session
// records the tokens reference, so that the claim-level expiry can serve as
// a cheap pre-check before the authoritative store lookup.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the shared session/token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue builds and signs the claim set {sub, email, sessionId, exp} with
// exp set ttl from now, in lockstep with the session record.
func (i *Issuer) Issue(userID, email, sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email:     email,
		SessionID: sessionID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and structural shape of a token and returns
// its claims. The claim-level expiry is enforced here as a fast path only;
// final admission still requires a live session record, since the session
// can be invalidated long before the token's own expiry.
func (i *Issuer) Decode(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Email == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
