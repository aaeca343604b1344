package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"gatehouse/internal/domain"
	"gatehouse/internal/observability"
	"gatehouse/internal/password"
	"gatehouse/internal/token"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// AuthService orchestrates signup, login and logout. Both signup and login
// end the same way: a fresh session record is created and a token referencing
// it is signed. Sessions are never shared or reused across logins.
type AuthService struct {
	userRepo    domain.UserRepository
	sessionRepo domain.SessionRepository
	tokens      *token.Issuer
}

func NewAuthService(userRepo domain.UserRepository, sessionRepo domain.SessionRepository, tokens *token.Issuer) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
	}
}

// TTL returns the shared session/token lifetime.
func (s *AuthService) TTL() time.Duration {
	return s.tokens.TTL()
}

// Signup registers a new account and returns a signed access token for it.
// A duplicate email surfaces as domain.ErrEmailExists.
func (s *AuthService) Signup(ctx context.Context, email, plaintext, firstName, lastName string) (string, error) {
	if !emailRegex.MatchString(email) || len(email) > 255 {
		return "", domain.ErrInvalidInput
	}
	if len(plaintext) < 8 || len(plaintext) > 100 {
		return "", domain.ErrInvalidInput
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return "", err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}

	observability.FromContext(ctx).Info("user created", "user_id", user.ID)

	return s.startSession(ctx, user)
}

// Login verifies credentials and returns a signed access token. Unknown
// email and wrong password collapse into the same domain.ErrInvalidCredentials
// so the response cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !password.Verify(user.PasswordHash, plaintext) {
		return "", domain.ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// Logout invalidates the given session. The id must come from the caller's
// already-authenticated identity, never from unauthenticated input. Always
// succeeds when the session is already invalidated or gone.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Invalidate(ctx, sessionID); err != nil {
		return err
	}

	observability.FromContext(ctx).Info("session invalidated", "session_id", sessionID)
	return nil
}

// GetUserByID fetches the account behind an authenticated identity.
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// startSession creates a fresh session record and signs a token bound to it.
// The record's expiry and the token's exp claim use the same TTL so the
// claim-level expiry stays a trustworthy fast pre-check.
func (s *AuthService) startSession(ctx context.Context, user *domain.User) (string, error) {
	session := &domain.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.tokens.TTL()),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	observability.SessionsCreated.Inc()

	return s.tokens.Issue(user.ID, user.Email, session.ID)
}
