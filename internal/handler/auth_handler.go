package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"gatehouse/internal/domain"
	"gatehouse/internal/middleware"
	"gatehouse/internal/observability"
	"gatehouse/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService   *service.AuthService
	secureCookies bool
}

// NewAuthHandler creates a new authentication handler. secureCookies should
// be true whenever the service is reached over HTTPS.
func NewAuthHandler(authService *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// SignupRequest represents signup request
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the signed access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// MeResponse represents the authenticated account
type MeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Signup handles account registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	accessToken, err := h.authService.Signup(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailExists):
			http.Error(w, `{"error":"credentials taken"}`, http.StatusConflict)
		case errors.Is(err, domain.ErrInvalidInput):
			http.Error(w, `{"error":"invalid input"}`, http.StatusBadRequest)
		default:
			observability.FromContext(r.Context()).Error("signup failed", "error", err.Error())
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		}
		return
	}

	h.setTokenCookie(w, accessToken)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(TokenResponse{AccessToken: accessToken})
}

// Login handles credential verification and token issuance
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	accessToken, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			observability.Logins.WithLabelValues("rejected").Inc()
			// One message for unknown email and wrong password alike.
			http.Error(w, `{"error":"credentials incorrect"}`, http.StatusUnauthorized)
			return
		}
		observability.Logins.WithLabelValues("error").Inc()
		observability.FromContext(r.Context()).Error("login failed", "error", err.Error())
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	observability.Logins.WithLabelValues("success").Inc()
	h.setTokenCookie(w, accessToken)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{AccessToken: accessToken})
}

// Logout invalidates the caller's session. The session id comes from the
// guard-produced identity, never from the request body.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, `{"error":"no credential"}`, http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), identity.SessionID); err != nil {
		observability.FromContext(r.Context()).Error("logout failed", "error", err.Error())
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.clearTokenCookie(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "logged out"})
}

// Me returns the account behind the authenticated identity
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		http.Error(w, `{"error":"no credential"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		observability.FromContext(r.Context()).Error("me lookup failed", "error", err.Error())
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MeResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// setTokenCookie mirrors the token into an httpOnly cookie for browser
// clients. The guard itself only reads the Authorization header.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.authService.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
