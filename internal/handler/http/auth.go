package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/scorpion00100/crealith/internal/domain"
	"github.com/scorpion00100/crealith/internal/service"
	"github.com/scorpion00100/crealith/internal/session"
	"github.com/scorpion00100/crealith/pkg/httputil"
	"github.com/scorpion00100/crealith/pkg/middleware"
	"github.com/scorpion00100/crealith/pkg/validator"
)

// AuthService is the account surface the HTTP layer depends on. The session
// context consumes its AuthAPI subset; the remaining operations are exposed
// directly as endpoints.
type AuthService interface {
	session.AuthAPI
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
}

// AuthHandler handles HTTP requests for auth endpoints. Login, register and
// logout route through the caller's server-side session context so browser
// state and the token store stay in sync; the remaining endpoints talk to the
// service directly.
type AuthHandler struct {
	auth     AuthService
	sessions *session.Manager
	secure   bool
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(auth AuthService, sessions *session.Manager, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, secure: secure, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Role      string `json:"role" validate:"omitempty,oneof=buyer seller"`
	Next      string `json:"next"`
}

// LoginRequest is the JSON request body for user login. Next carries the
// navigation state a route guard attached before redirecting to the form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Next     string `json:"next"`
}

// RefreshTokenRequest is the JSON request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest is the JSON request body for logout. The refresh token is
// optional; browser sessions are identified by their cookie instead.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest is the JSON request body for forgot password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the JSON request body for password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// VerifyEmailRequest is the JSON request body for email verification.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// --- Response types ---

// AuthResponse wraps the signed-in user with tokens and the post-login
// destination.
type AuthResponse struct {
	User       *domain.User      `json:"user"`
	Tokens     *domain.TokenPair `json:"tokens"`
	RedirectTo string            `json:"redirect_to,omitempty"`
}

// --- Handlers ---

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}

	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sc := SessionFromRequest(r)
	if sc == nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "no session bound to request"},
		})
		return
	}

	tokens, err := sc.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	snap := sc.Snapshot()
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: AuthResponse{
			User:       snap.User,
			Tokens:     tokens,
			RedirectTo: sc.Redirects().AfterLogin(req.Next, roleOf(snap.User)),
		},
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sc := SessionFromRequest(r)
	if sc == nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "no session bound to request"},
		})
		return
	}

	tokens, err := sc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	snap := sc.Snapshot()
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{
			User:       snap.User,
			Tokens:     tokens,
			RedirectTo: sc.Redirects().AfterLogin(req.Next, roleOf(snap.User)),
		},
	})
}

// Logout handles POST /api/v1/auth/logout. The session's stored refresh token
// is revoked best-effort and the cookie is cleared; logout never fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if r.ContentLength > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
		// A malformed body does not keep a user signed in.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if sc := SessionFromRequest(r); sc != nil {
		sc.Logout(r.Context())
		if sid := sessionIDFromRequest(r); sid != "" {
			h.sessions.Delete(sid)
		}
	}

	// Token-carrying API clients revoke explicitly.
	if req.RefreshToken != "" {
		if err := h.auth.Revoke(r.Context(), req.RefreshToken); err != nil {
			h.logger.WarnContext(r.Context(), "revoke on logout failed",
				slog.String("error", err.Error()),
			)
		}
	}

	clearSessionCookie(w, h.secure)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "logged out"},
	})
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, tokens, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{User: user, Tokens: tokens},
	})
}

// Profile handles GET /api/v1/auth/profile (bearer token required).
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Same message whether or not the account exists.
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "if the email exists, a password reset link has been sent"},
	})
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "password has been reset successfully"},
	})
}

// VerifyEmail handles POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.VerifyEmail(r.Context(), req.Token); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "email verified"},
	})
}

func roleOf(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.Role
}
