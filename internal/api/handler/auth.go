package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/api/response"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/user"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *auth.Service
	profiles    *user.Service
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service, profiles *user.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		profiles:    profiles,
		logger:      logger,
	}
}

// SignUp handles POST /v1/auth/signup - create an account and sign it in.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tokens, u, err := h.authService.SignUp(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// The profile is created lazily on first read if this fails.
	if _, err := h.profiles.Create(r.Context(), u.ID, u.Email, req.Name); err != nil {
		h.logger.Warn().Err(err).Str("user_id", u.ID).Msg("failed to create profile at signup")
	}

	response.JSON(w, r, http.StatusCreated, tokens)
}

// SignIn handles POST /v1/auth/signin - email and password sign-in.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tokens, err := h.authService.SignIn(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tokens)
}

// RefreshToken handles POST /v1/auth/token/refresh - rotate a refresh token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "refreshToken", Message: "is required", Code: "required"},
		})
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tokens)
}

// Logout handles POST /v1/auth/logout - revoke the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.LogoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "refreshToken", Message: "is required", Code: "required"},
		})
		return
	}

	if err := h.authService.Logout(r.Context(), GetUserID(r.Context()), req.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// LogoutAll handles POST /v1/auth/logout-all - revoke all sessions for the user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.LogoutAll(r.Context(), GetUserID(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errs, ok := fieldErrors(err); ok {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		response.Conflict(w, r, "An account with this email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Unauthorized(w, r, "Invalid email or password")
	case errors.Is(err, auth.ErrAccountSuspended):
		response.Forbidden(w, r, "Account is suspended")
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		response.Unauthorized(w, r, "invalid refresh token")
	case errors.Is(err, auth.ErrRefreshTokenExpired):
		response.Unauthorized(w, r, "refresh token has expired")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("auth request failed")
		response.InternalError(w, r, "authentication failed")
	}
}
