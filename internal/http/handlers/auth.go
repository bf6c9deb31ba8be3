package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/service"
)

// AuthHandler handles registration, login and profile endpoints.
type AuthHandler struct {
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
}

// RegisterInput is the request for account registration.
type RegisterInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Account email"`
		Name     string `json:"name" minLength:"1" maxLength:"100" doc:"Display name"`
		Password string `json:"password" minLength:"8" maxLength:"72" doc:"Password (max 72 bytes, bcrypt limit)"`
	}
}

// AuthOutput pairs the user with a session token.
type AuthOutput struct {
	Body struct {
		Token string       `json:"token" doc:"Bearer session token"`
		User  *models.User `json:"user"`
	}
}

// Register creates a new account with the signup credit grant.
func (h *AuthHandler) Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	result, err := h.authSvc.Register(ctx, input.Body.Email, input.Body.Name, input.Body.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return nil, huma.Error409Conflict("email already registered")
		}
		h.logger.Error("registration failed", "error", err)
		return nil, huma.Error500InternalServerError("failed to register")
	}

	out := &AuthOutput{}
	out.Body.Token = result.Token
	out.Body.User = result.User
	return out, nil
}

// LoginInput is the request for credential login.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Account email"`
		Password string `json:"password" minLength:"1" doc:"Password"`
	}
}

// Login verifies credentials and issues a session token.
func (h *AuthHandler) Login(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	result, err := h.authSvc.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return nil, huma.Error401Unauthorized("invalid email or password")
		}
		h.logger.Error("login failed", "error", err)
		return nil, huma.Error500InternalServerError("failed to log in")
	}

	out := &AuthOutput{}
	out.Body.Token = result.Token
	out.Body.User = result.User
	return out, nil
}

// Refresh issues a fresh token for a still-valid session.
func (h *AuthHandler) Refresh(ctx context.Context, input *struct{}) (*AuthOutput, error) {
	result, err := h.authSvc.Refresh(ctx, getUserID(ctx))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error401Unauthorized("account no longer active")
		}
		h.logger.Error("token refresh failed", "error", err)
		return nil, huma.Error500InternalServerError("failed to refresh token")
	}

	out := &AuthOutput{}
	out.Body.Token = result.Token
	out.Body.User = result.User
	return out, nil
}

// ProfileOutput wraps the caller's profile.
type ProfileOutput struct {
	Body struct {
		User *models.User `json:"user"`
	}
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(ctx context.Context, input *struct{}) (*ProfileOutput, error) {
	user, err := h.authSvc.GetProfile(ctx, getUserID(ctx))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}
		h.logger.Error("failed to load profile", "error", err)
		return nil, huma.Error500InternalServerError("failed to load profile")
	}

	out := &ProfileOutput{}
	out.Body.User = user
	return out, nil
}

// UpdateProfileInput is the request for profile updates. Empty fields keep
// their current value.
type UpdateProfileInput struct {
	Body struct {
		Name      string `json:"name,omitempty" maxLength:"100" required:"false" doc:"New display name"`
		AvatarURL string `json:"avatar_url,omitempty" maxLength:"500" required:"false" doc:"New avatar URL"`
	}
}

// UpdateProfile updates the mutable profile fields.
func (h *AuthHandler) UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	user, err := h.authSvc.UpdateProfile(ctx, getUserID(ctx), input.Body.Name, input.Body.AvatarURL)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}
		h.logger.Error("failed to update profile", "error", err)
		return nil, huma.Error500InternalServerError("failed to update profile")
	}

	out := &ProfileOutput{}
	out.Body.User = user
	return out, nil
}
