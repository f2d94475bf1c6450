package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/apperrors"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/render"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/models"
)

type authService interface {
	// Register user with username and password, no tokens are issued
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.User, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound or apperrors.ErrInvalidCredentials
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh rotates the pair using the refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token used: apperrors.ErrRefreshTokenIsUsed
	// If token unknown: apperrors.ErrRefreshTokenNotFound
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Logout revokes the refresh token, idempotent
	Logout(ctx context.Context, refresh string) error
}

type AuthHandler struct {
	authService authService
}

func NewAuth(auth authService) *AuthHandler {
	return &AuthHandler{authService: auth}
}

// TokenPairResponse is the body of successful authenticate and refresh calls
type TokenPairResponse struct {
	Status       string `json:"status"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type RegisterSuccessResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.authService.Register(r.Context(), data.Username, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.Failed(w, "User already exists.", http.StatusBadRequest)
		default:
			sentry.CaptureException(err)
			render.Failed(w, "Internal server error.", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, RegisterSuccessResponse{
		Status:  render.StatusOK,
		Message: "User registered successfully.",
	})
}

func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	type AuthenticateRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[AuthenticateRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.Failed(w, "User not found.", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.Failed(w, "Invalid credentials.", http.StatusUnauthorized)
		default:
			sentry.CaptureException(err)
			render.Failed(w, "Internal server error.", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, TokenPairResponse{
		Status:       render.StatusOK,
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.Failed(w, "Refresh token expired.", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrRefreshTokenIsUsed),
			errors.Is(err, apperrors.ErrRefreshTokenNotFound):
			render.Failed(w, "Invalid refresh token.", http.StatusUnauthorized)
		default:
			sentry.CaptureException(err)
			render.Failed(w, "Internal server error.", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, TokenPairResponse{
		Status:       render.StatusOK,
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	if err := h.authService.Logout(r.Context(), data.RefreshToken); err != nil {
		sentry.CaptureException(err)
		render.Failed(w, "Internal server error.", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
