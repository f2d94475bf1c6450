package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by its id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token if it exists
	// It should return result even if the token expired or is used already
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark token as used
	// If the token is already used, must not overwrite the existing 'usedAt'
	// and has to return apperrors.ErrRefreshTokenIsUsed
	MarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete token (logout)
	// Deleting a token that does not exist is not an error
	Delete(ctx context.Context, tokenString string) error
}

// Storage aggregates repositories that share one db connection
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
}
