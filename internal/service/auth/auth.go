package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/apperrors"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/models"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/repository"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/service/auth/tokenmanager"
)

const bearerScheme = "Bearer"

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during user registration or login process
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

// Auth service
type AuthService struct {
	// Manager to issue token pairs (access and refresh)
	token *tokenmanager.TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository to access long term data
	userRepo repository.UserRepo
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &AuthService{
		token:    token,
		hasher:   hasher,
		userRepo: userRepo,
	}, nil
}

// Register creates user. No tokens are issued here: the user is expected
// to login afterwards
// Has to return apperrors.ErrUserAlreadyExists if username is taken
func (s *AuthService) Register(ctx context.Context, username string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, username, hash)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login verifies credentials and issues a fresh token pair
// Has to return apperrors.ErrUserNotFound when the user does not exist and
// apperrors.ErrInvalidCredentials when the password does not match
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Compare against itself to keep timing comparable with the found branch
			_ = s.hasher.Compare(user.HashedPassword, password)
			return models.TokenPair{}, apperrors.ErrUserNotFound
		}
		return models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return pair, nil
}

// Refresh rotates the pair: marks the presented refresh token used and
// issues a new pair for its owner
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return pair, nil
}

// Logout revokes the refresh token
// Unknown tokens are revoked silently, logout is idempotent
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.token.RevokeRefresh(ctx, refresh)
}

// Authenticate parses the bearer token from the request and returns its user
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return models.User{}, fmt.Errorf("missing Authorization header: %w", apperrors.ErrAccessTokenInvalid)
	}

	scheme, access, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return models.User{}, fmt.Errorf("not a bearer Authorization header: %w", apperrors.ErrAccessTokenInvalid)
	}

	claims, err := s.token.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.GetUserByID(ctx, claims.UserID)
}
