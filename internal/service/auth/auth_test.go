package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/apperrors"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/models"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/repository/postgres"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/service/auth/tokenmanager"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/testutil"
)

func Test_AuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, accessTTL time.Duration, refreshTTL time.Duration, t *testing.T, fn func(s *AuthService, tx pgx.Tx)) {
		testutil.InTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tokenManager, err := tokenmanager.New(
				tokenmanager.Config{
					SecretKey:  "test-secret-key",
					AccessTTL:  accessTTL,
					RefreshTTL: refreshTTL,
				},
				storage.Refresh(),
			)
			require.NoError(t, err, "token manager should be created without errors")

			s, err := NewService(Config{}, tokenManager, storage.User())
			require.NoError(t, err, "auth service couldn't be started", err)

			fn(s, tx)
		})
	}

	// Register user and login to get the first token pair
	loginUser := func(t *testing.T, s *AuthService, username string, password string) models.TokenPair {
		t.Helper()

		_, err := s.Register(t.Context(), username, password)
		require.NoError(t, err)

		pair, err := s.Login(t.Context(), username, password)
		require.NoError(t, err)

		return pair
	}

	t.Run("new auth service defaults", func(t *testing.T) {
		s, err := NewService(Config{}, nil, nil)
		require.NoError(t, err, "auth service should be created without errors")

		require.Equal(t, DefaultHasher, s.hasher, "default hasher should be set to BcryptHasher")
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				user, err := s.Register(t.Context(), "alice", "StrongEnoughPassword")

				require.NoError(t, err, "registering new user should be ok")
				require.NotEmpty(t, user.ID, "user id should be set")
				require.Equal(t, "alice", user.Username)
				require.NotEqual(t, "StrongEnoughPassword", user.HashedPassword, "password should be hashed")
			})
		})

		t.Run("issues no tokens", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "alice", "StrongEnoughPassword")
				require.NoError(t, err)

				var count int
				err = tx.QueryRow(t.Context(), "SELECT count(*) FROM refresh_tokens").Scan(&count)
				require.NoError(t, err)
				require.Zero(t, count, "registration should not leave refresh tokens behind")
			})
		})

		t.Run("fail if user exists", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "alice", "StrongEnoughPassword")
				require.NoError(t, err, "no error should happen if user not exists")

				_, err = s.Register(t.Context(), "alice", "OtherPassword123")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("valid credentials", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "alice", "StrongEnoughPassword")
				require.NoError(t, err)

				pair, err := s.Login(t.Context(), "alice", "StrongEnoughPassword")

				require.NoError(t, err)
				require.NotEmpty(t, pair.Access.Value)
				require.NotEmpty(t, pair.Refresh.Value)
			})
		})

		t.Run("unknown user", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Login(t.Context(), "nobody", "StrongEnoughPassword")
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})

		t.Run("wrong password", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "alice", "StrongEnoughPassword")
				require.NoError(t, err)

				_, err = s.Login(t.Context(), "alice", "WrongPassword123")
				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			})
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("rotates the pair", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				pair := loginUser(t, s, "alice", "StrongEnoughPassword")

				rotated, err := s.Refresh(t.Context(), pair.Refresh.Value)

				require.NoError(t, err)
				assert.NotEqual(t, pair.Refresh.Value, rotated.Refresh.Value, "refresh token should be rotated")
				assert.NotEqual(t, pair.Access.Value, rotated.Access.Value, "access token should be reissued")
			})
		})

		t.Run("used token rejected", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				pair := loginUser(t, s, "alice", "StrongEnoughPassword")

				_, err := s.Refresh(t.Context(), pair.Refresh.Value)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)
			})
		})

		t.Run("expired token rejected", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, -time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				pair := loginUser(t, s, "alice", "StrongEnoughPassword")

				_, err := s.Refresh(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
			})
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("revoked token can not refresh", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				pair := loginUser(t, s, "alice", "StrongEnoughPassword")

				require.NoError(t, s.Logout(t.Context(), pair.Refresh.Value))

				_, err := s.Refresh(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
			})
		})

		t.Run("logout is idempotent", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				require.NoError(t, s.Logout(t.Context(), "no-such-token"))
			})
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		newRequest := func(t *testing.T, authorization string) *http.Request {
			req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://example.com/protected", nil)
			require.NoError(t, err)
			if authorization != "" {
				req.Header.Set("Authorization", authorization)
			}
			return req
		}

		t.Run("valid bearer token", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				pair := loginUser(t, s, "alice", "StrongEnoughPassword")

				user, err := s.Authenticate(t.Context(), newRequest(t, "Bearer "+pair.Access.Value))

				require.NoError(t, err)
				assert.Equal(t, "alice", user.Username)
			})
		})

		t.Run("missing header", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Authenticate(t.Context(), newRequest(t, ""))
				require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
			})
		})

		t.Run("wrong scheme", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				pair := loginUser(t, s, "alice", "StrongEnoughPassword")

				_, err := s.Authenticate(t.Context(), newRequest(t, "Basic "+pair.Access.Value))
				require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
			})
		})

		t.Run("expired access token", func(t *testing.T) {
			withTx(pg.Pool, -time.Minute, 24*time.Hour, t, func(s *AuthService, tx pgx.Tx) {
				pair := loginUser(t, s, "alice", "StrongEnoughPassword")

				_, err := s.Authenticate(t.Context(), newRequest(t, "Bearer "+pair.Access.Value))
				require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
			})
		})
	})
}
