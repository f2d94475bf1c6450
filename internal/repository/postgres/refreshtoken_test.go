package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/apperrors"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/models"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/testutil"
)

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Tokens reference users, so every case starts with one
	saveToken := func(t *testing.T, tx pgx.Tx, tokenString string) models.RefreshToken {
		t.Helper()

		users := &UserRepo{DB: tx}
		user, err := users.CreateUser(t.Context(), "owner-"+tokenString, "hashed_password")
		require.NoError(t, err)

		now := time.Now().Truncate(time.Millisecond)
		token := models.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     tokenString,
			CreatedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		}

		repo := &RefreshTokenRepo{DB: tx}
		require.NoError(t, repo.Save(t.Context(), token))
		return token
	}

	t.Run("Save and Get", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			saved := saveToken(t, tx, "token-1")

			repo := &RefreshTokenRepo{DB: tx}
			got, err := repo.Get(t.Context(), "token-1")

			require.NoError(t, err)
			assert.Equal(t, saved.ID, got.ID)
			assert.Equal(t, saved.UserID, got.UserID)
			assert.Nil(t, got.UsedAt, "fresh token should not be used")
		})
	})

	t.Run("Get unknown token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &RefreshTokenRepo{DB: tx}

			_, err := repo.Get(t.Context(), "no-such-token")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("MarkUsed", func(t *testing.T) {
		t.Run("marks once", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				saveToken(t, tx, "token-1")
				repo := &RefreshTokenRepo{DB: tx}

				token, err := repo.MarkUsed(t.Context(), "token-1")
				require.NoError(t, err)
				require.NotNil(t, token.UsedAt)
			})
		})

		t.Run("second mark fails and keeps original used_at", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				saveToken(t, tx, "token-1")
				repo := &RefreshTokenRepo{DB: tx}

				first, err := repo.MarkUsed(t.Context(), "token-1")
				require.NoError(t, err)

				_, err = repo.MarkUsed(t.Context(), "token-1")
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)

				got, err := repo.Get(t.Context(), "token-1")
				require.NoError(t, err)
				require.NotNil(t, got.UsedAt)
				assert.True(t, got.UsedAt.Equal(*first.UsedAt), "used_at must not be overwritten")
			})
		})

		t.Run("unknown token", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				repo := &RefreshTokenRepo{DB: tx}

				_, err := repo.MarkUsed(t.Context(), "no-such-token")
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
			})
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("deleted token is gone", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				saveToken(t, tx, "token-1")
				repo := &RefreshTokenRepo{DB: tx}

				require.NoError(t, repo.Delete(t.Context(), "token-1"))

				_, err := repo.Get(t.Context(), "token-1")
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
			})
		})

		t.Run("delete unknown token is fine", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				repo := &RefreshTokenRepo{DB: tx}
				require.NoError(t, repo.Delete(t.Context(), "no-such-token"))
			})
		})
	})
}
