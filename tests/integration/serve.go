package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/middleware"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/models"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/repository/postgres"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/service/auth"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/service/auth/tokenmanager"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/testutil"
)

const SecretKey = "test-secret"

type Services struct {
	AuthService *auth.AuthService
}

// LoginUser registers the user and logs in to get the first token pair
func LoginUser(t *testing.T, s Services, username string, password string) models.TokenPair {
	t.Helper()

	_, err := s.AuthService.Register(t.Context(), username, password)
	require.NoError(t, err)

	pair, err := s.AuthService.Login(t.Context(), username, password)
	require.NoError(t, err)

	return pair
}

// Run http server over a db transaction and roll it back when the test
// stops, so the database remains unchanged between tests
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, s Services)) {
	RunTxWithTokenConfig(dbpool, t, tokenmanager.Config{SecretKey: SecretKey}, fn)
}

// Same as RunTx but with custom token lifetimes, handy for expiry cases
func RunTxWithTokenConfig(dbpool *pgxpool.Pool, t *testing.T, cfg tokenmanager.Config, fn func(srvURL string, s Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		if cfg.SecretKey == "" {
			cfg.SecretKey = SecretKey
		}

		tokenManager, err := tokenmanager.New(cfg, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
		require.NoError(t, err, "auth service starting error")

		router := handlers.NewRouter(handlers.RouterConfig{
			Auth:           handlers.NewAuth(as),
			AuthMiddleware: middleware.AuthMiddleware(as),
		})

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{AuthService: as})
	})
}
