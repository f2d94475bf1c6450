package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/middleware"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/repository/postgres"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/service/auth"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/service/auth/tokenmanager"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/testutil"
)

// Run the whole API surface over a db transaction and roll it back when
// the test stops. Token lifetimes are configurable so tests can exercise
// the expiry and refresh flows without waiting for real TTLs
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, cfg tokenmanager.Config, fn func(srvURL string)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		if cfg.SecretKey == "" {
			cfg.SecretKey = "test-secret"
		}

		tokenManager, err := tokenmanager.New(cfg, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
		require.NoError(t, err, "auth service starting error")

		router := handlers.NewRouter(handlers.RouterConfig{
			Auth:           handlers.NewAuth(as),
			AuthMiddleware: middleware.AuthMiddleware(as),
		})

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL)
	})
}
