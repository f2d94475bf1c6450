package middleware

import (
	"context"
	"net/http"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/render"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/userctx"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/models"
)

type authService interface {
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects requests without a valid bearer access token and
// stores the authenticated user in the request context
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Authenticate(r.Context(), r)
			if err != nil {
				render.Failed(w, "Access token expired or invalid.", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
