package handlers

import (
	"fmt"
	"net/http"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/render"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/userctx"
)

// Protected greets the authenticated user
// The auth middleware guarantees the user is present in the context
func Protected() http.Handler {
	type ProtectedResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Failed(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		render.JSON(w, ProtectedResponse{
			Status:  render.StatusOK,
			Message: fmt.Sprintf("Hello, %s!", user.Username),
		})
	})
}
