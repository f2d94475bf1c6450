package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// RecoverMiddleware turns a handler panic into a plain 500 response.
// The panic is reported to sentry when a DSN is configured
func RecoverMiddleware(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", rec)
					scope.SetExtra("stack", string(debug.Stack()))
					sentry.CaptureMessage("panic in request")
				})

				l.Error("Panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)

				render.Failed(w, "Internal server error.", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
