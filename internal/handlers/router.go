package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	Auth *AuthHandler

	// Middleware that authenticates the request and puts the user in context
	AuthMiddleware func(http.Handler) http.Handler

	// Optional middlewares
	RecoverMiddleware   func(http.Handler) http.Handler
	LoggerMiddleware    func(http.Handler) http.Handler
	RateLimitMiddleware func(http.Handler) http.Handler
}

// NewRouter wires the demo API surface:
// register, authenticate, refresh, logout and the protected greeting
func NewRouter(cfg RouterConfig) http.Handler {
	noop := func(h http.Handler) http.Handler { return h }
	if cfg.RecoverMiddleware == nil {
		cfg.RecoverMiddleware = noop
	}
	if cfg.LoggerMiddleware == nil {
		cfg.LoggerMiddleware = noop
	}
	if cfg.RateLimitMiddleware == nil {
		cfg.RateLimitMiddleware = noop
	}

	mux := http.NewServeMux()

	mux.Handle("POST /register", cfg.RateLimitMiddleware(http.HandlerFunc(cfg.Auth.Register)))
	mux.Handle("POST /authenticate", cfg.RateLimitMiddleware(http.HandlerFunc(cfg.Auth.Authenticate)))
	mux.Handle("POST /refresh", http.HandlerFunc(cfg.Auth.Refresh))
	mux.Handle("POST /logout", http.HandlerFunc(cfg.Auth.Logout))

	mux.Handle("GET /protected", cfg.AuthMiddleware(Protected()))

	return chain(mux,
		cfg.RecoverMiddleware,
		cfg.LoggerMiddleware,
	)
}
