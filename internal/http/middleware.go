package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuth guards every endpoint with a single username and a bcrypt
// password hash. An empty hash disables authentication entirely.
func BasicAuth(username, passwordHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		if passwordHash == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="prayer-companion"`)
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingCredentials)
				return
			}

			userMatches := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatches := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)) == nil
			if !userMatches || !passMatches {
				w.Header().Set("WWW-Authenticate", `Basic realm="prayer-companion"`)
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "invalid credentials"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
