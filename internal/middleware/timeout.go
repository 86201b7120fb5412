package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds request handling when no explicit
// timeout is configured.
const DefaultRequestTimeout = 30 * time.Second

// Timeout cancels the request context and writes a 503 after d. Not
// suitable for streaming responses; mount those routes outside it.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		guarded := http.TimeoutHandler(next, d, "Request Timeout")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			guarded.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
