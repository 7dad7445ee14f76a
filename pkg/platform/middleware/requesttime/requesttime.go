// Package requesttime pins a single "now" per request so every timestamp
// written while serving it agrees.
package requesttime

import (
	"net/http"
	"time"

	"learnhub/pkg/requestcontext"
)

// Middleware stores the request start time; read it with requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
