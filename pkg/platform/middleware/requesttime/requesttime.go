// Package requesttime captures a single "now" per request so that durations,
// audit rows and health timestamps agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"pedalgate/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
