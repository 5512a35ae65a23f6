// Package middleware instruments the ops HTTP server.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recorder receives one observation per served request.
type Recorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics returns middleware that reports method, route pattern, status and
// latency of every request to rec.
func Metrics(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.ObserveRequest(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}

// routePattern returns the matched chi pattern so label cardinality stays
// bounded; unmatched requests share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
