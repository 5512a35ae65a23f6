package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/health"
	opsmw "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the ops router: /metrics plus health probes when checker
// is non-nil.
func NewRouter(m *Metrics, checker *health.Checker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(opsmw.Metrics(m))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	if checker != nil {
		r.Get("/health/live", checker.LiveHandler())
		r.Get("/health/ready", checker.ReadyHandler())
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>wordindex</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})
	return r
}

// StartServer listens on port and serves the ops router in the background.
// Port 0 picks a free port; the bound address is returned.
func StartServer(port int, m *Metrics, checker *health.Checker) (addr string, shutdown func(context.Context) error, err error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", nil, fmt.Errorf("listening on metrics port %d: %w", port, err)
	}
	server := &http.Server{
		Handler:      NewRouter(m, checker),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return ln.Addr().String(), server.Shutdown, nil
}
