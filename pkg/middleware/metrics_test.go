package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method, route string
	status        int
}

type recorder struct {
	seen []observation
}

func (r *recorder) ObserveRequest(method, route string, status int, _ time.Duration) {
	r.seen = append(r.seen, observation{method, route, status})
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	rec := &recorder{}
	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/reports/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/reports/42", "/plain", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, rec.seen, 3)
	assert.Equal(t, observation{"GET", "/reports/{id}", http.StatusAccepted}, rec.seen[0])
	assert.Equal(t, observation{"GET", "/plain", http.StatusOK}, rec.seen[1])
	assert.Equal(t, http.StatusNotFound, rec.seen[2].status)
}
