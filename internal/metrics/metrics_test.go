package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42", routeFromContext(r.Context()))
		w.WriteHeader(http.StatusInternalServerError)
	})

	before := testutil.ToFloat64(httpErrorsTotal.WithLabelValues(http.MethodGet, "/users/{id}", "500"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/42", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpErrorsTotal.WithLabelValues(http.MethodGet, "/users/{id}", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/users/{id}")))
}

func TestDomainCounters(t *testing.T) {
	ObserveClockTransition(true, "ok")
	ObserveClockTransition(false, "repeat_clock")
	assert.Equal(t, 1.0, testutil.ToFloat64(clockTransitions.WithLabelValues("in", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(clockTransitions.WithLabelValues("out", "repeat_clock")))

	AddSweepRemovals(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(sweepRemovals))

	IncSinkFailure("email")
	assert.Equal(t, 1.0, testutil.ToFloat64(sinkFailures.WithLabelValues("email")))

	ObserveRecompute("read", time.Now())
	assert.Equal(t, 1, testutil.CollectAndCount(recomputeDuration))
}

func TestRouteFromContextDefaults(t *testing.T) {
	assert.Equal(t, "unknown", routeFromContext(context.Background()))
}
