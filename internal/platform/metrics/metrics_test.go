package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	perr "auracast/internal/platform/errors"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe("risk", true, perr.ErrorCodeUnknown, 3*time.Millisecond)
	m.Observe("risk", false, perr.ErrorCodeShapeMismatch, time.Millisecond)
	m.Observe("risk", false, perr.ErrorCodeShapeMismatch, time.Millisecond)

	if got := testutil.ToFloat64(m.inferenceTotal.WithLabelValues("risk", "ok")); got != 1 {
		t.Fatalf("ok count = %v", got)
	}
	if got := testutil.ToFloat64(m.inferenceTotal.WithLabelValues("risk", "shape_mismatch")); got != 2 {
		t.Fatalf("shape_mismatch count = %v", got)
	}
}

func TestReadyAndAudit(t *testing.T) {
	m := New()
	m.SetModelReady(true)
	if got := testutil.ToFloat64(m.modelReady); got != 1 {
		t.Fatalf("ready = %v", got)
	}
	m.SetModelReady(false)
	if got := testutil.ToFloat64(m.modelReady); got != 0 {
		t.Fatalf("ready = %v", got)
	}
	m.AuditFailed("pg")
	if got := testutil.ToFloat64(m.auditFailures.WithLabelValues("pg")); got != 1 {
		t.Fatalf("audit failures = %v", got)
	}
}

func TestHTTPMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.HTTP)
	r.Get("/days/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/days/"+id, nil))
	}
	if got := testutil.ToFloat64(m.httpTotal.WithLabelValues("GET", "/days/{id}", "418")); got != 3 {
		t.Fatalf("route count = %v", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "auracast_http_requests_total") {
		t.Fatalf("exposition missing counter:\n%s", body)
	}
}
