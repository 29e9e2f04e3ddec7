package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/herbarium/pkg/metrics"
)

func TestMiddlewareRecordsRoute(t *testing.T) {
	reg := metrics.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /plants/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	handler := reg.Middleware()(mux)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/plants/abc", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	expected := `
# HELP herbarium_http_requests_total HTTP requests served, by route pattern, method, and status code.
# TYPE herbarium_http_requests_total counter
herbarium_http_requests_total{code="404",method="GET",route="GET /plants/{id}"} 1
herbarium_http_requests_total{code="404",method="GET",route="unmatched"} 1
`
	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(expected), "herbarium_http_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := metrics.New()

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("expected go runtime metrics in exposition")
	}
}

func TestRegisterReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := prometheus.CounterOpts{Namespace: metrics.Namespace, Name: "things_total", Help: "Things."}

	first, err := metrics.Register(reg, prometheus.NewCounterVec(opts, []string{"kind"}))
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	second, err := metrics.Register(reg, prometheus.NewCounterVec(opts, []string{"kind"}))
	if err != nil {
		t.Fatalf("second register: %v", err)
	}

	second.WithLabelValues("a").Inc()
	if got := testutil.ToFloat64(first.WithLabelValues("a")); got != 1 {
		t.Errorf("shared counter: got %v, want 1", got)
	}
}

func TestRegisterNilRegisterer(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "x_total", Help: "x"})
	got, err := metrics.Register(nil, c)
	if err != nil || got != c {
		t.Errorf("Register(nil) = %v, %v", got, err)
	}
}
