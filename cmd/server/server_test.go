package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/herbarium/internal/config"
	"github.com/JaimeStill/herbarium/internal/infrastructure"
	"github.com/JaimeStill/herbarium/pkg/module"
)

const testConfig = `
store = "badger"

[logging]
level = "error"

[embedded]
in_memory = true

[storage]
provider = "memory"
sweep_interval = "0s"

[api.auth]
function_key = "secret"
`

type harness struct {
	infra  *infrastructure.Infrastructure
	router *module.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.BaseConfigFile), []byte(testConfig), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		t.Fatalf("modules: %v", err)
	}

	router := buildRouter(infra)
	modules.Mount(router)

	t.Cleanup(func() {
		infra.Lifecycle.Shutdown(5 * time.Second)
	})

	return &harness{infra: infra, router: router}
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.infra.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.infra.Lifecycle.WaitForStartup()
}

func (h *harness) get(path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	rec := h.get("/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestReadyzBeforeStartup(t *testing.T) {
	h := newHarness(t)

	rec := h.get("/readyz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rec.Code)
	}
}

func TestReadyzAfterStartup(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	rec := h.get("/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body)
	}

	var body readiness
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ready" {
		t.Errorf("status: got %s, want ready", body.Status)
	}
	for _, name := range []string{"database", "storage"} {
		if body.Checks[name] != "ok" {
			t.Errorf("check %s: got %q", name, body.Checks[name])
		}
	}
}

func TestProbeHidesFailureDetail(t *testing.T) {
	var logged strings.Builder
	logger := slog.New(slog.NewTextHandler(&logged, nil))

	checks, ok := probe(context.Background(), map[string]infrastructure.Probe{
		"database": func(context.Context) error { return errors.New("dial tcp db.internal:5432: connection refused") },
		"storage":  func(context.Context) error { return nil },
	}, logger)

	if ok {
		t.Error("ok: got true, want false")
	}
	if checks["database"] != "unavailable" || checks["storage"] != "ok" {
		t.Errorf("checks: got %v", checks)
	}
	if !strings.Contains(logged.String(), "db.internal:5432") {
		t.Errorf("log: got %q, want the failure detail", logged.String())
	}
}

func TestProbeAllHealthy(t *testing.T) {
	checks, ok := probe(context.Background(), map[string]infrastructure.Probe{
		"database": func(context.Context) error { return nil },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if !ok || checks["database"] != "ok" {
		t.Errorf("probe: got %v %v, want all ok", checks, ok)
	}
}

func TestAPIRequiresFunctionKey(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	if rec := h.get("/api/plants", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: got %d, want 401", rec.Code)
	}

	rec := h.get("/api/plants", http.Header{"X-Functions-Key": {"secret"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("with key: got %d, want 200: %s", rec.Code, rec.Body)
	}

	if rec := h.get("/api/plants?code=secret", nil); rec.Code != http.StatusOK {
		t.Errorf("key in query: got %d, want 200", rec.Code)
	}
}

func TestOpenAPISpec(t *testing.T) {
	h := newHarness(t)

	rec := h.get("/api/openapi.json", http.Header{"X-Functions-Key": {"secret"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var spec struct {
		Paths    map[string]any        `json:"paths"`
		Security []map[string][]string `json:"security"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(spec.Security) != 1 {
		t.Errorf("security: got %v, want the function key requirement", spec.Security)
	}
	for _, path := range []string{"/plants", "/plants/{id}", "/plants/save", "/plants/check-duplicate", "/plants/identify", "/images/upload"} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("missing path %s", path)
		}
	}
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.get("/api/plants", http.Header{"X-Functions-Key": {"secret"}})

	rec := h.get("/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "herbarium_http_requests_total") {
		t.Error("request counter not exported")
	}
	if !strings.Contains(body, `route="GET /plants"`) {
		t.Errorf("route label missing from metrics output")
	}
}
