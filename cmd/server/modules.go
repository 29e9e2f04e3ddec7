package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/herbarium/internal/api"
	"github.com/JaimeStill/herbarium/internal/config"
	"github.com/JaimeStill/herbarium/internal/infrastructure"
	"github.com/JaimeStill/herbarium/pkg/module"
)

const probeTimeout = 5 * time.Second

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, readiness{Status: "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, readiness{Status: "not ready"})
			return
		}

		checks, ok := probe(r.Context(), infra.Probes(), infra.Logger)
		if !ok {
			writeStatus(w, http.StatusServiceUnavailable, readiness{Status: "degraded", Checks: checks})
			return
		}
		writeStatus(w, http.StatusOK, readiness{Status: "ready", Checks: checks})
	})

	router.Handle("GET /metrics", infra.Metrics.Handler())

	return router
}

// probe runs every readiness check concurrently and reports each outcome.
// Failure detail is logged, not returned.
func probe(ctx context.Context, probes map[string]infrastructure.Probe, logger *slog.Logger) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]string, len(probes))
		ok     = true
	)

	for name, check := range probes {
		g.Go(func() error {
			status := "ok"
			if err := check(ctx); err != nil {
				status = "unavailable"
				logger.Warn("readiness check failed", "check", name, "error", err)
			}

			mu.Lock()
			defer mu.Unlock()
			checks[name] = status
			if status != "ok" {
				ok = false
			}
			return nil
		})
	}
	g.Wait()

	return checks, ok
}

func writeStatus(w http.ResponseWriter, status int, body readiness) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
