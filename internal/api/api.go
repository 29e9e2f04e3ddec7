// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/herbarium/internal/config"
	"github.com/JaimeStill/herbarium/internal/infrastructure"
	"github.com/JaimeStill/herbarium/pkg/middleware"
	"github.com/JaimeStill/herbarium/pkg/module"
	"github.com/JaimeStill/herbarium/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
// CORS runs outermost so preflight requests never reach the function key check.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	spec, err := openapi.MarshalJSON(buildSpec(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime, spec)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.FunctionKey(&cfg.API.Auth, runtime.Logger))

	return m, nil
}
