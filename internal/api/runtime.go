package api

import (
	"github.com/JaimeStill/herbarium/internal/config"
	"github.com/JaimeStill/herbarium/internal/infrastructure"
	"github.com/JaimeStill/herbarium/internal/validation"
)

// Runtime extends Infrastructure with API-specific dependencies.
type Runtime struct {
	*infrastructure.Infrastructure
	Validator *validation.Validator
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Validator:      validation.New(&cfg.Validation),
	}
}
