// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, metrics, document store, object
// storage, classifier) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/herbarium/internal/classifier"
	"github.com/JaimeStill/herbarium/internal/config"
	"github.com/JaimeStill/herbarium/internal/objects"
	"github.com/JaimeStill/herbarium/pkg/database"
	"github.com/JaimeStill/herbarium/pkg/embedded"
	"github.com/JaimeStill/herbarium/pkg/lifecycle"
	"github.com/JaimeStill/herbarium/pkg/metrics"
	"github.com/JaimeStill/herbarium/pkg/storage"
)

// Probe checks one dependency for readiness.
type Probe func(ctx context.Context) error

// Infrastructure holds the core systems required by all domain modules.
// Exactly one of Database and Embedded is set, according to the configured
// document store.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Metrics    *metrics.Registry
	Store      config.Store
	Database   database.System
	Embedded   embedded.System
	Objects    objects.System
	Classifier classifier.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := cfg.Logging.NewLogger(os.Stderr)
	reg := metrics.New()

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Metrics:   reg,
		Store:     cfg.Store,
	}

	switch cfg.Store {
	case config.StoreBadger:
		store, err := embedded.New(&cfg.Embedded, logger)
		if err != nil {
			return nil, fmt.Errorf("embedded store init failed: %w", err)
		}
		infra.Embedded = store
	default:
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	temp, err := storage.New(&cfg.Storage, cfg.Storage.TempContainer, logger)
	if err != nil {
		return nil, fmt.Errorf("temp storage init failed: %w", err)
	}

	permanent, err := storage.New(&cfg.Storage, cfg.Storage.PermanentContainer, logger)
	if err != nil {
		return nil, fmt.Errorf("permanent storage init failed: %w", err)
	}

	objs, err := objects.New(&cfg.Storage, temp, permanent, reg.Registerer(), logger)
	if err != nil {
		return nil, fmt.Errorf("objects init failed: %w", err)
	}
	infra.Objects = objs

	cls, err := classifier.New(&cfg.Classifier, reg.Registerer(), logger)
	if err != nil {
		return nil, fmt.Errorf("classifier init failed: %w", err)
	}
	infra.Classifier = cls

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Embedded != nil {
		if err := i.Embedded.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("embedded store start failed: %w", err)
		}
	}
	if err := i.Objects.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("objects start failed: %w", err)
	}
	return nil
}

// Probes returns the readiness checks for the document store and object storage.
func (i *Infrastructure) Probes() map[string]Probe {
	probes := map[string]Probe{
		"storage": i.Objects.Ping,
	}
	if i.Database != nil {
		probes["database"] = i.Database.Ping
	}
	if i.Embedded != nil {
		probes["database"] = i.Embedded.Ping
	}
	return probes
}
