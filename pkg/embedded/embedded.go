// Package embedded provides an in-process badgerhold document store with
// lifecycle coordination.
package embedded

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/JaimeStill/herbarium/pkg/lifecycle"
	"github.com/JaimeStill/herbarium/pkg/transport"
)

// ErrClosed indicates the store has been closed.
var ErrClosed = errors.New("embedded store closed")

// System manages the badgerhold store and its lifecycle.
type System interface {
	// Store returns the underlying badgerhold store.
	Store() *badgerhold.Store
	// Ping verifies the store is open.
	Ping(ctx context.Context) error
	// Start registers a shutdown hook that closes the store.
	Start(lc *lifecycle.Coordinator) error
	// Close closes the store.
	Close() error
}

type embedded struct {
	store  *badgerhold.Store
	logger *slog.Logger
	path   string
}

// New opens the badgerhold store. Badger's own logger is disabled in favor of slog.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil

	path := cfg.Path
	if cfg.InMemory {
		options.InMemory = true
		options.Dir = ""
		options.ValueDir = ""
		path = ":memory:"
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		options.Dir = cfg.Path
		options.ValueDir = cfg.Path
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open embedded store: %w", err)
	}

	return &embedded{
		store:  store,
		logger: logger.With("system", "embedded", "path", path),
		path:   path,
	}, nil
}

func (e *embedded) Store() *badgerhold.Store {
	return e.store
}

func (e *embedded) Ping(ctx context.Context) error {
	if e.store.Badger().IsClosed() {
		return transport.New(transport.Database, "ping", transport.Unreachable, ErrClosed)
	}
	return ctx.Err()
}

func (e *embedded) Start(lc *lifecycle.Coordinator) error {
	e.logger.Info("embedded store opened")

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		e.logger.Info("closing embedded store")

		if err := e.Close(); err != nil {
			e.logger.Error("embedded store close failed", "error", err)
			return
		}

		e.logger.Info("embedded store closed")
	})

	return nil
}

func (e *embedded) Close() error {
	if e.store.Badger().IsClosed() {
		return nil
	}
	return e.store.Close()
}
