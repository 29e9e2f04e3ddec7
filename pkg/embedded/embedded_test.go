package embedded_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/JaimeStill/herbarium/pkg/embedded"
	"github.com/JaimeStill/herbarium/pkg/lifecycle"
	"github.com/JaimeStill/herbarium/pkg/transport"
)

type record struct {
	ID   string
	Name string `badgerhold:"index"`
}

func open(t *testing.T, cfg embedded.Config) embedded.System {
	t.Helper()
	sys, err := embedded.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { sys.Close() })
	return sys
}

func TestInMemoryStore(t *testing.T) {
	sys := open(t, embedded.Config{InMemory: true})

	if err := sys.Store().Insert("a", record{ID: "a", Name: "Fern"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	var got record
	if err := sys.Store().Get("a", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Fern" {
		t.Errorf("name: got %s, want Fern", got.Name)
	}

	var found []record
	if err := sys.Store().Find(&found, badgerhold.Where("Name").Eq("Fern").Index("Name")); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("found: got %d, want 1", len(found))
	}

	if err := sys.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOnDiskStore(t *testing.T) {
	dir := t.TempDir()

	sys := open(t, embedded.Config{Path: dir})
	if err := sys.Store().Insert("a", record{ID: "a", Name: "Moss"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := sys.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := open(t, embedded.Config{Path: dir})
	var got record
	if err := reopened.Store().Get("a", &got); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Name != "Moss" {
		t.Errorf("name: got %s, want Moss", got.Name)
	}
}

func TestPingAfterClose(t *testing.T) {
	sys := open(t, embedded.Config{InMemory: true})
	sys.Close()

	err := sys.Ping(context.Background())
	if !errors.Is(err, embedded.ErrClosed) {
		t.Fatalf("Ping error = %v, want ErrClosed", err)
	}
	if transport.KindOf(err) != transport.Unreachable {
		t.Errorf("kind: got %v, want Unreachable", transport.KindOf(err))
	}
}

func TestShutdownClosesStore(t *testing.T) {
	sys := open(t, embedded.Config{InMemory: true})
	lc := lifecycle.New()

	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if !sys.Store().Badger().IsClosed() {
		t.Error("store should be closed after shutdown")
	}
}

func TestFinalize(t *testing.T) {
	t.Setenv("TEST_EMBEDDED_MEMORY", "true")

	cfg := embedded.Config{}
	if err := cfg.Finalize(&embedded.Env{InMemory: "TEST_EMBEDDED_MEMORY"}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !cfg.InMemory {
		t.Error("in_memory should be true")
	}
	if cfg.Path != "data/herbarium" {
		t.Errorf("path: got %s, want data/herbarium", cfg.Path)
	}
}
