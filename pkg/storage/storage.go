// Package storage provides blob storage over a single container with Azure
// Blob Storage, MinIO, and in-memory implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/herbarium/pkg/lifecycle"
)

// Blob is a downloaded object. The caller must close Body.
type Blob struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// ObjectInfo describes a stored object returned by List.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// System manages blob operations on one container and its lifecycle.
// Provider failures are returned as storage transport errors; a missing blob
// carries ErrNotFound.
type System interface {
	// Start registers a startup hook that ensures the container exists.
	Start(lc *lifecycle.Coordinator) error
	// Container returns the container (bucket) name.
	Container() string
	// URL returns the canonical unsigned URL of the blob at key.
	URL(key string) string
	// KeyFromURL resolves a URL produced by URL, signed or not, back to its key.
	// It reports false for URLs outside this container.
	KeyFromURL(raw string) (string, bool)
	// SignedURL returns a read-only URL for key that expires after expiry.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Upload streams data to a blob at the given key with the specified content type.
	// size may be -1 when unknown.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Download returns the blob at key with its content type.
	Download(ctx context.Context, key string) (*Blob, error)
	// Delete removes the blob at the given key.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns the blobs whose keys start with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Ping verifies the container is reachable.
	Ping(ctx context.Context) error
}

// New creates the storage system for one container from the given configuration.
// Clients are created eagerly; no network call is made until Start.
func New(cfg *Config, container string, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "container", container)

	switch cfg.Provider {
	case ProviderAzure, "":
		return newAzure(cfg, container, logger)
	case ProviderMinio:
		return newMinio(cfg, container, logger)
	case ProviderMemory:
		return NewMemory(cfg.Endpoint, container), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// locator maps keys to URLs under a container base URL and back.
type locator struct {
	container string
	base      *url.URL
}

func newLocator(container, base string) (locator, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/" + container)
	if err != nil {
		return locator{}, fmt.Errorf("parse container url: %w", err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return locator{container: container, base: u}, nil
}

func (l locator) Container() string {
	return l.container
}

func (l locator) URL(key string) string {
	u := *l.base
	u.Path = strings.TrimSuffix(l.base.Path, "/") + "/" + key
	u.RawPath = ""
	return u.String()
}

func (l locator) KeyFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Scheme, l.base.Scheme) || !strings.EqualFold(u.Host, l.base.Host) {
		return "", false
	}

	key, ok := strings.CutPrefix(u.Path, strings.TrimSuffix(l.base.Path, "/")+"/")
	if !ok || validateKey(key) != nil {
		return "", false
	}
	return key, true
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
