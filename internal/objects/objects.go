// Package objects manages plant images across the temporary and permanent
// areas of the blob store: naming, promotion, idempotent deletion, signed
// read URLs, and sweeping of orphaned temporary uploads.
package objects

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/herbarium/pkg/lifecycle"
	"github.com/JaimeStill/herbarium/pkg/metrics"
	"github.com/JaimeStill/herbarium/pkg/storage"
	"github.com/JaimeStill/herbarium/pkg/transport"
)

const (
	signedCacheSize    = 1024
	defaultContentType = "application/octet-stream"
	outcomeSucceeded   = "succeeded"
	outcomeFailed      = "failed"
)

// System defines the object store operations used by the upload pipeline
// and the plant handlers.
type System interface {
	Start(lc *lifecycle.Coordinator) error

	PutTemporary(ctx context.Context, data []byte, originalName, contentType string) (*Object, error)
	PutPermanent(ctx context.Context, data []byte, originalName, contentType string) (*Object, error)

	// Promote copies the temporary object at tempURL into the permanent area
	// under the same name, then deletes the temporary copy best-effort.
	Promote(ctx context.Context, tempURL string) (*Promotion, error)

	// Delete removes the object at rawURL. Absent objects and URLs outside
	// both areas are treated as already deleted.
	Delete(ctx context.Context, rawURL string) error

	// Discard deletes best-effort and records the cleanup outcome.
	Discard(ctx context.Context, rawURL string, stage Stage) error

	// Exists reports whether rawURL names an object present in its area.
	Exists(ctx context.Context, rawURL string) (bool, error)

	// Present returns a read URL for callers outside the service: signed when
	// signing is enabled, otherwise rawURL unchanged.
	Present(ctx context.Context, rawURL string) string

	// Canonical strips signatures from a URL that belongs to an area.
	Canonical(rawURL string) (string, bool)

	// Locate reports the area rawURL belongs to. Signatures are ignored.
	Locate(rawURL string) (Area, bool)

	// Sweep deletes temporary objects older than the configured TTL and
	// returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
}

type system struct {
	areas    map[Area]storage.System
	signURLs bool
	expiry   time.Duration
	ttl      time.Duration
	interval time.Duration
	signed   *expirable.LRU[string, string]
	cleanups *prometheus.CounterVec
	logger   *slog.Logger
}

// New creates the object store client over one storage system per area.
func New(
	cfg *storage.Config,
	temp storage.System,
	permanent storage.System,
	reg prometheus.Registerer,
	logger *slog.Logger,
) (System, error) {
	cleanups, err := metrics.Register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "cleanup_attempts_total",
			Help:      "Best-effort object deletions by pipeline stage and outcome.",
		},
		[]string{"stage", "outcome"},
	))
	if err != nil {
		return nil, fmt.Errorf("register cleanup counter: %w", err)
	}

	expiry := cfg.SignedURLExpiryDuration()

	return &system{
		areas: map[Area]storage.System{
			Temporary: temp,
			Permanent: permanent,
		},
		signURLs: cfg.SignURLs,
		expiry:   expiry,
		ttl:      cfg.TempTTLDuration(),
		interval: cfg.SweepIntervalDuration(),
		signed:   expirable.NewLRU[string, string](signedCacheSize, nil, max(expiry/2, time.Second)),
		cleanups: cleanups,
		logger:   logger.With("system", "objects"),
	}, nil
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	for _, area := range []Area{Temporary, Permanent} {
		if err := s.areas[area].Start(lc); err != nil {
			return fmt.Errorf("start %s area: %w", area, err)
		}
	}

	if s.interval <= 0 || s.ttl <= 0 {
		s.logger.Info("temp sweeper disabled")
		return nil
	}

	lc.OnShutdown(func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		ctx := lc.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := s.Sweep(ctx); err != nil {
					s.logger.Warn("temp sweep failed", "error", err)
				} else if n > 0 {
					s.logger.Info("temp sweep completed", "deleted", n)
				}
			}
		}
	})

	s.logger.Info("temp sweeper scheduled", "interval", s.interval, "ttl", s.ttl)
	return nil
}

func (s *system) PutTemporary(ctx context.Context, data []byte, originalName, contentType string) (*Object, error) {
	return s.put(ctx, Temporary, Name(originalName), data, contentType)
}

func (s *system) PutPermanent(ctx context.Context, data []byte, originalName, contentType string) (*Object, error) {
	return s.put(ctx, Permanent, Name(originalName), data, contentType)
}

func (s *system) put(ctx context.Context, area Area, name string, data []byte, contentType string) (*Object, error) {
	store := s.areas[area]
	if contentType == "" {
		contentType = defaultContentType
	}

	if err := store.Upload(ctx, name, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("put %s object: %w", area, err)
	}

	return &Object{Area: area, Name: name, URL: store.URL(name)}, nil
}

func (s *system) Promote(ctx context.Context, tempURL string) (*Promotion, error) {
	area, name, ok := s.resolve(tempURL)
	if !ok {
		return nil, transport.New(transport.Storage, "promote", transport.Invalid, ErrForeignURL)
	}
	if area != Temporary {
		return nil, transport.New(transport.Storage, "promote", transport.Invalid, ErrNotTemporary)
	}

	blob, err := s.areas[Temporary].Download(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("download temporary object: %w", err)
	}
	defer blob.Body.Close()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	permanent := s.areas[Permanent]
	if err := permanent.Upload(ctx, name, blob.Body, blob.ContentLength, contentType); err != nil {
		return nil, fmt.Errorf("upload permanent object: %w", err)
	}

	p := &Promotion{
		Permanent: &Object{Area: Permanent, Name: name, URL: permanent.URL(name)},
		Source:    &Object{Area: Temporary, Name: name, URL: s.areas[Temporary].URL(name)},
	}
	p.SourceDeleteErr = s.Discard(ctx, p.Source.URL, StagePromote)

	s.logger.Info("object promoted", "name", name)
	return p, nil
}

func (s *system) Delete(ctx context.Context, rawURL string) error {
	area, name, ok := s.resolve(rawURL)
	if !ok {
		s.logger.Debug("delete skipped for foreign url", "url", rawURL)
		return nil
	}

	err := s.areas[area].Delete(ctx, name)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete %s object: %w", area, err)
	}

	s.signed.Remove(s.areas[area].URL(name))
	return nil
}

func (s *system) Discard(ctx context.Context, rawURL string, stage Stage) error {
	err := s.Delete(ctx, rawURL)

	if err != nil {
		s.cleanups.WithLabelValues(string(stage), outcomeFailed).Inc()
		s.logger.Warn(
			"cleanup attempted",
			"stage", stage,
			"object", rawURL,
			"outcome", outcomeFailed,
			"error", err,
		)
		return err
	}

	s.cleanups.WithLabelValues(string(stage), outcomeSucceeded).Inc()
	s.logger.Info(
		"cleanup attempted",
		"stage", stage,
		"object", rawURL,
		"outcome", outcomeSucceeded,
	)
	return nil
}

func (s *system) Exists(ctx context.Context, rawURL string) (bool, error) {
	area, name, ok := s.resolve(rawURL)
	if !ok {
		return false, nil
	}

	exists, err := s.areas[area].Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check %s object: %w", area, err)
	}
	return exists, nil
}

func (s *system) Present(ctx context.Context, rawURL string) string {
	if !s.signURLs {
		return rawURL
	}

	area, name, ok := s.resolve(rawURL)
	if !ok {
		return rawURL
	}

	store := s.areas[area]
	canonical := store.URL(name)
	if signed, ok := s.signed.Get(canonical); ok {
		return signed
	}

	signed, err := store.SignedURL(ctx, name, s.expiry)
	if err != nil {
		s.logger.Warn("url signing failed, using unsigned url", "object", canonical, "error", err)
		return rawURL
	}

	s.signed.Add(canonical, signed)
	return signed
}

func (s *system) Canonical(rawURL string) (string, bool) {
	area, name, ok := s.resolve(rawURL)
	if !ok {
		return "", false
	}
	return s.areas[area].URL(name), true
}

func (s *system) Locate(rawURL string) (Area, bool) {
	area, _, ok := s.resolve(rawURL)
	return area, ok
}

func (s *system) Sweep(ctx context.Context) (int, error) {
	temp := s.areas[Temporary]

	objects, err := temp.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list temporary objects: %w", err)
	}

	cutoff := time.Now().Add(-s.ttl)
	deleted := 0

	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if s.Discard(ctx, temp.URL(obj.Key), StageSweep) == nil {
			deleted++
		}
	}

	return deleted, nil
}

func (s *system) Ping(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for area, store := range s.areas {
		g.Go(func() error {
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("%s area: %w", area, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// resolve maps a URL to its area and object name. Signatures are ignored.
func (s *system) resolve(rawURL string) (Area, string, bool) {
	for _, area := range []Area{Temporary, Permanent} {
		if name, ok := s.areas[area].KeyFromURL(rawURL); ok {
			return area, name, true
		}
	}
	return "", "", false
}
