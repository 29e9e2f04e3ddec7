// Package classifier asks a vision-capable language model whether an image
// shows a plant and returns a strictly decoded verdict with species
// candidates.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/herbarium/pkg/metrics"
	"github.com/JaimeStill/herbarium/pkg/transport"
)

// Candidate is one possible species for a plant image.
type Candidate struct {
	Name            string  `json:"name"`
	ScientificName  string  `json:"scientificName,omitempty"`
	FamilyName      string  `json:"familyName,omitempty"`
	Description     string  `json:"description,omitempty"`
	Characteristics string  `json:"characteristics"`
	Confidence      float64 `json:"confidence"`
}

// Result is a classification verdict. Candidates is empty when IsPlant is false.
type Result struct {
	IsPlant    bool        `json:"isPlant"`
	Confidence float64     `json:"confidence"`
	Reason     string      `json:"reason"`
	Candidates []Candidate `json:"candidates"`
}

// System classifies image references.
type System interface {
	// Classify sends one request for imageURL with an optional context hint.
	// Failures are classifier transport errors.
	Classify(ctx context.Context, imageURL, hint string) (*Result, error)

	// ValidateImage performs a syntactic URL check without fetching the image.
	ValidateImage(imageURL string) bool
}

type system struct {
	provider Provider
	cfg      Config
	limiter  *rate.Limiter
	validate *validator.Validate
	outcomes *prometheus.CounterVec
	logger   *slog.Logger
}

// New creates a classifier backed by the configured provider.
func New(cfg *Config, reg prometheus.Registerer, logger *slog.Logger) (System, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, p, reg, logger)
}

// NewWithProvider creates a classifier over an explicit provider.
func NewWithProvider(
	cfg *Config,
	p Provider,
	reg prometheus.Registerer,
	logger *slog.Logger,
) (System, error) {
	outcomes, err := metrics.Register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "classifications_total",
			Help:      "Classification requests by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	))
	if err != nil {
		return nil, fmt.Errorf("register classification counter: %w", err)
	}

	s := &system{
		provider: p,
		cfg:      *cfg,
		validate: validator.New(),
		outcomes: outcomes,
		logger:   logger.With("system", "classifier", "provider", p.Name()),
	}

	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	return s, nil
}

func (s *system) ValidateImage(imageURL string) bool {
	if strings.TrimSpace(imageURL) == "" {
		return false
	}
	return s.validate.Var(imageURL, "url") == nil
}

func (s *system) Classify(ctx context.Context, imageURL, hint string) (*Result, error) {
	if timeout := s.cfg.TimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.record("error")
			return nil, transport.New(transport.Classifier, "throttle", transport.Timeout, err)
		}
	}

	start := time.Now()
	content, err := s.provider.Complete(ctx, Request{
		Prompt:      Prompt(s.cfg.MaxCandidates, hint),
		ImageURL:    imageURL,
		Detail:      s.cfg.Detail,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		s.record("error")
		s.logger.Warn("classification request failed", "error", err, "duration", time.Since(start))
		return nil, transport.Wrap(transport.Classifier, "complete", err)
	}

	result, err := Decode(content, s.cfg.MaxCandidates)
	if err != nil {
		s.record("error")
		s.logger.Warn("classification response rejected", "error", err)
		return nil, err
	}

	outcome := "not_plant"
	if result.IsPlant {
		outcome = "plant"
	}
	s.record(outcome)

	s.logger.Info(
		"image classified",
		"is_plant", result.IsPlant,
		"confidence", result.Confidence,
		"candidates", len(result.Candidates),
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *system) record(outcome string) {
	s.outcomes.WithLabelValues(s.provider.Name(), outcome).Inc()
}
