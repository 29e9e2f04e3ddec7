package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/herbarium/pkg/transport"
)

// ErrEmptyResponse indicates the model returned no text content.
var ErrEmptyResponse = errors.New("model returned no content")

// Request is a single vision completion request.
type Request struct {
	Prompt      string
	ImageURL    string
	Detail      string
	Temperature float64
	MaxTokens   int
}

// Provider sends one vision request and returns the model's text output.
// Failures are returned as classifier transport errors.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// NewProvider creates the provider named by cfg.Provider.
func NewProvider(cfg *Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAI(cfg), nil
	case ProviderAzure:
		return newAzure(cfg), nil
	case ProviderAnthropic:
		return newAnthropic(cfg), nil
	case ProviderGemini:
		return newGemini(cfg)
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

// statusError classifies a non-success HTTP status from a provider. message
// must be a short provider message, never a raw response body; empty uses
// the status text.
func statusError(op string, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	kind := transport.Upstream
	switch status {
	case 400, 413, 415, 422:
		kind = transport.Invalid
	case 408, 504:
		kind = transport.Timeout
	}
	return transport.New(
		transport.Classifier, op, kind,
		fmt.Errorf("status %d: %s", status, truncate(message, 200)),
	)
}

// callError classifies a failure that carried no HTTP status. Errors without
// a network signal are upstream faults.
func callError(op string, err error) error {
	kind := transport.Classify(err)
	if kind == transport.Unknown {
		kind = transport.Upstream
	}
	return transport.New(transport.Classifier, op, kind, err)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
