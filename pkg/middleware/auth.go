package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/herbarium/pkg/handlers"
)

const (
	// FunctionKeyHeader carries the function key on a request.
	FunctionKeyHeader = "x-functions-key"
	// FunctionKeyParam carries the function key as a query parameter.
	FunctionKeyParam = "code"
)

// FunctionKey returns middleware that rejects requests lacking the configured
// key with 401 UNAUTHORIZED. The key is read from the x-functions-key header
// or the code query parameter. Preflight requests and a disabled config pass
// through.
func FunctionKey(cfg *AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	expected := []byte(cfg.FunctionKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled() || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(FunctionKeyHeader)
			if key == "" {
				key = r.URL.Query().Get(FunctionKeyParam)
			}

			if key == "" || subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
				handlers.RespondError(w, logger, handlers.Unauthorized("a valid function key is required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
