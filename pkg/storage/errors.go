package storage

import (
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/minio/minio-go/v7"

	"github.com/JaimeStill/herbarium/pkg/transport"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
	// ErrSigningUnsupported indicates the backend credentials cannot sign URLs.
	ErrSigningUnsupported = errors.New("url signing not supported by credentials")
)

func notFound(op, key string) error {
	return transport.New(transport.Storage, op, transport.NotFound, fmt.Errorf("%s: %w", key, ErrNotFound))
}

// classify wraps a provider failure as a storage transport error. Network
// failures keep their connectivity kind; errors carrying a service response
// are upstream faults.
func classify(op, key string, err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("%s: %w", key, err)
	if kind := transport.Classify(err); kind.IsNetwork() {
		return transport.New(transport.Storage, op, kind, wrapped)
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return transport.New(transport.Storage, op, transport.Upstream, wrapped)
	}

	if resp := minio.ToErrorResponse(err); resp.StatusCode != 0 || resp.Code != "" {
		return transport.New(transport.Storage, op, transport.Upstream, wrapped)
	}

	return transport.New(transport.Storage, op, transport.Unknown, wrapped)
}
