// Package transport defines the closed set of failure variants produced by
// clients of external services (document store, object store, classifier).
// Clients wrap their failures in *Error at the call site so callers can map
// them without inspecting provider-specific error shapes.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Service identifies the external dependency that produced an error.
type Service string

const (
	Database   Service = "database"
	Storage    Service = "storage"
	Classifier Service = "classifier"
)

// Kind classifies a transport failure.
type Kind int

const (
	// Unknown marks failures that matched no recognized signal.
	Unknown Kind = iota
	// Unreachable covers refused connections, DNS failures, and unreachable hosts.
	Unreachable
	// Timeout covers deadline expirations and network timeouts.
	Timeout
	// NotFound indicates the remote resource does not exist.
	NotFound
	// Conflict indicates a constraint violation on the remote side.
	Conflict
	// Upstream indicates the remote service answered with a fault.
	Upstream
	// Schema indicates the remote response violated the expected contract.
	Schema
	// Invalid indicates the remote service rejected the request input.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case Timeout:
		return "timeout"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Upstream:
		return "upstream"
	case Schema:
		return "schema"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is a classified failure from an external service call.
type Error struct {
	Service Service
	Op      string
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Service, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with an explicit kind.
func New(svc Service, op string, kind Kind, err error) error {
	return &Error{Service: svc, Op: op, Kind: kind, Err: err}
}

// Wrap classifies err by its network-level signals and attaches the service
// and operation. It returns nil for a nil error and leaves errors that are
// already classified untouched.
func Wrap(svc Service, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return New(svc, op, Classify(err), err)
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	if te, ok := As(err); ok {
		return te.Kind
	}
	return Unknown
}

// Classify inspects err for recognized network signals. Errors that carry
// no such signal are Unknown.
func Classify(err error) Kind {
	if err == nil {
		return Unknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return Unreachable
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Unreachable
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return Unreachable
	}

	return Unknown
}

// IsNetwork reports whether k describes a connectivity failure.
func (k Kind) IsNetwork() bool {
	return k == Unreachable || k == Timeout
}
