package handlers

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/herbarium/pkg/transport"
)

// Code is an error code from the fixed API taxonomy.
type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeNotAPlant      Code = "NOT_A_PLANT"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodePlantNotFound  Code = "PLANT_NOT_FOUND"
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeAIServiceError Code = "AI_SERVICE_ERROR"
	CodeStorageError   Code = "STORAGE_ERROR"
	CodeInternalError  Code = "INTERNAL_ERROR"
)

const maxDetails = 200

// Error is an API failure carrying its status, code, and a short diagnostic.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details string
	cause   error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return string(e.Code) + ": " + e.Message + ": " + e.Details
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates an API error. When cause is non-nil its message, truncated,
// becomes the details string.
func NewError(status int, code Code, message string, cause error) *Error {
	e := &Error{
		Status:  status,
		Code:    code,
		Message: message,
		cause:   cause,
	}
	if cause != nil {
		e.Details = truncate(cause.Error())
	}
	return e
}

// WithDetails replaces the diagnostic string.
func (e *Error) WithDetails(details string) *Error {
	e.Details = truncate(details)
	return e
}

// Invalid returns an INVALID_REQUEST error.
func Invalid(message string, cause error) *Error {
	return NewError(http.StatusBadRequest, CodeInvalidRequest, message, cause)
}

// Internal returns an INTERNAL_ERROR error.
func Internal(message string, cause error) *Error {
	return NewError(http.StatusInternalServerError, CodeInternalError, message, cause)
}

// Unauthorized returns an UNAUTHORIZED error.
func Unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// MapTransport maps a classified external-service failure onto the taxonomy.
// It returns nil when err carries no recognized transport signal.
func MapTransport(err error) *Error {
	te, ok := transport.As(err)
	if !ok {
		return nil
	}

	switch te.Service {
	case transport.Database:
		switch {
		case te.Kind.IsNetwork():
			return NewError(http.StatusServiceUnavailable, CodeDatabaseError, "document store unavailable", err)
		case te.Kind == transport.Conflict:
			return NewError(http.StatusConflict, CodeDatabaseError, "document store conflict", err)
		}
	case transport.Storage:
		switch {
		case te.Kind.IsNetwork():
			return NewError(http.StatusServiceUnavailable, CodeStorageError, "object store unavailable", err)
		case te.Kind != transport.Unknown:
			return NewError(http.StatusBadGateway, CodeStorageError, "object store error", err)
		}
	case transport.Classifier:
		switch {
		case te.Kind.IsNetwork():
			return NewError(http.StatusServiceUnavailable, CodeAIServiceError, "classifier unavailable", err)
		case te.Kind != transport.Unknown:
			return NewError(http.StatusBadGateway, CodeAIServiceError, "classifier error", err)
		}
	}

	return nil
}

// Resolve returns err as an *Error, mapping transport failures and falling
// back to INTERNAL_ERROR.
func Resolve(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if mapped := MapTransport(err); mapped != nil {
		return mapped
	}
	return Internal("unexpected server error", err)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDetails {
		return s
	}
	return string(r[:maxDetails]) + "..."
}
