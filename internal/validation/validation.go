// Package validation checks plant record fields and image uploads against the
// configured limits before any external call is made.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/JaimeStill/herbarium/pkg/formatting"
)

// ErrInvalid is matched by every validation failure.
var ErrInvalid = errors.New("validation failed")

// Error reports the field that failed and why.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

func fail(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validator applies field rules under a fixed Config.
type Validator struct {
	cfg          Config
	validate     *validator.Validate
	contentTypes string
}

// New creates a Validator for a finalized Config.
func New(cfg *Config) *Validator {
	return &Validator{
		cfg:          *cfg,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		contentTypes: "oneof=" + strings.Join(cfg.AllowedContentTypes, " "),
	}
}

// Limits returns the configured limits.
func (v *Validator) Limits() Config {
	return v.cfg
}

// Required checks that value is non-blank after trimming and at most max characters.
func (v *Validator) Required(field, value string, max int) error {
	if v.validate.Var(strings.TrimSpace(value), "required") != nil {
		return fail(field, "is required")
	}
	return v.length(field, value, max)
}

// Optional checks that value, when present, is at most max characters.
func (v *Validator) Optional(field string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return v.length(field, *value, max)
}

// Confidence checks that value is present and within [0,100].
func (v *Validator) Confidence(field string, value *float64) error {
	if value == nil {
		return fail(field, "is required")
	}
	if v.validate.Var(*value, "gte=0,lte=100") != nil {
		return fail(field, "must be between 0 and 100")
	}
	return nil
}

// URL checks that value is a non-empty, syntactically valid absolute URL.
func (v *Validator) URL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fail(field, "is required")
	}
	if v.validate.Var(value, "url") != nil {
		return fail(field, "must be a valid URL")
	}
	return nil
}

// ContentType checks a declared MIME type against the allow-list,
// ignoring case and parameters.
func (v *Validator) ContentType(value string) error {
	mediaType, _, _ := strings.Cut(value, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	if mediaType == "" || v.validate.Var(mediaType, v.contentTypes) != nil {
		return fail("contentType", "unsupported file type %q; allowed: %s",
			value, strings.Join(v.cfg.AllowedContentTypes, ", "))
	}
	return nil
}

// FileSize checks that size is positive and within the upload ceiling.
func (v *Validator) FileSize(size int64) error {
	if size <= 0 {
		return fail("image", "file is empty")
	}
	if max := v.cfg.MaxFileSizeBytes(); size > max {
		return fail("image", "file size %s exceeds the %s limit",
			formatting.FormatBytes(size, 1), formatting.FormatBytes(max, 0))
	}
	return nil
}

func (v *Validator) length(field, value string, max int) error {
	if max > 0 && v.validate.Var(value, fmt.Sprintf("max=%d", max)) != nil {
		return fail(field, "must be at most %d characters", max)
	}
	return nil
}

// UUID checks that value is a canonical RFC 4122 UUID of version 1 through 5.
func UUID(field, value string) error {
	if len(value) != 36 {
		return fail(field, "must be a valid UUID")
	}

	id, err := uuid.Parse(value)
	if err != nil || id.Variant() != uuid.RFC4122 || id.Version() < 1 || id.Version() > 5 {
		return fail(field, "must be a valid UUID")
	}
	return nil
}
