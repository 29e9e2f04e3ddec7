package images

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/herbarium/internal/validation"
	"github.com/JaimeStill/herbarium/pkg/handlers"
)

// Domain errors for image operations.
var (
	ErrNotAPlant        = errors.New("image does not depict a plant")
	ErrImageNotFound    = errors.New("image not found in storage")
	ErrInvalidReference = errors.New("object store returned an invalid image url")
	ErrMissingImage     = errors.New("image file is required")
	ErrFileTooLarge     = errors.New("request body exceeds the upload limit")
)

// NotAPlantError reports a negative verdict with the model's reasoning.
type NotAPlantError struct {
	Reason     string
	Confidence float64
}

func (e *NotAPlantError) Error() string {
	return fmt.Sprintf("%s: %s (confidence %.1f)", ErrNotAPlant, e.Reason, e.Confidence)
}

func (e *NotAPlantError) Unwrap() error {
	return ErrNotAPlant
}

// MapError maps image domain errors onto the API error taxonomy.
func MapError(err error) *handlers.Error {
	var notPlant *NotAPlantError
	if errors.As(err, &notPlant) {
		return handlers.NewError(
			http.StatusBadRequest,
			handlers.CodeNotAPlant,
			"the uploaded image does not appear to be a plant",
			nil,
		).WithDetails(fmt.Sprintf("reason: %s (confidence %.1f)", notPlant.Reason, notPlant.Confidence))
	}

	switch {
	case errors.Is(err, validation.ErrInvalid):
		return handlers.Invalid("invalid request", err)
	case errors.Is(err, ErrImageNotFound):
		return handlers.Invalid("image not found in storage", nil)
	case errors.Is(err, ErrMissingImage):
		return handlers.Invalid("an image file is required in the image field", nil)
	case errors.Is(err, ErrFileTooLarge):
		return handlers.Invalid("file is too large", err)
	}

	return handlers.Resolve(err)
}
