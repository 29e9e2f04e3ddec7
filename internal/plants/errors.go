package plants

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/herbarium/internal/validation"
	"github.com/JaimeStill/herbarium/pkg/handlers"
)

// Domain errors for plant operations.
var (
	ErrNotFound  = errors.New("plant not found")
	ErrDuplicate = errors.New("plant already exists")
)

// MapError maps plant domain errors onto the API error taxonomy.
func MapError(err error) *handlers.Error {
	switch {
	case errors.Is(err, ErrNotFound):
		return handlers.NewError(http.StatusNotFound, handlers.CodePlantNotFound, "plant not found", nil)
	case errors.Is(err, ErrDuplicate):
		return handlers.NewError(http.StatusConflict, handlers.CodeDatabaseError, "plant already exists", err)
	case errors.Is(err, validation.ErrInvalid):
		return handlers.Invalid("invalid request", err)
	}
	return handlers.Resolve(err)
}
