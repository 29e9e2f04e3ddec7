package api

import (
	"github.com/JaimeStill/herbarium/internal/images"
	"github.com/JaimeStill/herbarium/internal/plants"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Images images.System
	Plants plants.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Images: images.New(
			runtime.Objects,
			runtime.Classifier,
			runtime.Validator,
			runtime.Logger,
		),
		Plants: plants.New(
			repository(runtime),
			runtime.Objects,
			runtime.Validator,
			runtime.Logger,
		),
	}
}

func repository(runtime *Runtime) plants.Repository {
	if runtime.Embedded != nil {
		return plants.NewBadger(runtime.Embedded.Store())
	}
	return plants.NewPostgres(runtime.Database.Connection())
}
