// Package plants implements the plant record domain: persistence through a
// document store, field validation, image cleanup on replace and delete,
// and advisory duplicate-name lookups.
package plants

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/herbarium/internal/objects"
)

// Cleanup stages recorded when a plant operation discards an image.
const (
	StageReplaceImage objects.Stage = "replace_image"
	StageDeletePlant  objects.Stage = "delete_plant"
)

// Plant is a persisted identification.
type Plant struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name" badgerhold:"index"`
	ScientificName  *string   `json:"scientificName,omitempty"`
	FamilyName      *string   `json:"familyName,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Characteristics string    `json:"characteristics"`
	Confidence      float64   `json:"confidence"`
	ImagePath       string    `json:"imagePath" badgerhold:"index"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Summary is the list projection of a Plant.
type Summary struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Characteristics string    `json:"characteristics"`
	ImagePath       string    `json:"imagePath"`
	Confidence      float64   `json:"confidence"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ListResult is the body of the list endpoint.
type ListResult struct {
	Plants []Summary `json:"plants"`
	Total  int       `json:"total"`
}

// DuplicateMatch identifies the existing record behind a duplicate name.
type DuplicateMatch struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	ImagePath  string    `json:"imagePath"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DuplicateCheckResult reports whether a record with a given name exists.
type DuplicateCheckResult struct {
	Exists bool            `json:"exists"`
	Plant  *DuplicateMatch `json:"plant,omitempty"`
}

// CreateCommand carries the fields of a new plant record.
type CreateCommand struct {
	Name            string   `json:"name"`
	ScientificName  *string  `json:"scientificName,omitempty"`
	FamilyName      *string  `json:"familyName,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Characteristics string   `json:"characteristics"`
	Confidence      *float64 `json:"confidence"`
	ImagePath       string   `json:"imagePath"`
}

// UpdateCommand carries the mutable fields of a plant record.
type UpdateCommand struct {
	ImagePath  string   `json:"imagePath"`
	Confidence *float64 `json:"confidence"`
}

// MessageResult is the body of the delete endpoint.
type MessageResult struct {
	Message string `json:"message"`
}

func (p Plant) summary() Summary {
	return Summary{
		ID:              p.ID,
		Name:            p.Name,
		Characteristics: p.Characteristics,
		ImagePath:       p.ImagePath,
		Confidence:      p.Confidence,
		CreatedAt:       p.CreatedAt,
	}
}

func (p Plant) match() *DuplicateMatch {
	return &DuplicateMatch{
		ID:         p.ID,
		Name:       p.Name,
		ImagePath:  p.ImagePath,
		Confidence: p.Confidence,
		CreatedAt:  p.CreatedAt,
	}
}
