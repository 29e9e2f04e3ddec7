package plants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/herbarium/internal/objects"
	"github.com/JaimeStill/herbarium/internal/validation"
)

// System defines the plant record operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context) (*ListResult, error)
	Find(ctx context.Context, id uuid.UUID) (*Plant, error)
	CheckDuplicate(ctx context.Context, name string) (*DuplicateCheckResult, error)
	Save(ctx context.Context, cmd CreateCommand) (*Plant, error)

	// Update replaces the image path and confidence of a record. When the
	// image path changes and no other record still references the previous
	// image, it is deleted once, best-effort, after the replace succeeds.
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Plant, error)

	// Delete removes a record and then its image, best-effort, unless
	// another record still references the image.
	Delete(ctx context.Context, id uuid.UUID) error
}

type system struct {
	repo      Repository
	objects   objects.System
	validator *validation.Validator
	logger    *slog.Logger
}

// New creates the plant system over a document store repository.
func New(
	repo Repository,
	objs objects.System,
	validator *validation.Validator,
	logger *slog.Logger,
) System {
	return &system{
		repo:      repo,
		objects:   objs,
		validator: validator,
		logger:    logger.With("system", "plants"),
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) List(ctx context.Context) (*ListResult, error) {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}

	for i := range summaries {
		summaries[i].ImagePath = s.objects.Present(ctx, summaries[i].ImagePath)
	}

	return &ListResult{Plants: summaries, Total: len(summaries)}, nil
}

func (s *system) Find(ctx context.Context, id uuid.UUID) (*Plant, error) {
	p, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, p), nil
}

func (s *system) CheckDuplicate(ctx context.Context, name string) (*DuplicateCheckResult, error) {
	name = strings.TrimSpace(name)
	if err := s.validator.Required("name", name, 0); err != nil {
		return nil, err
	}

	p, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return &DuplicateCheckResult{Exists: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}

	return &DuplicateCheckResult{Exists: true, Plant: s.present(ctx, p).match()}, nil
}

func (s *system) Save(ctx context.Context, cmd CreateCommand) (*Plant, error) {
	if err := s.validateCreate(cmd); err != nil {
		return nil, err
	}

	now := timestamp()
	p := &Plant{
		ID:              uuid.New(),
		Name:            cmd.Name,
		ScientificName:  optional(cmd.ScientificName),
		FamilyName:      optional(cmd.FamilyName),
		Description:     optional(cmd.Description),
		Characteristics: cmd.Characteristics,
		Confidence:      *cmd.Confidence,
		ImagePath:       s.canonical(cmd.ImagePath),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info("plant saved", "id", created.ID, "name", created.Name)
	return s.present(ctx, created), nil
}

func (s *system) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Plant, error) {
	if err := s.validator.URL("imagePath", cmd.ImagePath); err != nil {
		return nil, err
	}
	if err := s.validator.Confidence("confidence", cmd.Confidence); err != nil {
		return nil, err
	}
	if err := s.stored("imagePath", cmd.ImagePath); err != nil {
		return nil, err
	}

	existing, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := existing.ImagePath
	merged := *existing
	merged.ImagePath = s.canonical(cmd.ImagePath)
	merged.Confidence = *cmd.Confidence
	merged.UpdatedAt = timestamp()

	replaced, err := s.repo.Replace(ctx, &merged)
	if err != nil {
		return nil, err
	}

	if replaced.ImagePath != previous {
		s.release(context.WithoutCancel(ctx), previous, StageReplaceImage)
	}

	s.logger.Info("plant updated", "id", replaced.ID, "image_changed", replaced.ImagePath != previous)
	return s.present(ctx, replaced), nil
}

func (s *system) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.release(context.WithoutCancel(ctx), existing.ImagePath, StageDeletePlant)

	s.logger.Info("plant deleted", "id", id)
	return nil
}

func (s *system) validateCreate(cmd CreateCommand) error {
	v := s.validator
	limits := v.Limits()

	for _, err := range []error{
		v.Required("name", cmd.Name, limits.NameMaxLength),
		v.Optional("scientificName", cmd.ScientificName, limits.ScientificNameMaxLength),
		v.Optional("familyName", cmd.FamilyName, limits.FamilyNameMaxLength),
		v.Optional("description", cmd.Description, limits.DescriptionMaxLength),
		v.Required("characteristics", cmd.Characteristics, limits.CharacteristicsMaxLength),
		v.Confidence("confidence", cmd.Confidence),
		v.URL("imagePath", cmd.ImagePath),
		s.stored("imagePath", cmd.ImagePath),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// stored rejects image paths in the temporary upload area, which the sweeper
// empties.
func (s *system) stored(field, imagePath string) error {
	if area, ok := s.objects.Locate(imagePath); ok && area == objects.Temporary {
		return &validation.Error{Field: field, Message: "must not reference the temporary upload area"}
	}
	return nil
}

// release deletes an image no record references anymore. A failed reference
// check keeps the image.
func (s *system) release(ctx context.Context, imagePath string, stage objects.Stage) {
	refs, err := s.repo.CountByImage(ctx, imagePath)
	if err != nil {
		s.logger.Warn("image kept", "stage", stage, "image_path", imagePath, "error", err)
		return
	}
	if refs > 0 {
		s.logger.Info("image kept", "stage", stage, "image_path", imagePath, "references", refs)
		return
	}
	s.objects.Discard(ctx, imagePath, stage)
}

// canonical strips signatures from image paths that point into the object
// store. Other URLs are kept as given.
func (s *system) canonical(imagePath string) string {
	if c, ok := s.objects.Canonical(imagePath); ok {
		return c
	}
	return imagePath
}

func (s *system) present(ctx context.Context, p *Plant) *Plant {
	out := *p
	out.ImagePath = s.objects.Present(ctx, p.ImagePath)
	return &out
}

// optional treats an empty string as an absent field.
func optional(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// timestamp drops the monotonic reading and sub-microsecond precision so
// records compare equal after a store round-trip.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
