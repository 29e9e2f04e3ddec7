package plants

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists plant records. Missing records are ErrNotFound, key
// conflicts are ErrDuplicate, and infrastructure faults are database
// transport errors.
type Repository interface {
	// List returns every record as a summary, newest first.
	List(ctx context.Context) ([]Summary, error)
	Find(ctx context.Context, id uuid.UUID) (*Plant, error)
	// FindByName returns the oldest record whose name matches exactly.
	FindByName(ctx context.Context, name string) (*Plant, error)
	Create(ctx context.Context, p *Plant) (*Plant, error)
	// Replace overwrites every mutable field of an existing record.
	Replace(ctx context.Context, p *Plant) (*Plant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// CountByImage reports how many records reference imagePath.
	CountByImage(ctx context.Context, imagePath string) (int, error)
}
