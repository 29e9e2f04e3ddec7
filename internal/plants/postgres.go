package plants

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/JaimeStill/herbarium/pkg/query"
	"github.com/JaimeStill/herbarium/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "plants", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("scientific_name", "ScientificName").
	Project("family_name", "FamilyName").
	Project("description", "Description").
	Project("characteristics", "Characteristics").
	Project("confidence", "Confidence").
	Project("image_path", "ImagePath").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var summaryProjection = query.
	NewProjectionMap("public", "plants", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("characteristics", "Characteristics").
	Project("image_path", "ImagePath").
	Project("confidence", "Confidence").
	Project("created_at", "CreatedAt")

var newestFirst = query.SortField{Field: "CreatedAt", Descending: true}

// insertFields and replaceFields bind in the order listed.
var (
	insertFields = []string{
		"ID", "Name", "ScientificName", "FamilyName", "Description",
		"Characteristics", "Confidence", "ImagePath", "CreatedAt", "UpdatedAt",
	}
	replaceFields = []string{
		"Name", "ScientificName", "FamilyName", "Description",
		"Characteristics", "Confidence", "ImagePath", "UpdatedAt",
	}
)

type postgres struct {
	db *sql.DB
}

// NewPostgres creates a Repository over the plants table.
func NewPostgres(db *sql.DB) Repository {
	return &postgres{db: db}
}

func (r *postgres) List(ctx context.Context) ([]Summary, error) {
	q, args := query.NewBuilder(summaryProjection, newestFirst).Build()

	plants, err := repository.Many(ctx, r.db, scanSummary, q, args...)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return plants, nil
}

func (r *postgres) Find(ctx context.Context, id uuid.UUID) (*Plant, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.One(ctx, r.db, scanPlant, q, args...)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *postgres) FindByName(ctx context.Context, name string) (*Plant, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "CreatedAt"}).
		WhereEquals("Name", name).
		BuildSingleOrNull()

	p, err := repository.One(ctx, r.db, scanPlant, q, args...)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *postgres) Create(ctx context.Context, p *Plant) (*Plant, error) {
	q := query.NewBuilder(projection).BuildInsert(insertFields...)
	args := []any{
		p.ID, p.Name, p.ScientificName, p.FamilyName, p.Description,
		p.Characteristics, p.Confidence, p.ImagePath, p.CreatedAt, p.UpdatedAt,
	}

	created, err := repository.Atomic(ctx, r.db, func(tx repository.DBTX) (Plant, error) {
		return repository.One(ctx, tx, scanPlant, q, args...)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &created, nil
}

func (r *postgres) Replace(ctx context.Context, p *Plant) (*Plant, error) {
	q := query.NewBuilder(projection).BuildUpdate("ID", replaceFields...)
	args := []any{
		p.Name, p.ScientificName, p.FamilyName, p.Description,
		p.Characteristics, p.Confidence, p.ImagePath, p.UpdatedAt,
		p.ID,
	}

	replaced, err := repository.Atomic(ctx, r.db, func(tx repository.DBTX) (Plant, error) {
		return repository.One(ctx, tx, scanPlant, q, args...)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &replaced, nil
}

func (r *postgres) Delete(ctx context.Context, id uuid.UUID) error {
	q := query.NewBuilder(projection).BuildDelete("ID")

	if err := repository.ExecOne(ctx, r.db, q, id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *postgres) CountByImage(ctx context.Context, imagePath string) (int, error) {
	q, args := query.NewBuilder(projection).WhereEquals("ImagePath", imagePath).BuildCount()

	count, err := repository.One(ctx, r.db, scanCount, q, args...)
	if err != nil {
		return 0, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return count, nil
}

func scanPlant(s repository.Scanner) (Plant, error) {
	var p Plant
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.ScientificName,
		&p.FamilyName,
		&p.Description,
		&p.Characteristics,
		&p.Confidence,
		&p.ImagePath,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var p Summary
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Characteristics,
		&p.ImagePath,
		&p.Confidence,
		&p.CreatedAt,
	)
	return p, err
}

func scanCount(s repository.Scanner) (int, error) {
	var n int
	err := s.Scan(&n)
	return n, err
}
