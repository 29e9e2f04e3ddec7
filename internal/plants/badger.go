package plants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/JaimeStill/herbarium/pkg/transport"
)

var errStoreClosed = errors.New("embedded store closed")

type badger struct {
	store *badgerhold.Store
}

// NewBadger creates a Repository over an embedded badgerhold store. Records
// are keyed by their id string and indexed by name and image path.
func NewBadger(store *badgerhold.Store) Repository {
	return &badger{store: store}
}

func (r *badger) List(ctx context.Context) ([]Summary, error) {
	if err := r.ready(ctx, "list"); err != nil {
		return nil, err
	}

	var records []Plant
	q := (&badgerhold.Query{}).SortBy("CreatedAt").Reverse()
	if err := r.store.Find(&records, q); err != nil {
		return nil, r.mapError("list", err)
	}

	summaries := make([]Summary, len(records))
	for i, p := range records {
		summaries[i] = p.summary()
	}
	return summaries, nil
}

func (r *badger) Find(ctx context.Context, id uuid.UUID) (*Plant, error) {
	if err := r.ready(ctx, "find"); err != nil {
		return nil, err
	}

	var p Plant
	if err := r.store.Get(id.String(), &p); err != nil {
		return nil, r.mapError("find", err)
	}
	return &p, nil
}

func (r *badger) FindByName(ctx context.Context, name string) (*Plant, error) {
	if err := r.ready(ctx, "find by name"); err != nil {
		return nil, err
	}

	var records []Plant
	q := badgerhold.Where("Name").Eq(name).Index("Name").SortBy("CreatedAt").Limit(1)
	if err := r.store.Find(&records, q); err != nil {
		return nil, r.mapError("find by name", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

func (r *badger) Create(ctx context.Context, p *Plant) (*Plant, error) {
	if err := r.ready(ctx, "create"); err != nil {
		return nil, err
	}

	if err := r.store.Insert(p.ID.String(), *p); err != nil {
		return nil, r.mapError("create", err)
	}

	created := *p
	return &created, nil
}

func (r *badger) Replace(ctx context.Context, p *Plant) (*Plant, error) {
	if err := r.ready(ctx, "replace"); err != nil {
		return nil, err
	}

	if err := r.store.Update(p.ID.String(), *p); err != nil {
		return nil, r.mapError("replace", err)
	}

	replaced := *p
	return &replaced, nil
}

func (r *badger) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.ready(ctx, "delete"); err != nil {
		return err
	}

	if err := r.store.Delete(id.String(), Plant{}); err != nil {
		return r.mapError("delete", err)
	}
	return nil
}

func (r *badger) CountByImage(ctx context.Context, imagePath string) (int, error) {
	if err := r.ready(ctx, "count by image"); err != nil {
		return 0, err
	}

	count, err := r.store.Count(&Plant{}, badgerhold.Where("ImagePath").Eq(imagePath).Index("ImagePath"))
	if err != nil {
		return 0, r.mapError("count by image", err)
	}
	return int(count), nil
}

func (r *badger) ready(ctx context.Context, op string) error {
	if r.store.Badger().IsClosed() {
		return transport.New(transport.Database, op, transport.Unreachable, errStoreClosed)
	}
	if err := ctx.Err(); err != nil {
		return transport.Wrap(transport.Database, op, err)
	}
	return nil
}

func (r *badger) mapError(op string, err error) error {
	switch {
	case errors.Is(err, badgerhold.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, badgerhold.ErrKeyExists):
		return ErrDuplicate
	case r.store.Badger().IsClosed():
		return transport.New(transport.Database, op, transport.Unreachable, err)
	}
	return transport.Wrap(transport.Database, op, err)
}
