package plants_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/herbarium/internal/plants"
	"github.com/JaimeStill/herbarium/pkg/embedded"
	"github.com/JaimeStill/herbarium/pkg/transport"
)

func openStore(t *testing.T) embedded.System {
	t.Helper()
	sys, err := embedded.New(&embedded.Config{InMemory: true}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open embedded store: %v", err)
	}
	t.Cleanup(func() { sys.Close() })
	return sys
}

func record(name string, created time.Time) *plants.Plant {
	return &plants.Plant{
		ID:              uuid.New(),
		Name:            name,
		Characteristics: "green leaves",
		Confidence:      80,
		ImagePath:       "https://x/" + name + ".jpg",
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestBadgerCreateFind(t *testing.T) {
	repo := plants.NewBadger(openStore(t).Store())
	ctx := context.Background()

	family := "Rosaceae"
	p := record("Sakura", time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	p.FamilyName = &family

	created, err := repo.Create(ctx, p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Find(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if got.Name != "Sakura" || got.FamilyName == nil || *got.FamilyName != "Rosaceae" || got.ScientificName != nil {
		t.Errorf("record: got %+v", got)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created_at: got %v, want %v", got.CreatedAt, p.CreatedAt)
	}
}

func TestBadgerListNewestFirst(t *testing.T) {
	repo := plants.NewBadger(openStore(t).Store())
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"Fern", "Moss", "Ivy"} {
		if _, err := repo.Create(ctx, record(name, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var names []string
	for _, s := range list {
		names = append(names, s.Name)
	}
	if len(names) != 3 || names[0] != "Ivy" || names[1] != "Moss" || names[2] != "Fern" {
		t.Errorf("order: got %v, want [Ivy Moss Fern]", names)
	}
}

func TestBadgerListEmpty(t *testing.T) {
	repo := plants.NewBadger(openStore(t).Store())

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("list: got %v, want empty non-nil", list)
	}
}

func TestBadgerFindByName(t *testing.T) {
	repo := plants.NewBadger(openStore(t).Store())
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	older := record("Sakura", base)
	newer := record("Sakura", base.Add(time.Hour))
	for _, p := range []*plants.Plant{newer, older, record("Sakura Hybrid", base)} {
		if _, err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.FindByName(ctx, "Sakura")
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if got.ID != older.ID {
		t.Errorf("match: got %s, want the oldest record %s", got.ID, older.ID)
	}

	if _, err := repo.FindByName(ctx, "sakura"); !errors.Is(err, plants.ErrNotFound) {
		t.Errorf("case-sensitive lookup: got %v, want ErrNotFound", err)
	}
}

func TestBadgerCountByImage(t *testing.T) {
	repo := plants.NewBadger(openStore(t).Store())
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	first := record("Sakura", base)
	second := record("Cherry", base.Add(time.Minute))
	second.ImagePath = first.ImagePath
	for _, p := range []*plants.Plant{first, second, record("Maple", base)} {
		if _, err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		path string
		want int
	}{
		{first.ImagePath, 2},
		{"https://x/Maple.jpg", 1},
		{"https://x/none.jpg", 0},
	}

	for _, tt := range tests {
		got, err := repo.CountByImage(ctx, tt.path)
		if err != nil {
			t.Fatalf("count %s: %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("count %s: got %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestBadgerReplaceDelete(t *testing.T) {
	repo := plants.NewBadger(openStore(t).Store())
	ctx := context.Background()

	p := record("Maple", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if _, err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Confidence = 99
	if _, err := repo.Replace(ctx, p); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, _ := repo.Find(ctx, p.ID)
	if got.Confidence != 99 {
		t.Errorf("confidence: got %v, want 99", got.Confidence)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Find(ctx, p.ID); !errors.Is(err, plants.ErrNotFound) {
		t.Errorf("find after delete: got %v, want ErrNotFound", err)
	}
}

func TestBadgerErrors(t *testing.T) {
	repo := plants.NewBadger(openStore(t).Store())
	ctx := context.Background()
	missing := record("Ghost", time.Now())

	if _, err := repo.Find(ctx, missing.ID); !errors.Is(err, plants.ErrNotFound) {
		t.Errorf("find: got %v, want ErrNotFound", err)
	}
	if _, err := repo.Replace(ctx, missing); !errors.Is(err, plants.ErrNotFound) {
		t.Errorf("replace: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, missing.ID); !errors.Is(err, plants.ErrNotFound) {
		t.Errorf("delete: got %v, want ErrNotFound", err)
	}

	dup := record("Twin", time.Now())
	if _, err := repo.Create(ctx, dup); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, dup); !errors.Is(err, plants.ErrDuplicate) {
		t.Errorf("create same id: got %v, want ErrDuplicate", err)
	}
}

func TestBadgerClosedStore(t *testing.T) {
	store := openStore(t)
	repo := plants.NewBadger(store.Store())

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := repo.List(context.Background())
	if transport.KindOf(err) != transport.Unreachable {
		t.Errorf("kind: got %v, want Unreachable", transport.KindOf(err))
	}
	if te, ok := transport.As(err); !ok || te.Service != transport.Database {
		t.Errorf("service: got %v", err)
	}
}
