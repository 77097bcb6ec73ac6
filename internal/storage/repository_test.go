package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"movimenti/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "movimenti.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testMovement(desc string) core.Movement {
	return core.Movement{
		Amount:      decimal.RequireFromString("12.50"),
		Date:        "01/02/2030",
		Description: desc,
		Category:    "Bar",
		Class:       core.ClassL,
	}
}

func TestRepositoryAppendAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ref, err := repo.Append(ctx, testMovement("colazione"))
	if err != nil || ref != "1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	e, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	m := e.Movement
	if m.Amount.String() != "12.5" || m.Date != "01/02/2030" ||
		m.Description != "colazione" || m.Category != "Bar" || m.Class != core.ClassL {
		t.Fatalf("round-trip mismatch: %+v", m)
	}
	if e.Synced {
		t.Fatal("new entry must start unsynced")
	}
}

func TestRepositoryAppendRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Append(context.Background(), core.Movement{Date: "2030-02-01"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositorySyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, desc := range []string{"a", "b", "c"} {
		if _, err := repo.Append(ctx, testMovement(desc)); err != nil {
			t.Fatalf("append %s: %v", desc, err)
		}
	}

	pending, err := repo.ListUnsynced(ctx, 10)
	if err != nil || len(pending) != 3 {
		t.Fatalf("expected 3 unsynced, got %d (err=%v)", len(pending), err)
	}
	if pending[0].ID != 1 {
		t.Fatalf("unsynced entries must be oldest first, got ID %d", pending[0].ID)
	}

	if err := repo.MarkSynced(ctx, 2); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, _ = repo.ListUnsynced(ctx, 10)
	if len(pending) != 2 || pending[0].ID != 1 || pending[1].ID != 3 {
		t.Fatalf("unexpected unsynced set: %+v", pending)
	}

	// Batch limit applies.
	pending, _ = repo.ListUnsynced(ctx, 1)
	if len(pending) != 1 {
		t.Fatalf("limit ignored: %+v", pending)
	}

	if err := repo.MarkSynced(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}
