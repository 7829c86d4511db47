package catalog

import (
	"context"
	"testing"

	"github.com/archivio-maledetto/archivio/archivio/database/dbtest"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
)

func TestChallengeReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	c, err := New(store, 8)
	if err != nil {
		t.Fatal(err)
	}

	ch := &models.Challenge{ID: "c1", Name: "La Cripta", Tests: []models.ContrastingTest{{Attribute: "Forza", Difficulty: 3}}}
	if err := store.Challenges.Create(ctx, ch); err != nil {
		t.Fatal(err)
	}

	got, err := c.Challenge(ctx, "c1")
	if err != nil {
		t.Fatalf("Challenge() error = %v", err)
	}
	got.Tests[0].Difficulty = 99

	ch.Name = "La Cripta Sommersa"
	if err := store.Challenges.Update(ctx, ch); err != nil {
		t.Fatal(err)
	}

	cached, _ := c.Challenge(ctx, "c1")
	if cached.Name != "La Cripta" {
		t.Errorf("expected stale cached name before invalidation, got %q", cached.Name)
	}
	if cached.Tests[0].Difficulty != 3 {
		t.Error("caller mutation leaked into the cache")
	}

	c.InvalidateChallenge("c1")
	fresh, _ := c.Challenge(ctx, "c1")
	if fresh.Name != "La Cripta Sommersa" {
		t.Errorf("Challenge() after invalidation = %q", fresh.Name)
	}
}

func TestAidNotFound(t *testing.T) {
	c, err := New(dbtest.NewStore(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Aid(context.Background(), "missing"); !repositories.IsNotFound(err) {
		t.Errorf("Aid() error = %v, want NotFoundError", err)
	}
	if c.Len() != 0 {
		t.Error("misses must not be cached")
	}
}

func TestListInvalidatedByWrite(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	c, _ := New(store, 8)

	if list, _ := c.Aids(ctx); len(list) != 0 {
		t.Fatalf("Aids() = %d entries, want 0", len(list))
	}
	if err := store.Aids.Create(ctx, &models.Aid{ID: "a1", Name: "Visione", Attribute: "Intuito", EventDate: "2025-03-14", StartTime: "18:00", EndTime: "22:00"}); err != nil {
		t.Fatal(err)
	}
	c.InvalidateAid("a1")
	if list, _ := c.Aids(ctx); len(list) != 1 {
		t.Errorf("Aids() = %d entries after invalidation, want 1", len(list))
	}
}
