package economy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/dbtest"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, risorse int) (*repositories.Store, *economy.Service, *models.User) {
	t.Helper()
	ctx := context.Background()
	store := dbtest.NewStore(t)
	user, err := store.Users.EnsureUser(ctx, "42", "ada", 20, now)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Backgrounds.Upsert(ctx, &models.Background{UserID: user.ID, Risorse: risorse, Seguaci: 2, Rifugio: 1}); err != nil {
		t.Fatal(err)
	}
	svc := economy.NewService(store, economy.WithClock(func() time.Time { return now }))
	return store, svc, user
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	_, svc, user := setup(t, 10)

	item, err := svc.CreateItem(ctx, economy.ItemInput{Name: "Pugnale d'argento", CostResources: 4})
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.Purchase(ctx, user.ID, item.ID)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if !res.Lock.UnlockAt.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("UnlockAt = %v, want next month start", res.Lock.UnlockAt)
	}
	if res.Overview.Available != 6 || res.Overview.Locked != 4 || res.Overview.Total != 10 {
		t.Errorf("Overview = %+v", res.Overview)
	}
}

func TestPurchaseNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	store, svc, user := setup(t, 10)

	item, err := svc.CreateItem(ctx, economy.ItemInput{Name: "Lanterna", CostResources: 3})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(ctx, user.ID, item.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, insufficient := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, gameerr.ErrInsufficientResources):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 3 || insufficient != 3 {
		t.Errorf("ok=%d insufficient=%d, want 3/3", ok, insufficient)
	}

	locked, err := store.Ledger.SumActiveLocks(ctx, user.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if locked > 10 {
		t.Errorf("active locks %d exceed risorse 10", locked)
	}
}

func TestPurchaseErrors(t *testing.T) {
	ctx := context.Background()
	_, svc, user := setup(t, 2)

	if _, err := svc.Purchase(ctx, user.ID, "missing"); !errors.Is(err, gameerr.ErrNotFound) {
		t.Errorf("Purchase(missing) error = %v, want NotFound", err)
	}

	item, err := svc.CreateItem(ctx, economy.ItemInput{Name: "Grimorio", CostResources: 5})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Purchase(ctx, user.ID, item.ID); !errors.Is(err, gameerr.ErrInsufficientResources) {
		t.Errorf("Purchase() error = %v, want InsufficientResources", err)
	}
}

func TestCreateItemValidation(t *testing.T) {
	_, svc, _ := setup(t, 0)
	tests := []struct {
		name string
		in   economy.ItemInput
	}{
		{"missing name", economy.ItemInput{CostResources: 1}},
		{"zero cost", economy.ItemInput{Name: "Nulla"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateItem(context.Background(), tt.in); !errors.Is(err, gameerr.ErrValidation) {
				t.Errorf("CreateItem() error = %v, want Validation", err)
			}
		})
	}
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	_, svc, user := setup(t, 3)

	item, err := svc.CreateItem(ctx, economy.ItemInput{Name: "Mappa", CostResources: 5})
	if err != nil {
		t.Fatal(err)
	}
	block := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateItem(ctx, item.ID, economy.ItemInput{Name: " Mappa antica ", CostResources: 2, BlockUntil: &block})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if updated.Name != "Mappa antica" || updated.CostResources != 2 {
		t.Errorf("UpdateItem() = %+v", updated)
	}

	res, err := svc.Purchase(ctx, user.ID, item.ID)
	if err != nil {
		t.Fatalf("Purchase() after update error = %v", err)
	}
	if !res.Lock.UnlockAt.Equal(block) {
		t.Errorf("UnlockAt = %v, want block_until %v", res.Lock.UnlockAt, block)
	}

	if _, err := svc.UpdateItem(ctx, "missing", economy.ItemInput{Name: "X", CostResources: 1}); !errors.Is(err, gameerr.ErrNotFound) {
		t.Errorf("UpdateItem(missing) error = %v, want NotFound", err)
	}
}

func TestFollowerStatus(t *testing.T) {
	ctx := context.Background()
	store, svc, user := setup(t, 0)

	if err := store.Ledger.AppendFollowerSpend(ctx, &models.FollowerSpend{
		ID: "fs1", UserID: user.ID, Amount: 1, MonthKey: "2025-03",
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Users.IncrementUsedActions(ctx, user.ID); err != nil {
		t.Fatal(err)
	}

	st, err := svc.FollowerStatus(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := economy.FollowerStatus{
		MonthKey:               "2025-03",
		Seguaci:                2,
		SpentThisMonth:         1,
		AvailableFollowers:     1,
		BaseMaxActions:         20,
		EffectiveMaxActions:    21,
		UsedActions:            1,
		RemainingActionsBefore: 20,
	}
	if *st != want {
		t.Errorf("FollowerStatus() = %+v, want %+v", *st, want)
	}
}
