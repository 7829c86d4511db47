package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/dbtest"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/google/uuid"
)

var march = time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

func TestEnsureUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)

	first, err := store.Users.EnsureUser(ctx, "1001", "ada", 20, march)
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	second, err := store.Users.EnsureUser(ctx, "1001", "ada-renamed", 99, march)
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("EnsureUser() created a second user: %s != %s", first.ID, second.ID)
	}
	if second.MaxActions != 20 {
		t.Errorf("MaxActions = %d, want 20", second.MaxActions)
	}
	if second.Username != "ada-renamed" {
		t.Errorf("Username = %q, want refreshed name", second.Username)
	}
}

func TestResetMonthlyIfDue(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)

	u, err := store.Users.EnsureUser(ctx, "1002", "bea", 20, march)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Users.IncrementUsedActions(ctx, u.ID); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name      string
		now       time.Time
		wantReset bool
		wantUsed  int
	}{
		{"same month", march.Add(48 * time.Hour), false, 3},
		{"next month", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), true, 0},
		{"same month after reset", time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset, err := store.Users.ResetMonthlyIfDue(ctx, u.ID, tt.now)
			if err != nil {
				t.Fatalf("ResetMonthlyIfDue() error = %v", err)
			}
			if reset != tt.wantReset {
				t.Errorf("ResetMonthlyIfDue() = %v, want %v", reset, tt.wantReset)
			}
			got, err := store.Users.GetByID(ctx, u.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.UsedActions != tt.wantUsed {
				t.Errorf("UsedActions = %d, want %d", got.UsedActions, tt.wantUsed)
			}
		})
	}
}

func TestIncrementUnknownUser(t *testing.T) {
	store := dbtest.NewStore(t)
	err := store.Users.IncrementUsedActions(context.Background(), "missing")
	if !repositories.IsNotFound(err) {
		t.Errorf("IncrementUsedActions() error = %v, want NotFoundError", err)
	}
}

func TestCreateAttemptConflict(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)

	attempt := func() *models.ChallengeAttempt {
		return &models.ChallengeAttempt{
			ID:          uuid.NewString(),
			UserID:      "u1",
			ChallengeID: "c1",
			Outcome:     models.OutcomeSuccess,
		}
	}
	if err := store.Challenges.CreateAttempt(ctx, attempt()); err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}
	err := store.Challenges.CreateAttempt(ctx, attempt())
	if !repositories.IsConflict(err) {
		t.Fatalf("CreateAttempt() error = %v, want ConflictError", err)
	}
	if !repositories.IsUniqueViolation(errors.Unwrap(err)) {
		t.Errorf("conflict does not carry the driver error: %v", err)
	}

	exists, err := store.Challenges.AttemptExists(ctx, "u1", "c1")
	if err != nil || !exists {
		t.Errorf("AttemptExists() = %v, %v", exists, err)
	}
}

func TestCreateUseConflictPerLevel(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)

	use := func(level int) *models.AidUse {
		return &models.AidUse{ID: uuid.NewString(), UserID: "u1", AidID: "a1", Level: level, PlayerValue: 5}
	}
	if err := store.Aids.CreateUse(ctx, use(2)); err != nil {
		t.Fatal(err)
	}
	if err := store.Aids.CreateUse(ctx, use(4)); err != nil {
		t.Errorf("different level rejected: %v", err)
	}
	if err := store.Aids.CreateUse(ctx, use(2)); !repositories.IsConflict(err) {
		t.Errorf("CreateUse() error = %v, want ConflictError", err)
	}
}

func TestLedgerSums(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)

	for _, s := range []struct {
		amount int
		month  string
	}{{1, "2025-03"}, {2, "2025-03"}, {4, "2025-02"}} {
		err := store.Ledger.AppendFollowerSpend(ctx, &models.FollowerSpend{
			ID: uuid.NewString(), UserID: "u1", Amount: s.amount, MonthKey: s.month,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	spent, err := store.Ledger.SumFollowerSpend(ctx, "u1", "2025-03")
	if err != nil {
		t.Fatal(err)
	}
	if spent != 3 {
		t.Errorf("SumFollowerSpend() = %d, want 3", spent)
	}

	locks := []*models.ResourceLock{
		{ID: uuid.NewString(), UserID: "u1", ItemID: "i1", Amount: 5, LockedAt: march, UnlockAt: march.Add(time.Hour)},
		{ID: uuid.NewString(), UserID: "u1", ItemID: "i2", Amount: 7, LockedAt: march, UnlockAt: march},
		{ID: uuid.NewString(), UserID: "u2", ItemID: "i1", Amount: 9, LockedAt: march, UnlockAt: march.Add(time.Hour)},
	}
	for _, l := range locks {
		if err := store.Ledger.AppendLock(ctx, l); err != nil {
			t.Fatal(err)
		}
	}
	active, err := store.Ledger.SumActiveLocks(ctx, "u1", march)
	if err != nil {
		t.Fatal(err)
	}
	if active != 5 {
		t.Errorf("SumActiveLocks() = %d, want 5 (expired lock must not count)", active)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	u, err := store.Users.EnsureUser(ctx, "1003", "cleo", 20, march)
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err = store.RunInTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		if err := tx.Users.IncrementUsedActions(ctx, u.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx() error = %v", err)
	}
	got, err := store.Users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsedActions != 0 {
		t.Errorf("UsedActions = %d after rollback, want 0", got.UsedActions)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)

	for i, q := range []string{"prima", "seconda", "terza"} {
		err := store.History.Record(ctx, &models.HistoryEntry{
			ID:        uuid.NewString(),
			UserID:    "u1",
			Kind:      models.HistoryChat,
			Question:  q,
			CreatedAt: march.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	entries, err := store.History.ListByUser(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Question != "terza" || entries[1].Question != "seconda" {
		t.Errorf("ListByUser() returned %d entries in wrong order", len(entries))
	}
}
