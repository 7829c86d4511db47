package players_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/aids"
	"github.com/archivio-maledetto/archivio/archivio/background"
	"github.com/archivio-maledetto/archivio/archivio/catalog"
	"github.com/archivio-maledetto/archivio/archivio/challenges"
	"github.com/archivio-maledetto/archivio/archivio/database/dbtest"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/dice"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/players"
)

type env struct {
	store *repositories.Store
	svc   *players.Service
	now   time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := dbtest.NewStore(t)
	cat, err := catalog.New(store, 16)
	if err != nil {
		t.Fatal(err)
	}

	e := &env{store: store, now: time.Date(2025, 2, 27, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return e.now }

	e.svc = players.NewService(store,
		economy.NewService(store, economy.WithClock(clock)),
		background.NewManager(store),
		aids.NewService(store, cat, aids.WithClock(clock)),
		challenges.NewService(store, cat, dice.NewFixed(1), challenges.WithClock(clock)),
		players.WithClock(clock),
		players.WithDefaultMaxActions(12),
	)
	return e
}

func TestResolveCreatesWithDefaults(t *testing.T) {
	e := newEnv(t)
	user, err := e.svc.Resolve(context.Background(), "900", "gaia")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if user.MaxActions != 12 || user.UsedActions != 0 || user.Role != models.RolePlayer {
		t.Errorf("Resolve() = %+v", user)
	}

	again, err := e.svc.Resolve(context.Background(), "900", "gaia")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != user.ID {
		t.Errorf("Resolve() created a second user: %s vs %s", again.ID, user.ID)
	}
}

func TestResolveAppliesMonthlyReset(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.svc.Resolve(ctx, "901", "ivo")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := e.store.Users.IncrementUsedActions(ctx, user.ID); err != nil {
			t.Fatal(err)
		}
	}

	e.now = time.Date(2025, 2, 28, 23, 59, 0, 0, time.UTC)
	same, err := e.svc.Resolve(ctx, "901", "ivo")
	if err != nil {
		t.Fatal(err)
	}
	if same.UsedActions != 3 {
		t.Errorf("same month used_actions = %d, want 3", same.UsedActions)
	}

	e.now = time.Date(2025, 3, 1, 0, 0, 1, 0, time.UTC)
	next, err := e.svc.Resolve(ctx, "901", "ivo")
	if err != nil {
		t.Fatal(err)
	}
	if next.UsedActions != 0 {
		t.Errorf("next month used_actions = %d, want 0", next.UsedActions)
	}
}

func TestStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.svc.Resolve(ctx, "902", "luca")
	if err != nil {
		t.Fatal(err)
	}
	st, err := e.svc.Status(ctx, user)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Followers == nil || st.Followers.EffectiveMaxActions != 12 || st.Followers.MonthKey != "2025-02" {
		t.Errorf("Followers = %+v", st.Followers)
	}
	if st.Resources == nil || st.Resources.Available != 0 {
		t.Errorf("Resources = %+v", st.Resources)
	}
	if st.Background == nil || st.Background.Rifugio != 1 || st.Background.LockedForPlayer {
		t.Errorf("Background = %+v", st.Background)
	}
	if len(st.UsedAids) != 0 || len(st.Attempts) != 0 {
		t.Errorf("expected no records, got %d uses and %d attempts", len(st.UsedAids), len(st.Attempts))
	}
}

func TestAdminOps(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.svc.Resolve(ctx, "903", "marta")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"negative max actions", func() error { return e.svc.SetMaxActions(ctx, user.ID, -1) }, gameerr.ErrValidation},
		{"unknown role", func() error { return e.svc.SetRole(ctx, user.ID, "master") }, gameerr.ErrValidation},
		{"unknown user max actions", func() error { return e.svc.SetMaxActions(ctx, "missing", 5) }, gameerr.ErrNotFound},
		{"unknown user reset", func() error { return e.svc.ResetActions(ctx, "missing") }, gameerr.ErrNotFound},
		{"valid max actions", func() error { return e.svc.SetMaxActions(ctx, user.ID, 30) }, nil},
		{"valid role with spacing", func() error { return e.svc.SetRole(ctx, user.ID, " Admin ") }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	got, err := e.svc.GetByDiscordID(ctx, "903")
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxActions != 30 || !got.IsAdmin() {
		t.Errorf("user after admin ops = %+v", got)
	}
}

func TestResetActions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.svc.Resolve(ctx, "904", "nora")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.store.Users.IncrementUsedActions(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.svc.ResetActions(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	got, err := e.store.Users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsedActions != 0 {
		t.Errorf("used_actions = %d, want 0", got.UsedActions)
	}
}

func TestPromote(t *testing.T) {
	e := newEnv(t)
	user, err := e.svc.Promote(context.Background(), "905", "orso")
	if err != nil {
		t.Fatalf("Promote() error = %v", err)
	}
	if !user.IsAdmin() {
		t.Errorf("Promote() role = %s", user.Role)
	}

	users, err := e.svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || !users[0].IsAdmin() {
		t.Errorf("List() = %+v", users)
	}
}
