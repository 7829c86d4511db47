package aids

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/catalog"
	"github.com/archivio-maledetto/archivio/archivio/database/dbtest"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
)

var (
	inWindow  = time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)
	outWindow = time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)
)

type fixture struct {
	store  *repositories.Store
	svc    *Service
	userID string
	aidID  string
	now    time.Time
}

func newFixture(t *testing.T, maxActions int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := dbtest.NewStore(t)
	cat, err := catalog.New(store, 16)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{store: store, now: inWindow}
	f.svc = NewService(store, cat, WithClock(func() time.Time { return f.now }))

	user, err := store.Users.EnsureUser(ctx, "77", "dario", maxActions, inWindow)
	if err != nil {
		t.Fatal(err)
	}
	f.userID = user.ID

	aid, err := f.svc.Create(ctx, Input{
		Name:      "Occhio del Corvo",
		Attribute: "Intelligenza",
		EventDate: "2025-03-14",
		StartTime: "18:00",
		EndTime:   "22:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	f.aidID = aid.ID
	return f
}

func (f *fixture) used(t *testing.T) int {
	t.Helper()
	u, err := f.store.Users.GetByID(context.Background(), f.userID)
	if err != nil {
		t.Fatal(err)
	}
	return u.UsedActions
}

func TestUse(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	res, err := f.svc.Use(ctx, f.userID, f.aidID, 4, 5)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if res.AidName != "Occhio del Corvo" || res.Level != 4 || res.LevelName != "medio" || res.Attribute != "Intelligenza" {
		t.Errorf("Use() = %+v", res)
	}
	if res.Text == "" || res.Message == "" {
		t.Error("Use() returned empty text")
	}
	if got := f.used(t); got != 1 {
		t.Errorf("used_actions = %d, want 1", got)
	}

	history, err := f.store.History.ListByUser(ctx, f.userID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Kind != "aid" {
		t.Errorf("history = %d entries", len(history))
	}
}

func TestUseErrorOrder(t *testing.T) {
	tests := []struct {
		name        string
		now         time.Time
		aidID       string
		level       int
		playerValue int
		setup       func(t *testing.T, f *fixture)
		want        error
	}{
		{
			name:        "window closed wins over low attribute",
			now:         outWindow,
			level:       5,
			playerValue: 1,
			want:        gameerr.ErrWindowClosed,
		},
		{
			name:        "low attribute in open window",
			now:         inWindow,
			level:       5,
			playerValue: 4,
			want:        gameerr.ErrAttributeTooLow,
		},
		{
			name:        "unknown aid",
			now:         outWindow,
			aidID:       "missing",
			level:       2,
			playerValue: 5,
			want:        gameerr.ErrNotFound,
		},
		{
			name:        "unknown level",
			now:         inWindow,
			level:       3,
			playerValue: 5,
			want:        gameerr.ErrNotFound,
		},
		{
			name:        "already used wins over low attribute",
			now:         inWindow,
			level:       2,
			playerValue: 1,
			setup: func(t *testing.T, f *fixture) {
				if _, err := f.svc.Use(context.Background(), f.userID, f.aidID, 2, 5); err != nil {
					t.Fatal(err)
				}
			},
			want: gameerr.ErrAlreadyUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 20)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			before := f.used(t)

			f.now = tt.now
			aidID := f.aidID
			if tt.aidID != "" {
				aidID = tt.aidID
			}
			_, err := f.svc.Use(context.Background(), f.userID, aidID, tt.level, tt.playerValue)
			if !errors.Is(err, tt.want) {
				t.Errorf("Use() error = %v, want %v", err, tt.want)
			}
			if got := f.used(t); got != before {
				t.Errorf("failed use charged an action: %d -> %d", before, got)
			}
		})
	}
}

func TestUseQuotaCheckedFirst(t *testing.T) {
	f := newFixture(t, 0)
	f.now = outWindow
	_, err := f.svc.Use(context.Background(), f.userID, "missing", 5, 0)
	if !errors.Is(err, gameerr.ErrQuotaExceeded) {
		t.Errorf("Use() error = %v, want QuotaExceeded", err)
	}
}

func TestListActive(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, Input{
		Name:      "Veglia",
		Attribute: "Percezione",
		EventDate: "2025-03-14",
		EndDate:   "2025-03-15",
		StartTime: "23:00",
		EndTime:   "01:00",
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		now  time.Time
		want []string
	}{
		{inWindow, []string{"Occhio del Corvo"}},
		{time.Date(2025, 3, 15, 0, 30, 0, 0, time.UTC), []string{"Veglia"}},
		{time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC), nil},
	}
	for _, tt := range tests {
		f.now = tt.now
		active, err := f.svc.ListActive(ctx)
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, a := range active {
			names = append(names, a.Name)
		}
		if len(names) != len(tt.want) || (len(names) > 0 && names[0] != tt.want[0]) {
			t.Errorf("ListActive(%v) = %v, want %v", tt.now, names, tt.want)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, 20)
	base := Input{Name: "X", Attribute: "Forza", EventDate: "2025-03-14", StartTime: "10:00", EndTime: "11:00"}

	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"missing name", func(in *Input) { in.Name = " " }},
		{"missing attribute", func(in *Input) { in.Attribute = "" }},
		{"bad date", func(in *Input) { in.EventDate = "14/03/2025" }},
		{"end before start date", func(in *Input) { in.EndDate = "2025-03-13" }},
		{"bad time", func(in *Input) { in.EndTime = "25:00" }},
		{"duplicate level", func(in *Input) { in.Levels = DefaultLevels("Forza")[:1]; in.Levels = append(in.Levels, in.Levels[0]) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, gameerr.ErrValidation) {
				t.Errorf("Create() error = %v, want Validation", err)
			}
		})
	}
}

func TestDeleteKeepsUses(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	if _, err := f.svc.Use(ctx, f.userID, f.aidID, 2, 3); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Delete(ctx, f.aidID); err != nil {
		t.Fatal(err)
	}
	uses, err := f.svc.ListUsed(ctx, f.userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(uses) != 1 || uses[0].AidName != "Occhio del Corvo" {
		t.Errorf("ListUsed() after delete = %d uses", len(uses))
	}
	if _, err := f.svc.Use(ctx, f.userID, f.aidID, 4, 5); !errors.Is(err, gameerr.ErrNotFound) {
		t.Errorf("Use() on deleted aid error = %v, want NotFound", err)
	}
}

func TestUpdateReopensWindow(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	f.now = outWindow

	if _, err := f.svc.Use(ctx, f.userID, f.aidID, 2, 3); !errors.Is(err, gameerr.ErrWindowClosed) {
		t.Fatalf("Use() before update error = %v, want WindowClosed", err)
	}

	updated, err := f.svc.Update(ctx, f.aidID, Input{
		Name:      "Occhio del Corvo",
		Attribute: "Intelligenza",
		EventDate: "2025-03-14",
		StartTime: "18:00",
		EndTime:   "01:00",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(updated.Levels) != 3 {
		t.Errorf("Update() levels = %d, want default tiers", len(updated.Levels))
	}
	if _, err := f.svc.Use(ctx, f.userID, f.aidID, 2, 3); err != nil {
		t.Errorf("Use() after update error = %v", err)
	}

	if _, err := f.svc.Update(ctx, "missing", Input{Name: "X", Attribute: "Y", EventDate: "2025-03-14", StartTime: "10:00", EndTime: "11:00"}); !errors.Is(err, gameerr.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want NotFound", err)
	}
}

type countingUsers struct {
	repositories.UserRepository
	locks *int
}

func (r countingUsers) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	*r.locks++
	return r.UserRepository.GetForUpdate(ctx, id)
}

func TestUseLocksQuotaRow(t *testing.T) {
	f := newFixture(t, 20)
	locks := 0
	f.store.OnTx(func(tx *repositories.Store) {
		tx.Users = countingUsers{UserRepository: tx.Users, locks: &locks}
	})

	if _, err := f.svc.Use(context.Background(), f.userID, f.aidID, 2, 3); err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if locks != 1 {
		t.Errorf("user row locks = %d, want 1", locks)
	}
}

func TestMinimumAttributeForLevel(t *testing.T) {
	for _, l := range DefaultLevels("Forza") {
		if MinimumAttributeForLevel(l.Level) != l.Level {
			t.Errorf("level %d threshold = %d", l.Level, MinimumAttributeForLevel(l.Level))
		}
	}
}
