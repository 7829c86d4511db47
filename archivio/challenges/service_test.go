package challenges

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/catalog"
	"github.com/archivio-maledetto/archivio/archivio/database/dbtest"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/dice"
	"github.com/archivio-maledetto/archivio/archivio/dice/mock"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

type fixture struct {
	store       *repositories.Store
	svc         *Service
	userID      string
	challengeID string
}

func newFixture(t *testing.T, roller dice.Roller, maxActions int, bg *models.Background) *fixture {
	t.Helper()
	ctx := context.Background()
	store := dbtest.NewStore(t)
	cat, err := catalog.New(store, 16)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{store: store}
	f.svc = NewService(store, cat, roller, WithClock(func() time.Time { return fixedNow }))

	user, err := store.Users.EnsureUser(ctx, "42", "bianca", maxActions, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	f.userID = user.ID

	if bg != nil {
		bg.UserID = user.ID
		if err := store.Backgrounds.Upsert(ctx, bg); err != nil {
			t.Fatal(err)
		}
	}

	ch, err := f.svc.Create(ctx, Input{
		Name:        "Il Portone della Cripta",
		Description: "Un portone di ferro sbarra la discesa.",
		Tests: []models.ContrastingTest{
			{Attribute: "Forza", Difficulty: 8, SuccessText: "Il portone cede.", TieText: "Scricchiola.", FailureText: "Resiste."},
			{Attribute: "Destrezza", Difficulty: 4, SuccessText: "Scivoli oltre.", TieText: "Quasi.", FailureText: "Ti incastri."},
		},
		Keywords:           []string{"cripta", "Porta", " cripta "},
		AllowRefugeDefense: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.challengeID = ch.ID
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

func TestAttemptDeterministicSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	roller := mock.NewMockRoller(ctrl)
	gomock.InOrder(
		roller.EXPECT().Roll(dice.ChallengeSides).Return(3),
		roller.EXPECT().Roll(dice.ChallengeSides).Return(2),
	)

	f := newFixture(t, roller, 20, &models.Background{Rifugio: 3})
	ctx := context.Background()

	res, err := f.svc.Attempt(ctx, AttemptRequest{
		UserID:      f.userID,
		ChallengeID: f.challengeID,
		TestIndex:   0,
		PlayerValue: 5,
		UseRefuge:   true,
	})
	if err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}

	a := res.Attempt
	if a.PlayerResult != 15 || a.DifficultyResult != 14 || a.RefugeBonus != 1 || a.Outcome != models.OutcomeSuccess {
		t.Errorf("Attempt() = %+v", a)
	}
	if a.Difficulty != 8 {
		t.Errorf("stored difficulty = %d, want authored 8", a.Difficulty)
	}
	if want := "(5×3) 15 vs (7×2) 14: Il portone cede."; res.Message != want {
		t.Errorf("Message = %q, want %q", res.Message, want)
	}
	if res.Label != "Successo!" {
		t.Errorf("Label = %q", res.Label)
	}
	if got := f.used(t); got != 1 {
		t.Errorf("used_actions = %d, want 1", got)
	}

	history, err := f.store.History.ListByUser(ctx, f.userID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Kind != models.HistoryChallenge || history[0].Answer != res.Message {
		t.Errorf("history = %+v", history)
	}
}

func TestAttemptRefugeIgnoredWhenOptedOut(t *testing.T) {
	f := newFixture(t, dice.NewFixed(3, 2), 20, &models.Background{Rifugio: 5})

	res, err := f.svc.Attempt(context.Background(), AttemptRequest{
		UserID:      f.userID,
		ChallengeID: f.challengeID,
		PlayerValue: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Attempt.RefugeBonus != 0 || res.Attempt.DifficultyResult != 16 {
		t.Errorf("Attempt() = %+v", res.Attempt)
	}
}

func TestAttemptExactlyOnce(t *testing.T) {
	f := newFixture(t, dice.NewFixed(3, 2), 20, nil)
	ctx := context.Background()

	const workers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Attempt(ctx, AttemptRequest{
				UserID:      f.userID,
				ChallengeID: f.challengeID,
				TestIndex:   1,
				PlayerValue: 3,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, gameerr.ErrAlreadyAttempted):
				dupes++
			default:
				t.Errorf("Attempt() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || dupes != workers-1 {
		t.Errorf("successes = %d, duplicates = %d", successes, dupes)
	}
	if got := f.used(t); got != 1 {
		t.Errorf("used_actions = %d, want exactly 1", got)
	}
	attempts, err := f.svc.ListAttempts(ctx, f.userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(attempts))
	}
}

func TestAttemptErrorOrder(t *testing.T) {
	tests := []struct {
		name       string
		maxActions int
		setup      func(t *testing.T, f *fixture)
		req        func(f *fixture) AttemptRequest
		want       error
	}{
		{
			name:       "already attempted wins over quota",
			maxActions: 1,
			setup: func(t *testing.T, f *fixture) {
				if _, err := f.svc.Attempt(context.Background(), AttemptRequest{UserID: f.userID, ChallengeID: f.challengeID, PlayerValue: 3}); err != nil {
					t.Fatal(err)
				}
			},
			req: func(f *fixture) AttemptRequest {
				return AttemptRequest{UserID: f.userID, ChallengeID: f.challengeID, PlayerValue: 3}
			},
			want: gameerr.ErrAlreadyAttempted,
		},
		{
			name:       "already attempted wins over value out of range",
			maxActions: 20,
			setup: func(t *testing.T, f *fixture) {
				if _, err := f.svc.Attempt(context.Background(), AttemptRequest{UserID: f.userID, ChallengeID: f.challengeID, PlayerValue: 3}); err != nil {
					t.Fatal(err)
				}
			},
			req: func(f *fixture) AttemptRequest {
				return AttemptRequest{UserID: f.userID, ChallengeID: f.challengeID, PlayerValue: 25}
			},
			want: gameerr.ErrAlreadyAttempted,
		},
		{
			name:       "quota wins over unknown challenge",
			maxActions: 0,
			req: func(f *fixture) AttemptRequest {
				return AttemptRequest{UserID: f.userID, ChallengeID: "missing", PlayerValue: 3}
			},
			want: gameerr.ErrQuotaExceeded,
		},
		{
			name:       "unknown challenge",
			maxActions: 20,
			req: func(f *fixture) AttemptRequest {
				return AttemptRequest{UserID: f.userID, ChallengeID: "missing", TestIndex: 7, PlayerValue: 3}
			},
			want: gameerr.ErrNotFound,
		},
		{
			name:       "index past the end",
			maxActions: 20,
			req: func(f *fixture) AttemptRequest {
				return AttemptRequest{UserID: f.userID, ChallengeID: f.challengeID, TestIndex: 2, PlayerValue: 3}
			},
			want: gameerr.ErrInvalidIndex,
		},
		{
			name:       "negative index",
			maxActions: 20,
			req: func(f *fixture) AttemptRequest {
				return AttemptRequest{UserID: f.userID, ChallengeID: f.challengeID, TestIndex: -1, PlayerValue: 3}
			},
			want: gameerr.ErrInvalidIndex,
		},
		{
			name:       "player value out of range",
			maxActions: 20,
			req: func(f *fixture) AttemptRequest {
				return AttemptRequest{UserID: f.userID, ChallengeID: f.challengeID, PlayerValue: 21}
			},
			want: gameerr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, dice.NewFixed(3, 3), tt.maxActions, nil)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			before := f.used(t)

			_, err := f.svc.Attempt(context.Background(), tt.req(f))
			if !errors.Is(err, tt.want) {
				t.Errorf("Attempt() error = %v, want %v", err, tt.want)
			}
			if got := f.used(t); got != before {
				t.Errorf("failed attempt charged an action: %d -> %d", before, got)
			}
		})
	}
}

func TestAttemptFollowers(t *testing.T) {
	tests := []struct {
		name          string
		maxActions    int
		seguaci       int
		requested     int
		wantFollowers int
	}{
		{"capped by seguaci", 20, 2, 5, 2},
		{"capped by remaining minus one", 0, 3, 3, 2},
		{"single action left", 0, 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, dice.NewFixed(1, 1), tt.maxActions, &models.Background{Rifugio: 1, Seguaci: tt.seguaci})
			ctx := context.Background()

			res, err := f.svc.Attempt(ctx, AttemptRequest{
				UserID:             f.userID,
				ChallengeID:        f.challengeID,
				PlayerValue:        2,
				FollowersRequested: tt.requested,
			})
			if err != nil {
				t.Fatalf("Attempt() error = %v", err)
			}
			if res.Attempt.FollowersUsed != tt.wantFollowers {
				t.Errorf("FollowersUsed = %d, want %d", res.Attempt.FollowersUsed, tt.wantFollowers)
			}
			if res.Attempt.DifficultyResult != 8-tt.wantFollowers {
				t.Errorf("DifficultyResult = %d", res.Attempt.DifficultyResult)
			}

			spent, err := f.store.Ledger.SumFollowerSpend(ctx, f.userID, "2025-03")
			if err != nil {
				t.Fatal(err)
			}
			if spent != tt.wantFollowers {
				t.Errorf("follower spend = %d, want %d", spent, tt.wantFollowers)
			}

			effective := tt.maxActions + tt.seguaci - spent
			if remaining := effective - f.used(t); remaining < 0 {
				t.Errorf("remaining quota went negative: %d", remaining)
			}
		})
	}
}

type lockedUsers struct {
	repositories.UserRepository
	mu    *sync.Mutex
	locks *int
}

func (r lockedUsers) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	*r.locks++
	r.mu.Unlock()
	return r.UserRepository.GetForUpdate(ctx, id)
}

type lockedBackgrounds struct {
	repositories.BackgroundRepository
	mu    *sync.Mutex
	locks *int
}

func (r lockedBackgrounds) GetForUpdate(ctx context.Context, userID string) (*models.Background, error) {
	r.mu.Lock()
	*r.locks++
	r.mu.Unlock()
	return r.BackgroundRepository.GetForUpdate(ctx, userID)
}

func TestAttemptLocksQuotaRows(t *testing.T) {
	f := newFixture(t, dice.NewFixed(1, 1), 20, &models.Background{Rifugio: 1, Seguaci: 3})

	var (
		mu                 sync.Mutex
		userLocks, bgLocks int
	)
	f.store.OnTx(func(tx *repositories.Store) {
		tx.Users = lockedUsers{UserRepository: tx.Users, mu: &mu, locks: &userLocks}
		tx.Backgrounds = lockedBackgrounds{BackgroundRepository: tx.Backgrounds, mu: &mu, locks: &bgLocks}
	})

	if _, err := f.svc.Attempt(context.Background(), AttemptRequest{
		UserID:             f.userID,
		ChallengeID:        f.challengeID,
		PlayerValue:        2,
		FollowersRequested: 3,
	}); err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}
	if userLocks != 1 || bgLocks != 1 {
		t.Errorf("row locks taken: user %d, background %d; want 1 each", userLocks, bgLocks)
	}
}

func TestConcurrentAttemptsShareFollowers(t *testing.T) {
	f := newFixture(t, dice.NewFixed(1, 1), 20, &models.Background{Rifugio: 1, Seguaci: 3})
	ctx := context.Background()

	second, err := f.svc.Create(ctx, Input{
		Name:  "La Torre del Campanaro",
		Tests: []models.ContrastingTest{{Attribute: "Agilità", Difficulty: 6}},
	})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for _, id := range []string{f.challengeID, second.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Attempt(ctx, AttemptRequest{
				UserID:             f.userID,
				ChallengeID:        id,
				PlayerValue:        2,
				FollowersRequested: 3,
			}); err != nil {
				t.Errorf("Attempt(%s) error = %v", id, err)
			}
		}()
	}
	wg.Wait()

	spent, err := f.store.Ledger.SumFollowerSpend(ctx, f.userID, "2025-03")
	if err != nil {
		t.Fatal(err)
	}
	if spent != 3 {
		t.Errorf("follower spend this month = %d, want 3 (never more than SEGUACI)", spent)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t, dice.NewFixed(1), 20, nil)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, Input{
		Name:     "La Biblioteca Sommersa",
		Tests:    []models.ContrastingTest{{Attribute: "Intelligenza", Difficulty: 5}},
		Keywords: []string{"libri", "acqua"},
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  string
	}{
		{"portone", "Il Portone della Cripta"},
		{"cripta", "Il Portone della Cripta"},
		{"acqua", "La Biblioteca Sommersa"},
		{"BIBLIO", "La Biblioteca Sommersa"},
	}
	for _, tt := range tests {
		got, err := f.svc.Search(ctx, tt.query)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 0 || got[0].Name != tt.want {
			t.Errorf("Search(%q) top = %v, want %s", tt.query, got, tt.want)
		}
	}

	all, err := f.svc.Search(ctx, "  ")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("Search(\"\") = %d results, want 2", len(all))
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, dice.NewFixed(1), 20, nil)
	valid := []models.ContrastingTest{{Attribute: "Forza", Difficulty: 3}}

	tests := []struct {
		name string
		in   Input
	}{
		{"missing name", Input{Name: " ", Tests: valid}},
		{"no tests", Input{Name: "X"}},
		{"missing attribute", Input{Name: "X", Tests: []models.ContrastingTest{{Difficulty: 3}}}},
		{"negative difficulty", Input{Name: "X", Tests: []models.ContrastingTest{{Attribute: "Forza", Difficulty: -1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(context.Background(), tt.in); !errors.Is(err, gameerr.ErrValidation) {
				t.Errorf("Create() error = %v, want Validation", err)
			}
		})
	}
}

func TestCreateNormalizesKeywords(t *testing.T) {
	f := newFixture(t, dice.NewFixed(1), 20, nil)
	ch, err := f.svc.Get(context.Background(), f.challengeID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ch.Keywords) != 2 || ch.Keywords[0] != "cripta" || ch.Keywords[1] != "porta" {
		t.Errorf("Keywords = %v", ch.Keywords)
	}
}

func TestDeleteKeepsAttempts(t *testing.T) {
	f := newFixture(t, dice.NewFixed(3, 3), 20, nil)
	ctx := context.Background()

	if _, err := f.svc.Attempt(ctx, AttemptRequest{UserID: f.userID, ChallengeID: f.challengeID, PlayerValue: 2}); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Delete(ctx, f.challengeID); err != nil {
		t.Fatal(err)
	}
	attempts, err := f.svc.ListAttempts(ctx, f.userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 || attempts[0].ChallengeName != "Il Portone della Cripta" {
		t.Errorf("attempts after delete = %+v", attempts)
	}
	if err := f.svc.Delete(ctx, f.challengeID); !errors.Is(err, gameerr.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want NotFound", err)
	}
}
