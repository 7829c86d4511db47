package challenges

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/catalog"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/dice"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/logger"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
)

// AttemptRequest is a player's declared approach to a challenge.
type AttemptRequest struct {
	UserID             string
	ChallengeID        string
	TestIndex          int
	PlayerValue        int
	UseRefuge          bool
	FollowersRequested int
}

// Result is the resolved attempt plus the rendered message.
type Result struct {
	Attempt *models.ChallengeAttempt
	Label   string
	Text    string
	Message string
}

type Service struct {
	store   *repositories.Store
	catalog *catalog.Catalog
	roller  dice.Roller
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store *repositories.Store, cat *catalog.Catalog, roller dice.Roller, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: cat,
		roller:  roller,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attempt resolves a challenge for the player and consumes one action.
// Failures are reported in order: already attempted, value out of range,
// quota, unknown challenge, invalid test index.
func (s *Service) Attempt(ctx context.Context, req AttemptRequest) (*Result, error) {
	now := s.now()

	challenge, lookupErr := s.catalog.Challenge(ctx, req.ChallengeID)

	var result *Result
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		attempted, err := tx.Challenges.AttemptExists(ctx, req.UserID, req.ChallengeID)
		if err != nil {
			return fmt.Errorf("check attempt: %w", err)
		}
		if attempted {
			return gameerr.ErrAlreadyAttempted
		}
		if req.PlayerValue < config.MinChallengeValue || req.PlayerValue > config.MaxChallengeValue {
			return gameerr.Validation("Il valore deve essere tra %d e %d",
				config.MinChallengeValue, config.MaxChallengeValue)
		}

		quota, err := economy.RequireAction(ctx, tx, req.UserID, now)
		if err != nil {
			return err
		}

		if lookupErr != nil {
			if repositories.IsNotFound(lookupErr) {
				return gameerr.NotFound("Sfida")
			}
			return fmt.Errorf("load challenge: %w", lookupErr)
		}
		if req.TestIndex < 0 || req.TestIndex >= len(challenge.Tests) {
			return gameerr.ErrInvalidIndex
		}
		test := challenge.Tests[req.TestIndex]

		refuge := 0
		if challenge.AllowRefugeDefense && req.UseRefuge {
			refuge, err = refugeBonusFor(ctx, tx, req.UserID)
			if err != nil {
				return err
			}
		}

		followers := FollowersToUse(req.FollowersRequested, quota.AvailableFollowers(), quota.Remaining())
		difficulty := EffectiveDifficulty(test.Difficulty, refuge, followers)
		roll := Contest(s.roller, test, req.PlayerValue, difficulty)

		attempt := &models.ChallengeAttempt{
			ID:               uuid.NewString(),
			UserID:           req.UserID,
			ChallengeID:      challenge.ID,
			ChallengeName:    challenge.Name,
			TestIndex:        req.TestIndex,
			Attribute:        test.Attribute,
			PlayerValue:      roll.PlayerValue,
			PlayerRoll:       roll.PlayerRoll,
			PlayerResult:     roll.PlayerResult,
			Difficulty:       test.Difficulty,
			RefugeBonus:      refuge,
			FollowersUsed:    followers,
			DifficultyRoll:   roll.DifficultyRoll,
			DifficultyResult: roll.DifficultyResult,
			Outcome:          roll.Outcome,
			CreatedAt:        now,
		}
		if err := tx.Challenges.CreateAttempt(ctx, attempt); err != nil {
			if repositories.IsConflict(err) {
				return gameerr.Wrap(gameerr.KindAlreadyAttempted, err, "%s", gameerr.ErrAlreadyAttempted.Message)
			}
			return fmt.Errorf("record attempt: %w", err)
		}

		if followers > 0 {
			spend := &models.FollowerSpend{
				ID:        uuid.NewString(),
				UserID:    req.UserID,
				Amount:    followers,
				MonthKey:  quota.MonthKey,
				Reason:    "sfida: " + challenge.Name,
				CreatedAt: now,
			}
			if err := tx.Ledger.AppendFollowerSpend(ctx, spend); err != nil {
				return fmt.Errorf("record follower spend: %w", err)
			}
		}

		result = &Result{
			Attempt: attempt,
			Label:   OutcomeLabel(roll.Outcome),
			Text:    roll.Text,
			Message: roll.Message(),
		}

		entry := &models.HistoryEntry{
			ID:       uuid.NewString(),
			UserID:   req.UserID,
			Kind:     models.HistoryChallenge,
			Question: fmt.Sprintf("[SFIDA] %s - %s (valore %d)", challenge.Name, test.Attribute, req.PlayerValue),
			Answer:   result.Message,
			Payload: map[string]any{
				"challenge_id":      challenge.ID,
				"challenge_name":    challenge.Name,
				"test_index":        req.TestIndex,
				"attribute":         test.Attribute,
				"player_value":      roll.PlayerValue,
				"player_roll":       roll.PlayerRoll,
				"player_result":     roll.PlayerResult,
				"difficulty":        test.Difficulty,
				"refuge_bonus":      refuge,
				"followers_used":    followers,
				"difficulty_roll":   roll.DifficultyRoll,
				"difficulty_result": roll.DifficultyResult,
				"outcome":           roll.Outcome,
			},
			CreatedAt: now,
		}
		if err := tx.History.Record(ctx, entry); err != nil {
			return fmt.Errorf("record history: %w", err)
		}

		return economy.ConsumeAction(ctx, tx, req.UserID)
	})
	if err != nil {
		return nil, err
	}

	logger.LogGame("Challenge attempted",
		"user_id", req.UserID,
		"challenge", result.Attempt.ChallengeName,
		"outcome", result.Attempt.Outcome,
		"refuge_bonus", result.Attempt.RefugeBonus,
		"followers_used", result.Attempt.FollowersUsed)
	return result, nil
}

func refugeBonusFor(ctx context.Context, tx *repositories.Store, userID string) (int, error) {
	bg, err := tx.Backgrounds.Get(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return RefugeBonus(1), nil
		}
		return 0, fmt.Errorf("load background: %w", err)
	}
	return RefugeBonus(bg.Rifugio), nil
}

// List returns every challenge definition.
func (s *Service) List(ctx context.Context) ([]*models.Challenge, error) {
	list, err := s.catalog.Challenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Challenge, error) {
	ch, err := s.catalog.Challenge(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, gameerr.NotFound("Sfida")
		}
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	return ch, nil
}

// searchItems implements fuzzy.Source over challenge names and keywords.
type searchItems []*models.Challenge

func (items searchItems) Len() int {
	return len(items)
}

func (items searchItems) String(i int) string {
	ch := items[i]
	if len(ch.Keywords) == 0 {
		return strings.ToLower(ch.Name)
	}
	return strings.ToLower(ch.Name + " " + strings.Join(ch.Keywords, " "))
}

// Search ranks challenges by fuzzy match on name and keywords. An empty
// query returns the full list.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Challenge, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list, nil
	}

	items := searchItems(list)
	matches := fuzzy.FindFrom(query, items)
	results := make([]*models.Challenge, 0, min(len(matches), config.MaxSearchResults))
	for _, m := range matches {
		if len(results) == config.MaxSearchResults {
			break
		}
		results = append(results, items[m.Index])
	}
	return results, nil
}

// ListAttempts returns the player's attempts, newest first.
func (s *Service) ListAttempts(ctx context.Context, userID string) ([]*models.ChallengeAttempt, error) {
	attempts, err := s.store.Challenges.ListAttemptsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// Attempted returns the ids of challenges the player already faced.
func (s *Service) Attempted(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := s.store.Challenges.AttemptedChallengeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempted challenges: %w", err)
	}
	return ids, nil
}
