// Package aids resolves time-windowed perks ("focalizzazioni"). Each level
// of an aid can be used at most once per player.
package aids

import (
	"context"
	"fmt"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/catalog"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/logger"
	"github.com/archivio-maledetto/archivio/archivio/timewindow"
	"github.com/google/uuid"
)

// MinimumAttributeForLevel is the attribute a player needs to use a level.
// A level's number doubles as its threshold: level N requires attribute >= N.
func MinimumAttributeForLevel(level int) int {
	return level
}

// DefaultLevels are the tiers offered when an admin authors a new aid.
func DefaultLevels(attribute string) []models.AidLevel {
	return []models.AidLevel{
		{Level: 2, LevelName: "minore", Text: fmt.Sprintf("Ottieni un bonus minore di %s per questa prova", attribute)},
		{Level: 4, LevelName: "medio", Text: fmt.Sprintf("Ottieni un bonus medio di %s per questa prova", attribute)},
		{Level: 5, LevelName: "maggiore", Text: fmt.Sprintf("Ottieni un bonus maggiore di %s per questa prova", attribute)},
	}
}

// Result is what a player receives after using an aid.
type Result struct {
	AidID       string `json:"aid_id"`
	AidName     string `json:"aid_name"`
	Attribute   string `json:"attribute"`
	Level       int    `json:"level"`
	LevelName   string `json:"level_name"`
	Text        string `json:"text"`
	PlayerValue int    `json:"player_value"`
	Message     string `json:"message"`
}

type Service struct {
	store   *repositories.Store
	catalog *catalog.Catalog
	loc     *time.Location
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone aid dates and times are authored in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(store *repositories.Store, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: cat,
		loc:     time.UTC,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsActive reports whether the aid's window contains now.
func (s *Service) IsActive(aid *models.Aid, now time.Time) bool {
	return timewindow.IsActive(aid.EventDate, aid.EndDate, aid.StartTime, aid.EndTime, now.In(s.loc))
}

// Use spends one action to obtain the text of an aid level. Failures are
// reported in a fixed order: quota, unknown aid, closed window, level
// already used, attribute too low, unknown level.
func (s *Service) Use(ctx context.Context, userID, aidID string, level, playerValue int) (*Result, error) {
	now := s.now()

	// The definition is read outside the transaction; its error is reported
	// after the quota check.
	aid, lookupErr := s.catalog.Aid(ctx, aidID)

	var result *Result
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		if _, err := economy.RequireAction(ctx, tx, userID, now); err != nil {
			return err
		}

		if lookupErr != nil {
			if repositories.IsNotFound(lookupErr) {
				return gameerr.NotFound("Aiuto")
			}
			return fmt.Errorf("load aid: %w", lookupErr)
		}

		if !s.IsActive(aid, now) {
			return gameerr.ErrWindowClosed
		}

		used, err := tx.Aids.UseExists(ctx, userID, aid.ID, level)
		if err != nil {
			return fmt.Errorf("check aid use: %w", err)
		}
		if used {
			return gameerr.ErrAlreadyUsed
		}

		if need := MinimumAttributeForLevel(level); playerValue < need {
			return gameerr.New(gameerr.KindAttributeTooLow,
				"Il tuo valore (%d) è insufficiente per questo livello (%d)", playerValue, need)
		}

		lvl, ok := aid.Level(level)
		if !ok {
			return gameerr.NotFound("Livello")
		}

		use := &models.AidUse{
			ID:          uuid.NewString(),
			UserID:      userID,
			AidID:       aid.ID,
			AidName:     aid.Name,
			Level:       lvl.Level,
			LevelName:   lvl.LevelName,
			PlayerValue: playerValue,
			CreatedAt:   now,
		}
		if err := tx.Aids.CreateUse(ctx, use); err != nil {
			if repositories.IsConflict(err) {
				return gameerr.Wrap(gameerr.KindAlreadyUsed, err, "%s", gameerr.ErrAlreadyUsed.Message)
			}
			return fmt.Errorf("record aid use: %w", err)
		}

		result = &Result{
			AidID:       aid.ID,
			AidName:     aid.Name,
			Attribute:   aid.Attribute,
			Level:       lvl.Level,
			LevelName:   lvl.LevelName,
			Text:        lvl.Text,
			PlayerValue: playerValue,
		}
		result.Message = fmt.Sprintf("Hai ottenuto %s (%s) su %s: %s",
			aid.Name, lvl.LevelName, aid.Attribute, lvl.Text)

		entry := &models.HistoryEntry{
			ID:       uuid.NewString(),
			UserID:   userID,
			Kind:     models.HistoryAid,
			Question: fmt.Sprintf("[AIUTO] %s - %s (livello %d, valore %d)", aid.Name, lvl.LevelName, lvl.Level, playerValue),
			Answer:   result.Message,
			Payload: map[string]any{
				"aid_id":       aid.ID,
				"aid_name":     aid.Name,
				"attribute":    aid.Attribute,
				"level":        lvl.Level,
				"level_name":   lvl.LevelName,
				"text":         lvl.Text,
				"player_value": playerValue,
			},
			CreatedAt: now,
		}
		if err := tx.History.Record(ctx, entry); err != nil {
			return fmt.Errorf("record history: %w", err)
		}

		return economy.ConsumeAction(ctx, tx, userID)
	})
	if err != nil {
		return nil, err
	}

	logger.LogGame("Aid used",
		"user_id", userID,
		"aid", result.AidName,
		"level", result.Level,
		"player_value", playerValue)
	return result, nil
}

// ListActive returns the aids whose window contains the current time.
func (s *Service) ListActive(ctx context.Context) ([]*models.Aid, error) {
	now := s.now()
	all, err := s.catalog.Aids(ctx)
	if err != nil {
		return nil, fmt.Errorf("list aids: %w", err)
	}
	active := make([]*models.Aid, 0, len(all))
	for _, a := range all {
		if s.IsActive(a, now) {
			active = append(active, a)
		}
	}
	return active, nil
}

// ListUsed returns the player's aid uses, newest first.
func (s *Service) ListUsed(ctx context.Context, userID string) ([]*models.AidUse, error) {
	uses, err := s.store.Aids.ListUsesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list aid uses: %w", err)
	}
	return uses, nil
}
