// Package background manages the per-player resource sheet. A player may
// submit their sheet once; the first accepted submission locks it and from
// then on only admins can change it.
package background

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/logger"
)

const (
	MaxRisorse      = 20
	MaxSeguaci      = 5
	MaxContactValue = 5
	MaxContactsSum  = 20
)

// Sheet is the editable part of a background.
type Sheet struct {
	Risorse   int              `json:"risorse"`
	Seguaci   int              `json:"seguaci"`
	Rifugio   int              `json:"rifugio"`
	Mentor    int              `json:"mentor"`
	Notoriety int              `json:"notoriety"`
	Contacts  []models.Contact `json:"contacts"`
}

// Defaults returns the background of a player who never submitted one.
func Defaults(userID string) *models.Background {
	return &models.Background{
		UserID:   userID,
		Rifugio:  config.MinAttribute,
		Contacts: []models.Contact{},
	}
}

// Validate checks every range and the contacts budget.
func (s Sheet) Validate() error {
	fields := []struct {
		name     string
		value    int
		min, max int
	}{
		{"RISORSE", s.Risorse, 0, MaxRisorse},
		{"SEGUACI", s.Seguaci, 0, MaxSeguaci},
		{"RIFUGIO", s.Rifugio, config.MinAttribute, config.MaxAttribute},
		{"MENTORE", s.Mentor, 0, config.MaxAttribute},
		{"NOTORIETÀ", s.Notoriety, 0, config.MaxAttribute},
	}
	for _, f := range fields {
		if f.value < f.min || f.value > f.max {
			return gameerr.Validation("%s deve essere tra %d e %d", f.name, f.min, f.max)
		}
	}

	total := 0
	for i, c := range s.Contacts {
		if strings.TrimSpace(c.Name) == "" {
			return gameerr.Validation("Il contatto %d non ha un nome", i+1)
		}
		if c.Value < 1 || c.Value > MaxContactValue {
			return gameerr.Validation("Il valore del contatto %q deve essere tra 1 e %d", c.Name, MaxContactValue)
		}
		total += c.Value
	}
	if total > MaxContactsSum {
		return gameerr.Validation("La somma dei contatti (%d) supera il massimo di %d", total, MaxContactsSum)
	}
	return nil
}

func (s Sheet) apply(bg *models.Background) {
	bg.Risorse = s.Risorse
	bg.Seguaci = s.Seguaci
	bg.Rifugio = s.Rifugio
	bg.Mentor = s.Mentor
	bg.Notoriety = s.Notoriety
	bg.Contacts = make([]models.Contact, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		bg.Contacts = append(bg.Contacts, models.Contact{Name: strings.TrimSpace(c.Name), Value: c.Value})
	}
}

type Manager struct {
	store *repositories.Store
	now   func() time.Time
}

func NewManager(store *repositories.Store) *Manager {
	return &Manager{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the player's background, creating the default one on first read.
func (m *Manager) Get(ctx context.Context, userID string) (*models.Background, error) {
	bg, err := m.store.Backgrounds.Get(ctx, userID)
	if err == nil {
		return bg, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("load background: %w", err)
	}

	if err := m.store.Backgrounds.CreateIfMissing(ctx, Defaults(userID)); err != nil {
		return nil, fmt.Errorf("create background: %w", err)
	}
	bg, err = m.store.Backgrounds.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load background: %w", err)
	}
	return bg, nil
}

// Submit stores a player's own sheet and locks it. A locked sheet is
// rejected with Forbidden, even when the payload is unchanged.
func (m *Manager) Submit(ctx context.Context, userID string, sheet Sheet) (*models.Background, error) {
	var saved *models.Background
	err := m.store.RunInTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		if err := tx.Backgrounds.CreateIfMissing(ctx, Defaults(userID)); err != nil {
			return fmt.Errorf("create background: %w", err)
		}
		bg, err := tx.Backgrounds.GetForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock background: %w", err)
		}
		if bg.LockedForPlayer {
			return gameerr.New(gameerr.KindForbidden,
				"Il tuo background è già stato confermato. Solo la Narrazione può modificarlo")
		}
		if err := sheet.Validate(); err != nil {
			return err
		}

		sheet.apply(bg)
		bg.LockedForPlayer = true
		if err := tx.Backgrounds.Upsert(ctx, bg); err != nil {
			return fmt.Errorf("save background: %w", err)
		}
		saved = bg
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogGame("Background submitted", "user_id", userID)
	return saved, nil
}

// AdminSubmit overwrites a sheet without checking the lock or the ranges.
// The stored sheet ends up locked for the player.
func (m *Manager) AdminSubmit(ctx context.Context, userID string, sheet Sheet) (*models.Background, error) {
	bg, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sheet.apply(bg)
	bg.LockedForPlayer = true
	if err := m.store.Backgrounds.Upsert(ctx, bg); err != nil {
		return nil, fmt.Errorf("save background: %w", err)
	}
	logger.LogGame("Background overridden by admin", "user_id", userID)
	return bg, nil
}

// Unlock lets the player submit their sheet once more.
func (m *Manager) Unlock(ctx context.Context, userID string) error {
	if _, err := m.Get(ctx, userID); err != nil {
		return err
	}
	if err := m.store.Backgrounds.SetLocked(ctx, userID, false); err != nil {
		return fmt.Errorf("unlock background: %w", err)
	}
	logger.LogGame("Background unlocked", "user_id", userID)
	return nil
}
