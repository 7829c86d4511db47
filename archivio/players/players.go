// Package players resolves callers into users, applies the monthly action
// reset and assembles the per-player status views.
package players

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/aids"
	"github.com/archivio-maledetto/archivio/archivio/background"
	"github.com/archivio-maledetto/archivio/archivio/challenges"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/logger"
	"golang.org/x/sync/errgroup"
)

// Status is everything a player sees about themselves at once.
type Status struct {
	User       *models.User               `json:"user"`
	Followers  *economy.FollowerStatus    `json:"followers"`
	Resources  *economy.ResourcesOverview `json:"resources"`
	Background *models.Background         `json:"background"`
	UsedAids   []*models.AidUse           `json:"used_aids"`
	Attempts   []*models.ChallengeAttempt `json:"attempts"`
}

type Service struct {
	store      *repositories.Store
	economy    *economy.Service
	background *background.Manager
	aids       *aids.Service
	challenges *challenges.Service
	maxActions int
	now        func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultMaxActions sets the budget given to newly seen players.
func WithDefaultMaxActions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxActions = n
		}
	}
}

func NewService(
	store *repositories.Store,
	econ *economy.Service,
	bg *background.Manager,
	aidSvc *aids.Service,
	challengeSvc *challenges.Service,
	opts ...Option,
) *Service {
	s := &Service{
		store:      store,
		economy:    econ,
		background: bg,
		aids:       aidSvc,
		challenges: challengeSvc,
		maxActions: config.DefaultMaxActions,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the user behind a Discord identity, creating it on first
// contact. The monthly reset is applied before the user is returned.
func (s *Service) Resolve(ctx context.Context, discordID, username string) (*models.User, error) {
	now := s.now()
	user, err := s.store.Users.EnsureUser(ctx, discordID, username, s.maxActions, now)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	reset, err := s.store.Users.ResetMonthlyIfDue(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("monthly reset: %w", err)
	}
	if !reset {
		return user, nil
	}
	user, err = s.store.Users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return user, nil
}

// Status gathers the player's quota, balance, sheet and records concurrently.
func (s *Service) Status(ctx context.Context, user *models.User) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StatusQueryTimeout)
	defer cancel()

	st := &Status{User: user}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := s.economy.FollowerStatus(gctx, user.ID)
		if err != nil {
			return err
		}
		st.Followers = f
		return nil
	})
	g.Go(func() error {
		r, err := s.economy.Resources(gctx, user.ID)
		if err != nil {
			return err
		}
		st.Resources = r
		return nil
	})
	g.Go(func() error {
		bg, err := s.background.Get(gctx, user.ID)
		if err != nil {
			return err
		}
		st.Background = bg
		return nil
	})
	g.Go(func() error {
		uses, err := s.aids.ListUsed(gctx, user.ID)
		if err != nil {
			return err
		}
		st.UsedAids = uses
		return nil
	})
	g.Go(func() error {
		attempts, err := s.challenges.ListAttempts(gctx, user.ID)
		if err != nil {
			return err
		}
		st.Attempts = attempts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("player status: %w", err)
	}
	return st, nil
}

// List returns every known user.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	user, err := s.store.Users.GetByDiscordID(ctx, discordID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, gameerr.NotFound("Utente")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) SetMaxActions(ctx context.Context, userID string, maxActions int) error {
	if maxActions < 0 {
		return gameerr.Validation("Il numero massimo di azioni non può essere negativo")
	}
	if err := s.store.Users.SetMaxActions(ctx, userID, maxActions); err != nil {
		return userErr(err, "set max actions")
	}
	logger.LogGame("Max actions changed", "user_id", userID, "max_actions", maxActions)
	return nil
}

func (s *Service) SetRole(ctx context.Context, userID, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != models.RolePlayer && role != models.RoleAdmin {
		return gameerr.Validation("Ruolo non valido: usa %q o %q", models.RolePlayer, models.RoleAdmin)
	}
	if err := s.store.Users.SetRole(ctx, userID, role); err != nil {
		return userErr(err, "set role")
	}
	logger.LogGame("Role changed", "user_id", userID, "role", role)
	return nil
}

// ResetActions zeroes the player's used actions for the current month.
func (s *Service) ResetActions(ctx context.Context, userID string) error {
	if err := s.store.Users.ResetActions(ctx, userID, s.now()); err != nil {
		return userErr(err, "reset actions")
	}
	logger.LogGame("Actions reset", "user_id", userID)
	return nil
}

// Promote grants the admin role to a Discord identity, creating the user if
// it was never seen.
func (s *Service) Promote(ctx context.Context, discordID, username string) (*models.User, error) {
	user, err := s.Resolve(ctx, discordID, username)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	if err := s.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return nil, err
	}
	user.Role = models.RoleAdmin
	return user, nil
}

func userErr(err error, op string) error {
	if repositories.IsNotFound(err) {
		return gameerr.NotFound("Utente")
	}
	return fmt.Errorf("%s: %w", op, err)
}
