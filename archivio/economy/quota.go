package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
)

// Quota is a player's action budget at one instant.
type Quota struct {
	MonthKey       string
	MaxActions     int
	Seguaci        int
	FollowersSpent int
	Used           int
}

func (q Quota) EffectiveMax() int {
	return EffectiveMaxActions(q.MaxActions, q.Seguaci, q.FollowersSpent)
}

// Remaining is the number of actions left before the next one.
func (q Quota) Remaining() int {
	return max(0, q.EffectiveMax()-q.Used)
}

// AvailableFollowers is the SEGUACI not yet committed this month.
func (q Quota) AvailableFollowers() int {
	return max(0, q.Seguaci-q.FollowersSpent)
}

// Check fails with QuotaExceeded when no action is left.
func (q Quota) Check() error {
	if q.Used >= q.EffectiveMax() {
		return gameerr.New(gameerr.KindQuotaExceeded,
			"%s (%d/%d)", gameerr.ErrQuotaExceeded.Message, q.Used, q.EffectiveMax())
	}
	return nil
}

// LoadQuota reads the user, their SEGUACI and this month's follower spend
// through store. A player without a background has no followers.
func LoadQuota(ctx context.Context, store *repositories.Store, userID string, now time.Time) (Quota, error) {
	return loadQuota(ctx, store, userID, now, false)
}

// RequireAction loads the quota with the user and background rows locked and
// fails with QuotaExceeded when the player has no action left. Inside a
// transaction the locks hold until commit, so the quota check, follower
// spends and the action increment of concurrent requests never interleave.
func RequireAction(ctx context.Context, store *repositories.Store, userID string, now time.Time) (Quota, error) {
	q, err := loadQuota(ctx, store, userID, now, true)
	if err != nil {
		return Quota{}, err
	}
	if err := q.Check(); err != nil {
		return q, err
	}
	return q, nil
}

func loadQuota(ctx context.Context, store *repositories.Store, userID string, now time.Time, lock bool) (Quota, error) {
	getUser, getBackground := store.Users.GetByID, store.Backgrounds.Get
	if lock {
		getUser, getBackground = store.Users.GetForUpdate, store.Backgrounds.GetForUpdate
	}

	user, err := getUser(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return Quota{}, gameerr.NotFound("Utente")
		}
		return Quota{}, fmt.Errorf("load user: %w", err)
	}

	q := Quota{
		MonthKey:   MonthKey(now),
		MaxActions: user.MaxActions,
		Used:       user.UsedActions,
	}

	bg, err := getBackground(ctx, userID)
	switch {
	case err == nil:
		q.Seguaci = bg.Seguaci
	case repositories.IsNotFound(err):
	default:
		return Quota{}, fmt.Errorf("load background: %w", err)
	}

	q.FollowersSpent, err = store.Ledger.SumFollowerSpend(ctx, userID, q.MonthKey)
	if err != nil {
		return Quota{}, fmt.Errorf("sum follower spend: %w", err)
	}
	return q, nil
}

// ConsumeAction charges one action. Call it only once the protected action
// has fully succeeded.
func ConsumeAction(ctx context.Context, store *repositories.Store, userID string) error {
	if err := store.Users.IncrementUsedActions(ctx, userID); err != nil {
		return fmt.Errorf("consume action: %w", err)
	}
	return nil
}
