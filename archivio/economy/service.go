package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/logger"
	"github.com/google/uuid"
)

// FollowerStatus summarises SEGUACI use for the current month.
type FollowerStatus struct {
	MonthKey               string `json:"month_key"`
	Seguaci                int    `json:"seguaci"`
	SpentThisMonth         int    `json:"spent_this_month"`
	AvailableFollowers     int    `json:"available_followers"`
	BaseMaxActions         int    `json:"base_max_actions"`
	EffectiveMaxActions    int    `json:"effective_max_actions"`
	UsedActions            int    `json:"used_actions"`
	RemainingActionsBefore int    `json:"remaining_actions_before"`
}

func (q Quota) Status() FollowerStatus {
	return FollowerStatus{
		MonthKey:               q.MonthKey,
		Seguaci:                q.Seguaci,
		SpentThisMonth:         q.FollowersSpent,
		AvailableFollowers:     q.AvailableFollowers(),
		BaseMaxActions:         q.MaxActions,
		EffectiveMaxActions:    q.EffectiveMax(),
		UsedActions:            q.Used,
		RemainingActionsBefore: q.Remaining(),
	}
}

// ResourcesOverview is a player's RISORSE balance plus the purchasable items.
type ResourcesOverview struct {
	Total     int                    `json:"total_resources"`
	Locked    int                    `json:"locked_resources"`
	Available int                    `json:"available_resources"`
	Locks     []*models.ResourceLock `json:"locks"`
	Items     []*models.ResourceItem `json:"items"`
}

// PurchaseResult is the lock taken by a purchase and the balance after it.
type PurchaseResult struct {
	Item     *models.ResourceItem `json:"item"`
	Lock     *models.ResourceLock `json:"lock"`
	Overview *ResourcesOverview   `json:"overview"`
}

type Service struct {
	store *repositories.Store
	now   func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store *repositories.Store, opts ...Option) *Service {
	s := &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) FollowerStatus(ctx context.Context, userID string) (*FollowerStatus, error) {
	q, err := LoadQuota(ctx, s.store, userID, s.now())
	if err != nil {
		return nil, err
	}
	st := q.Status()
	return &st, nil
}

func (s *Service) Resources(ctx context.Context, userID string) (*ResourcesOverview, error) {
	return s.overview(ctx, s.store, userID, s.now())
}

func (s *Service) overview(ctx context.Context, store *repositories.Store, userID string, now time.Time) (*ResourcesOverview, error) {
	total := 0
	bg, err := store.Backgrounds.Get(ctx, userID)
	switch {
	case err == nil:
		total = bg.Risorse
	case repositories.IsNotFound(err):
	default:
		return nil, fmt.Errorf("load background: %w", err)
	}

	locks, err := store.Ledger.ListActiveLocks(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	locked := 0
	for _, l := range locks {
		locked += l.Amount
	}

	items, err := store.Items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return &ResourcesOverview{
		Total:     total,
		Locked:    locked,
		Available: AvailableResources(total, locked),
		Locks:     locks,
		Items:     items,
	}, nil
}

// Purchase locks the item's cost from the player's RISORSE. The background
// row is locked for the whole transaction so concurrent purchases cannot
// overdraw. Existing locks are never reduced.
func (s *Service) Purchase(ctx context.Context, userID, itemID string) (*PurchaseResult, error) {
	now := s.now()
	var result *PurchaseResult

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		item, err := tx.Items.GetByID(ctx, itemID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return gameerr.NotFound("Oggetto")
			}
			return fmt.Errorf("load item: %w", err)
		}

		risorse := 0
		bg, err := tx.Backgrounds.GetForUpdate(ctx, userID)
		switch {
		case err == nil:
			risorse = bg.Risorse
		case repositories.IsNotFound(err):
		default:
			return fmt.Errorf("lock background: %w", err)
		}

		locked, err := tx.Ledger.SumActiveLocks(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("sum locks: %w", err)
		}
		available := AvailableResources(risorse, locked)
		if available < item.CostResources {
			return gameerr.New(gameerr.KindInsufficientResources,
				"RISORSE insufficienti: disponibili %d, richieste %d", available, item.CostResources)
		}

		lock := &models.ResourceLock{
			ID:       uuid.NewString(),
			UserID:   userID,
			ItemID:   item.ID,
			ItemName: item.Name,
			Amount:   item.CostResources,
			LockedAt: now,
			UnlockAt: UnlockAt(item.BlockUntil, now),
		}
		if err := tx.Ledger.AppendLock(ctx, lock); err != nil {
			return fmt.Errorf("append lock: %w", err)
		}

		overview, err := s.overview(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		result = &PurchaseResult{Item: item, Lock: lock, Overview: overview}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogGame("Resource purchased",
		"user_id", userID,
		"item", result.Item.Name,
		"amount", result.Lock.Amount,
		"unlock_at", result.Lock.UnlockAt)
	return result, nil
}

// ItemInput is the admin-authored shape of a resource item.
type ItemInput struct {
	Name          string
	Description   string
	CostResources int
	BlockUntil    *time.Time
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return gameerr.Validation("Il nome dell'oggetto è obbligatorio")
	}
	if in.CostResources < 1 {
		return gameerr.Validation("Il costo deve essere almeno 1 RISORSA")
	}
	return nil
}

func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*models.ResourceItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := &models.ResourceItem{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		CostResources: in.CostResources,
		BlockUntil:    utcPtr(in.BlockUntil),
	}
	if err := s.store.Items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, in ItemInput) (*models.ResourceItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := s.store.Items.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, gameerr.NotFound("Oggetto")
		}
		return nil, fmt.Errorf("load item: %w", err)
	}
	item.Name = strings.TrimSpace(in.Name)
	item.Description = strings.TrimSpace(in.Description)
	item.CostResources = in.CostResources
	item.BlockUntil = utcPtr(in.BlockUntil)
	if err := s.store.Items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

// DeleteItem removes the item. Locks already taken keep running.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.store.Items.Delete(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return gameerr.NotFound("Oggetto")
		}
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *Service) ListItems(ctx context.Context) ([]*models.ResourceItem, error) {
	items, err := s.store.Items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
