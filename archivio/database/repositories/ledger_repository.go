package repositories

import (
	"context"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/uptrace/bun"
)

// LedgerRepository stores the append-only follower spends and resource locks.
// Entries are never updated or deleted.
type LedgerRepository interface {
	AppendFollowerSpend(ctx context.Context, spend *models.FollowerSpend) error
	SumFollowerSpend(ctx context.Context, userID, monthKey string) (int, error)
	ListFollowerSpends(ctx context.Context, userID, monthKey string) ([]*models.FollowerSpend, error)
	AppendLock(ctx context.Context, lock *models.ResourceLock) error
	// SumActiveLocks totals the amount of locks with unlock_at after now.
	SumActiveLocks(ctx context.Context, userID string, now time.Time) (int, error)
	ListActiveLocks(ctx context.Context, userID string, now time.Time) ([]*models.ResourceLock, error)
}

type ledgerRepository struct {
	BaseRepository
}

func NewLedgerRepository(db bun.IDB) LedgerRepository {
	return &ledgerRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *ledgerRepository) AppendFollowerSpend(ctx context.Context, spend *models.FollowerSpend) error {
	stamp(&spend.CreatedAt)
	_, err := r.db.NewInsert().Model(spend).Exec(ctx)
	return r.HandleErrorWithID("append", "follower_spend", spend.UserID, err)
}

func (r *ledgerRepository) SumFollowerSpend(ctx context.Context, userID, monthKey string) (int, error) {
	var total int
	err := r.db.NewSelect().
		Model((*models.FollowerSpend)(nil)).
		ColumnExpr("CAST(COALESCE(SUM(amount), 0) AS INTEGER)").
		Where("user_id = ?", userID).
		Where("month_key = ?", monthKey).
		Scan(ctx, &total)
	if err != nil {
		return 0, r.HandleErrorWithID("sum", "follower_spend", userID, err)
	}
	return total, nil
}

func (r *ledgerRepository) ListFollowerSpends(ctx context.Context, userID, monthKey string) ([]*models.FollowerSpend, error) {
	var spends []*models.FollowerSpend
	err := r.db.NewSelect().
		Model(&spends).
		Where("user_id = ?", userID).
		Where("month_key = ?", monthKey).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("list", "follower_spend", userID, err)
	}
	return spends, nil
}

func (r *ledgerRepository) AppendLock(ctx context.Context, lock *models.ResourceLock) error {
	stamp(&lock.LockedAt)
	lock.UnlockAt = lock.UnlockAt.UTC()
	_, err := r.db.NewInsert().Model(lock).Exec(ctx)
	return r.HandleErrorWithID("append", "resource_lock", lock.UserID, err)
}

func (r *ledgerRepository) SumActiveLocks(ctx context.Context, userID string, now time.Time) (int, error) {
	var total int
	err := r.db.NewSelect().
		Model((*models.ResourceLock)(nil)).
		ColumnExpr("CAST(COALESCE(SUM(amount), 0) AS INTEGER)").
		Where("user_id = ?", userID).
		Where("unlock_at > ?", now.UTC()).
		Scan(ctx, &total)
	if err != nil {
		return 0, r.HandleErrorWithID("sum", "resource_lock", userID, err)
	}
	return total, nil
}

func (r *ledgerRepository) ListActiveLocks(ctx context.Context, userID string, now time.Time) ([]*models.ResourceLock, error) {
	var locks []*models.ResourceLock
	err := r.db.NewSelect().
		Model(&locks).
		Where("user_id = ?", userID).
		Where("unlock_at > ?", now.UTC()).
		Order("unlock_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("list", "resource_lock", userID, err)
	}
	return locks, nil
}
