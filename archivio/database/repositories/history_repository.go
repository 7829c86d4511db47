package repositories

import (
	"context"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/uptrace/bun"
)

type HistoryRepository interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
	// ListByUser returns the newest entries first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.HistoryEntry, error)
}

type historyRepository struct {
	BaseRepository
}

func NewHistoryRepository(db bun.IDB) HistoryRepository {
	return &historyRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *historyRepository) Record(ctx context.Context, entry *models.HistoryEntry) error {
	stamp(&entry.CreatedAt)
	_, err := r.db.NewInsert().Model(entry).Exec(ctx)
	return r.HandleErrorWithID("record", "history_entry", entry.UserID, err)
}

func (r *historyRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	q := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("list", "history_entry", userID, err)
	}
	return entries, nil
}
