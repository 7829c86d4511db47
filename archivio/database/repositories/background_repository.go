package repositories

import (
	"context"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/uptrace/bun"
)

type BackgroundRepository interface {
	Get(ctx context.Context, userID string) (*models.Background, error)
	// GetForUpdate reads the row under a write lock for the current transaction.
	GetForUpdate(ctx context.Context, userID string) (*models.Background, error)
	// CreateIfMissing inserts bg unless a row already exists for its user.
	CreateIfMissing(ctx context.Context, bg *models.Background) error
	Upsert(ctx context.Context, bg *models.Background) error
	SetLocked(ctx context.Context, userID string, locked bool) error
}

type backgroundRepository struct {
	BaseRepository
}

func NewBackgroundRepository(db bun.IDB) BackgroundRepository {
	return &backgroundRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *backgroundRepository) Get(ctx context.Context, userID string) (*models.Background, error) {
	bg := new(models.Background)
	err := r.db.NewSelect().
		Model(bg).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "background", userID, err)
	}
	return bg, nil
}

func (r *backgroundRepository) GetForUpdate(ctx context.Context, userID string) (*models.Background, error) {
	bg := new(models.Background)
	q := r.db.NewSelect().
		Model(bg).
		Where("user_id = ?", userID)
	if err := r.forUpdate(q).Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("get_for_update", "background", userID, err)
	}
	return bg, nil
}

func (r *backgroundRepository) CreateIfMissing(ctx context.Context, bg *models.Background) error {
	stamp(&bg.CreatedAt)
	stamp(&bg.UpdatedAt)
	_, err := r.db.NewInsert().
		Model(bg).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	return r.HandleErrorWithID("create", "background", bg.UserID, err)
}

func (r *backgroundRepository) Upsert(ctx context.Context, bg *models.Background) error {
	stamp(&bg.CreatedAt)
	bg.UpdatedAt = utcNow()
	_, err := r.db.NewInsert().
		Model(bg).
		On("CONFLICT (user_id) DO UPDATE").
		Set("risorse = EXCLUDED.risorse").
		Set("seguaci = EXCLUDED.seguaci").
		Set("rifugio = EXCLUDED.rifugio").
		Set("mentor = EXCLUDED.mentor").
		Set("notoriety = EXCLUDED.notoriety").
		Set("contacts = EXCLUDED.contacts").
		Set("locked_for_player = EXCLUDED.locked_for_player").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return r.HandleErrorWithID("upsert", "background", bg.UserID, err)
}

func (r *backgroundRepository) SetLocked(ctx context.Context, userID string, locked bool) error {
	res, err := r.db.NewUpdate().
		Model((*models.Background)(nil)).
		Set("locked_for_player = ?", locked).
		Set("updated_at = ?", utcNow()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("set_locked", "background", userID, err)
	}
	return requireAffected(res, "background", userID)
}
