package repositories

import (
	"context"
	"fmt"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/uptrace/bun"
)

type AidRepository interface {
	Create(ctx context.Context, aid *models.Aid) error
	GetByID(ctx context.Context, id string) (*models.Aid, error)
	Update(ctx context.Context, aid *models.Aid) error
	// Delete removes the definition only. Uses are retained.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Aid, error)

	// CreateUse inserts a use. A second use of the same (user, aid, level)
	// fails with a *ConflictError.
	CreateUse(ctx context.Context, use *models.AidUse) error
	UseExists(ctx context.Context, userID, aidID string, level int) (bool, error)
	ListUsesByUser(ctx context.Context, userID string) ([]*models.AidUse, error)
}

type aidRepository struct {
	BaseRepository
}

func NewAidRepository(db bun.IDB) AidRepository {
	return &aidRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *aidRepository) Create(ctx context.Context, aid *models.Aid) error {
	stamp(&aid.CreatedAt)
	stamp(&aid.UpdatedAt)
	_, err := r.db.NewInsert().Model(aid).Exec(ctx)
	return r.HandleErrorWithID("create", "aid", aid.ID, err)
}

func (r *aidRepository) GetByID(ctx context.Context, id string) (*models.Aid, error) {
	aid := new(models.Aid)
	if err := r.db.NewSelect().Model(aid).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("get", "aid", id, err)
	}
	return aid, nil
}

func (r *aidRepository) Update(ctx context.Context, aid *models.Aid) error {
	aid.UpdatedAt = utcNow()
	res, err := r.db.NewUpdate().
		Model(aid).
		Column("name", "attribute", "levels", "event_date", "end_date", "start_time", "end_time", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update", "aid", aid.ID, err)
	}
	return requireAffected(res, "aid", aid.ID)
}

func (r *aidRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*models.Aid)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("delete", "aid", id, err)
	}
	return requireAffected(res, "aid", id)
}

func (r *aidRepository) List(ctx context.Context) ([]*models.Aid, error) {
	var aids []*models.Aid
	if err := r.db.NewSelect().Model(&aids).Order("event_date ASC", "start_time ASC").Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("list", "aid", "*", err)
	}
	return aids, nil
}

func (r *aidRepository) CreateUse(ctx context.Context, use *models.AidUse) error {
	stamp(&use.CreatedAt)
	_, err := r.db.NewInsert().Model(use).Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return &ConflictError{
				Entity: "aid_use",
				Field:  "user_id, aid_id, level",
				Value:  fmt.Sprintf("%s/%s/%d", use.UserID, use.AidID, use.Level),
				Err:    err,
			}
		}
		return r.HandleErrorWithID("create", "aid_use", use.AidID, err)
	}
	return nil
}

func (r *aidRepository) UseExists(ctx context.Context, userID, aidID string, level int) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.AidUse)(nil)).
		Where("user_id = ?", userID).
		Where("aid_id = ?", aidID).
		Where("level = ?", level).
		Exists(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("exists", "aid_use", aidID, err)
	}
	return exists, nil
}

func (r *aidRepository) ListUsesByUser(ctx context.Context, userID string) ([]*models.AidUse, error) {
	var uses []*models.AidUse
	err := r.db.NewSelect().
		Model(&uses).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("list", "aid_use", userID, err)
	}
	return uses, nil
}
