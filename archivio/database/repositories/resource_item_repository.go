package repositories

import (
	"context"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/uptrace/bun"
)

type ResourceItemRepository interface {
	Create(ctx context.Context, item *models.ResourceItem) error
	GetByID(ctx context.Context, id string) (*models.ResourceItem, error)
	Update(ctx context.Context, item *models.ResourceItem) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.ResourceItem, error)
}

type resourceItemRepository struct {
	BaseRepository
}

func NewResourceItemRepository(db bun.IDB) ResourceItemRepository {
	return &resourceItemRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *resourceItemRepository) Create(ctx context.Context, item *models.ResourceItem) error {
	stamp(&item.CreatedAt)
	stamp(&item.UpdatedAt)
	_, err := r.db.NewInsert().Model(item).Exec(ctx)
	return r.HandleErrorWithID("create", "resource_item", item.ID, err)
}

func (r *resourceItemRepository) GetByID(ctx context.Context, id string) (*models.ResourceItem, error) {
	item := new(models.ResourceItem)
	if err := r.db.NewSelect().Model(item).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("get", "resource_item", id, err)
	}
	return item, nil
}

func (r *resourceItemRepository) Update(ctx context.Context, item *models.ResourceItem) error {
	item.UpdatedAt = utcNow()
	res, err := r.db.NewUpdate().
		Model(item).
		Column("name", "description", "cost_resources", "block_until", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update", "resource_item", item.ID, err)
	}
	return requireAffected(res, "resource_item", item.ID)
}

func (r *resourceItemRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*models.ResourceItem)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("delete", "resource_item", id, err)
	}
	return requireAffected(res, "resource_item", id)
}

func (r *resourceItemRepository) List(ctx context.Context) ([]*models.ResourceItem, error) {
	var items []*models.ResourceItem
	if err := r.db.NewSelect().Model(&items).Order("cost_resources ASC", "name ASC").Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("list", "resource_item", "*", err)
	}
	return items, nil
}
