package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ResourceItem struct {
	bun.BaseModel `bun:"table:resource_items,alias:ri"`

	ID            string     `bun:"id,pk"`
	Name          string     `bun:"name,notnull"`
	Description   string     `bun:"description"`
	CostResources int        `bun:"cost_resources,notnull"`
	BlockUntil    *time.Time `bun:"block_until"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,notnull"`
}
