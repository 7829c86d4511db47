package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FollowerSpend is an append-only record of SEGUACI committed in a month.
type FollowerSpend struct {
	bun.BaseModel `bun:"table:follower_spends,alias:fs"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Amount    int       `bun:"amount,notnull"`
	MonthKey  string    `bun:"month_key,notnull"`
	Reason    string    `bun:"reason"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ResourceLock commits RISORSE to a purchase until UnlockAt.
type ResourceLock struct {
	bun.BaseModel `bun:"table:resource_locks,alias:rl"`

	ID       string    `bun:"id,pk"`
	UserID   string    `bun:"user_id,notnull"`
	ItemID   string    `bun:"item_id,notnull"`
	ItemName string    `bun:"item_name"`
	Amount   int       `bun:"amount,notnull"`
	LockedAt time.Time `bun:"locked_at,notnull"`
	UnlockAt time.Time `bun:"unlock_at,notnull"`
}

// Active reports whether the lock still holds resources at now.
func (l *ResourceLock) Active(now time.Time) bool {
	return l.UnlockAt.After(now)
}
