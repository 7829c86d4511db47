package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Contact is a named relationship on a player's background sheet.
type Contact struct {
	Name  string `json:"name" bson:"name"`
	Value int    `json:"value" bson:"value"`
}

// Background is the one-per-user resource sheet. Fields carry their
// defaults when built through background.Defaults.
type Background struct {
	bun.BaseModel `bun:"table:backgrounds,alias:bg"`

	UserID          string    `bun:"user_id,pk"`
	Risorse         int       `bun:"risorse,notnull,default:0"`
	Seguaci         int       `bun:"seguaci,notnull,default:0"`
	Rifugio         int       `bun:"rifugio,notnull,default:1"`
	Mentor          int       `bun:"mentor,notnull,default:0"`
	Notoriety       int       `bun:"notoriety,notnull,default:0"`
	Contacts        []Contact `bun:"contacts,type:jsonb"`
	LockedForPlayer bool      `bun:"locked_for_player,notnull,default:false"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

// ContactsTotal sums the contact values.
func (b *Background) ContactsTotal() int {
	total := 0
	for _, c := range b.Contacts {
		total += c.Value
	}
	return total
}
