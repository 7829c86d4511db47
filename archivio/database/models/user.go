package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID              string    `bun:"id,pk"`
	DiscordID       string    `bun:"discord_id,notnull,unique"`
	Username        string    `bun:"username,notnull"`
	Role            string    `bun:"role,notnull,default:'player'"`
	MaxActions      int       `bun:"max_actions,notnull"`
	UsedActions     int       `bun:"used_actions,notnull,default:0"`
	LastActionReset time.Time `bun:"last_action_reset,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
