package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AidLevel struct {
	Level     int    `json:"level" bson:"level"`
	LevelName string `json:"level_name" bson:"level_name"`
	Text      string `json:"text" bson:"text"`
}

// Aid is a time-windowed perk. Dates are "2006-01-02", times "15:04".
type Aid struct {
	bun.BaseModel `bun:"table:aids,alias:a"`

	ID        string     `bun:"id,pk"`
	Name      string     `bun:"name,notnull"`
	Attribute string     `bun:"attribute,notnull"`
	Levels    []AidLevel `bun:"levels,type:jsonb"`
	EventDate string     `bun:"event_date,notnull"`
	EndDate   string     `bun:"end_date"`
	StartTime string     `bun:"start_time,notnull"`
	EndTime   string     `bun:"end_time,notnull"`
	CreatedBy string     `bun:"created_by"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
}

// Level returns the level definition matching n.
func (a *Aid) Level(n int) (AidLevel, bool) {
	for _, l := range a.Levels {
		if l.Level == n {
			return l, true
		}
	}
	return AidLevel{}, false
}

// AidUse records a single use of an aid level. At most one exists per
// (user_id, aid_id, level).
type AidUse struct {
	bun.BaseModel `bun:"table:aid_uses,alias:au"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"user_id,notnull"`
	AidID       string    `bun:"aid_id,notnull"`
	AidName     string    `bun:"aid_name"`
	Level       int       `bun:"level,notnull"`
	LevelName   string    `bun:"level_name"`
	PlayerValue int       `bun:"player_value,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
