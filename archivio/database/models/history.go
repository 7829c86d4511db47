package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	HistoryChat      = "chat"
	HistoryAid       = "aid"
	HistoryChallenge = "challenge"
)

// HistoryEntry is a question/answer shaped audit record shown to players.
type HistoryEntry struct {
	bun.BaseModel `bun:"table:history_entries,alias:he"`

	ID        string         `bun:"id,pk"`
	UserID    string         `bun:"user_id,notnull"`
	Kind      string         `bun:"kind,notnull"`
	Question  string         `bun:"question"`
	Answer    string         `bun:"answer"`
	Payload   map[string]any `bun:"payload,type:jsonb"`
	CreatedAt time.Time      `bun:"created_at,notnull,default:current_timestamp"`
}
