package migration

import (
	"fmt"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// LegacyTime decodes timestamps stored either as ISO-8601 strings or as
// BSON dates.
type LegacyTime struct {
	time.Time
}

func (lt *LegacyTime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		lt.Time = time.Time{}
		return nil
	case bsontype.DateTime:
		lt.Time = raw.Time().UTC()
		return nil
	case bsontype.String:
		s := raw.StringValue()
		if s == "" {
			lt.Time = time.Time{}
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", time.DateOnly} {
			if parsed, err := time.Parse(layout, s); err == nil {
				lt.Time = parsed.UTC()
				return nil
			}
		}
		return fmt.Errorf("unparseable timestamp %q", s)
	default:
		return fmt.Errorf("unexpected bson type %s for timestamp", t)
	}
}

// Or returns fallback for a missing timestamp.
func (lt LegacyTime) Or(fallback time.Time) time.Time {
	if lt.IsZero() {
		return fallback
	}
	return lt.Time
}

type LegacyUser struct {
	ID              string     `bson:"id"`
	DiscordID       string     `bson:"discord_id,omitempty"`
	Email           string     `bson:"email"`
	Username        string     `bson:"username"`
	Role            string     `bson:"role"`
	MaxActions      *int       `bson:"max_actions"`
	UsedActions     int        `bson:"used_actions"`
	LastActionReset LegacyTime `bson:"last_action_reset"`
	CreatedAt       LegacyTime `bson:"created_at"`
}

type LegacyBackground struct {
	UserID          string           `bson:"user_id"`
	Risorse         int              `bson:"risorse"`
	Seguaci         int              `bson:"seguaci"`
	Rifugio         *int             `bson:"rifugio"`
	Mentor          int              `bson:"mentor"`
	Notoriety       int              `bson:"notoriety"`
	Contacts        []models.Contact `bson:"contacts"`
	LockedForPlayer bool             `bson:"locked_for_player"`
	CreatedAt       LegacyTime       `bson:"created_at"`
	UpdatedAt       LegacyTime       `bson:"updated_at"`
}

type LegacyChallenge struct {
	ID                 string                   `bson:"id"`
	Name               string                   `bson:"name"`
	Description        string                   `bson:"description"`
	Tests              []models.ContrastingTest `bson:"tests"`
	Keywords           []string                 `bson:"keywords"`
	AllowRefugeDefense bool                     `bson:"allow_refuge_defense"`
	CreatedBy          string                   `bson:"created_by"`
	CreatedAt          LegacyTime               `bson:"created_at"`
}

type LegacyAttempt struct {
	ID               string     `bson:"id"`
	UserID           string     `bson:"user_id"`
	ChallengeID      string     `bson:"challenge_id"`
	ChallengeName    string     `bson:"challenge_name"`
	TestIndex        int        `bson:"test_index"`
	Attribute        string     `bson:"attribute"`
	PlayerValue      int        `bson:"player_value"`
	PlayerRoll       int        `bson:"player_roll"`
	PlayerResult     int        `bson:"player_result"`
	Difficulty       int        `bson:"difficulty"`
	RefugeBonus      int        `bson:"refuge_bonus"`
	FollowersUsed    int        `bson:"followers_used"`
	DifficultyRoll   int        `bson:"difficulty_roll"`
	DifficultyResult int        `bson:"difficulty_result"`
	Outcome          string     `bson:"outcome"`
	CreatedAt        LegacyTime `bson:"created_at"`
}

type LegacyAid struct {
	ID        string            `bson:"id"`
	Name      string            `bson:"name"`
	Attribute string            `bson:"attribute"`
	Levels    []models.AidLevel `bson:"levels"`
	EventDate string            `bson:"event_date"`
	EndDate   string            `bson:"end_date"`
	StartTime string            `bson:"start_time"`
	EndTime   string            `bson:"end_time"`
	CreatedBy string            `bson:"created_by"`
	CreatedAt LegacyTime        `bson:"created_at"`
}

type LegacyAidUse struct {
	ID          string     `bson:"id"`
	UserID      string     `bson:"user_id"`
	AidID       string     `bson:"aid_id"`
	AidName     string     `bson:"aid_name"`
	Level       int        `bson:"level"`
	LevelName   string     `bson:"level_name"`
	PlayerValue int        `bson:"player_value"`
	CreatedAt   LegacyTime `bson:"created_at"`
}

type LegacyChat struct {
	ID        string     `bson:"id"`
	UserID    string     `bson:"user_id"`
	Question  string     `bson:"question"`
	Answer    string     `bson:"answer"`
	Payload   bson.M     `bson:"payload,omitempty"`
	CreatedAt LegacyTime `bson:"created_at"`
}

type LegacyItem struct {
	ID            string     `bson:"id"`
	Name          string     `bson:"name"`
	Description   string     `bson:"description"`
	CostResources int        `bson:"cost_resources"`
	BlockUntil    LegacyTime `bson:"block_until"`
	CreatedAt     LegacyTime `bson:"created_at"`
}

type LegacyLock struct {
	ID       string     `bson:"id"`
	UserID   string     `bson:"user_id"`
	ItemID   string     `bson:"item_id"`
	ItemName string     `bson:"item_name"`
	Amount   int        `bson:"amount"`
	LockedAt LegacyTime `bson:"locked_at"`
	UnlockAt LegacyTime `bson:"unlock_at"`
}

type LegacyFollowerSpend struct {
	ID        string     `bson:"id"`
	UserID    string     `bson:"user_id"`
	Amount    int        `bson:"amount"`
	MonthKey  string     `bson:"month_key"`
	Reason    string     `bson:"reason"`
	CreatedAt LegacyTime `bson:"created_at"`
}

// TableStats counts what happened to one collection.
type TableStats struct {
	Read     int `json:"read"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// Stats is the outcome of an import run.
type Stats struct {
	Tables    map[string]*TableStats `json:"tables"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
}
