package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OutcomeSuccess = "success"
	OutcomeTie     = "tie"
	OutcomeFailure = "failure"
)

// ContrastingTest is one difficulty variant of a challenge.
type ContrastingTest struct {
	Attribute   string `json:"attribute" bson:"attribute"`
	Difficulty  int    `json:"difficulty" bson:"difficulty"`
	SuccessText string `json:"success_text" bson:"success_text"`
	TieText     string `json:"tie_text" bson:"tie_text"`
	FailureText string `json:"failure_text" bson:"failure_text"`
}

// TextFor returns the authored text for an outcome.
func (t ContrastingTest) TextFor(outcome string) string {
	switch outcome {
	case OutcomeSuccess:
		return t.SuccessText
	case OutcomeTie:
		return t.TieText
	default:
		return t.FailureText
	}
}

type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:ch"`

	ID                 string            `bun:"id,pk"`
	Name               string            `bun:"name,notnull"`
	Description        string            `bun:"description"`
	Tests              []ContrastingTest `bun:"tests,type:jsonb"`
	Keywords           []string          `bun:"keywords,type:jsonb"`
	AllowRefugeDefense bool              `bun:"allow_refuge_defense,notnull,default:false"`
	CreatedBy          string            `bun:"created_by"`
	CreatedAt          time.Time         `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time         `bun:"updated_at,notnull"`
}

// ChallengeAttempt is the immutable record of a resolved challenge.
// At most one exists per (user_id, challenge_id).
type ChallengeAttempt struct {
	bun.BaseModel `bun:"table:challenge_attempts,alias:ca"`

	ID               string    `bun:"id,pk"`
	UserID           string    `bun:"user_id,notnull"`
	ChallengeID      string    `bun:"challenge_id,notnull"`
	ChallengeName    string    `bun:"challenge_name"`
	TestIndex        int       `bun:"test_index,notnull"`
	Attribute        string    `bun:"attribute"`
	PlayerValue      int       `bun:"player_value,notnull"`
	PlayerRoll       int       `bun:"player_roll,notnull"`
	PlayerResult     int       `bun:"player_result,notnull"`
	Difficulty       int       `bun:"difficulty,notnull"`
	RefugeBonus      int       `bun:"refuge_bonus,notnull,default:0"`
	FollowersUsed    int       `bun:"followers_used,notnull,default:0"`
	DifficultyRoll   int       `bun:"difficulty_roll,notnull"`
	DifficultyResult int       `bun:"difficulty_result,notnull"`
	Outcome          string    `bun:"outcome,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
