// Package challenges resolves contested tests ("sfide"): the player's
// attribute against a difficulty, each multiplied by a d5. A player faces a
// given challenge once.
package challenges

import (
	"fmt"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/dice"
)

// RefugeBonus converts a RIFUGIO score into a difficulty reduction.
func RefugeBonus(rifugio int) int {
	switch {
	case rifugio <= 1:
		return 0
	case rifugio <= 3:
		return 1
	case rifugio == 4:
		return 2
	default:
		return 3
	}
}

// FollowersToUse is the number of SEGUACI actually committed to an attempt.
// One remaining action is held back for the attempt itself, so spending
// followers can never push the remaining quota below zero.
func FollowersToUse(requested, available, remainingBefore int) int {
	return max(0, min(requested, available, remainingBefore-1))
}

// EffectiveDifficulty applies refuge and follower reductions.
func EffectiveDifficulty(difficulty, refuge, followers int) int {
	return max(0, difficulty-refuge-followers)
}

// Outcome compares the two products.
func Outcome(playerResult, difficultyResult int) string {
	switch {
	case playerResult > difficultyResult:
		return models.OutcomeSuccess
	case playerResult == difficultyResult:
		return models.OutcomeTie
	default:
		return models.OutcomeFailure
	}
}

// OutcomeLabel is the heading shown to players for an outcome.
func OutcomeLabel(outcome string) string {
	switch outcome {
	case models.OutcomeSuccess:
		return "Successo!"
	case models.OutcomeTie:
		return "Parità"
	default:
		return "Fallimento"
	}
}

// Roll is one fully resolved contest.
type Roll struct {
	PlayerValue      int
	PlayerRoll       int
	PlayerResult     int
	Difficulty       int
	DifficultyRoll   int
	DifficultyResult int
	Outcome          string
	Text             string
}

// Message renders the roll the way players see it.
func (r Roll) Message() string {
	return fmt.Sprintf("(%d×%d) %d vs (%d×%d) %d: %s",
		r.PlayerValue, r.PlayerRoll, r.PlayerResult,
		r.Difficulty, r.DifficultyRoll, r.DifficultyResult,
		r.Text)
}

// Contest rolls the player's die first, then the difficulty's.
// difficulty must already be the effective one.
func Contest(roller dice.Roller, test models.ContrastingTest, playerValue, difficulty int) Roll {
	r := Roll{
		PlayerValue: playerValue,
		Difficulty:  difficulty,
	}
	r.PlayerRoll = roller.Roll(dice.ChallengeSides)
	r.DifficultyRoll = roller.Roll(dice.ChallengeSides)
	r.PlayerResult = r.PlayerValue * r.PlayerRoll
	r.DifficultyResult = r.Difficulty * r.DifficultyRoll
	r.Outcome = Outcome(r.PlayerResult, r.DifficultyResult)
	r.Text = test.TextFor(r.Outcome)
	return r
}
