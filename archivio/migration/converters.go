package migration

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/archivio-maledetto/archivio/archivio/background"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/google/uuid"
)

// LegacyDiscordPrefix marks users imported from web accounts that never had
// a Discord identity.
const LegacyDiscordPrefix = "legacy:"

func orID(id string) string {
	if strings.TrimSpace(id) == "" {
		return uuid.NewString()
	}
	return id
}

// cleanseString drops NUL bytes and invalid UTF-8, which Postgres rejects.
func cleanseString(s string) string {
	if s == "" {
		return ""
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.ReplaceAll(s, "\x00", "")
}

func (im *Importer) convertUser(lu LegacyUser) (*models.User, bool) {
	if lu.ID == "" {
		return nil, false
	}
	discordID := strings.TrimSpace(lu.DiscordID)
	if discordID == "" {
		key := strings.ToLower(strings.TrimSpace(lu.Email))
		if key == "" {
			key = lu.ID
		}
		discordID = LegacyDiscordPrefix + key
	}
	role := strings.ToLower(strings.TrimSpace(lu.Role))
	if role != models.RoleAdmin {
		role = models.RolePlayer
	}
	maxActions := im.defaultMaxActions
	if lu.MaxActions != nil && *lu.MaxActions >= 0 {
		maxActions = *lu.MaxActions
	}
	username := cleanseString(lu.Username)
	if username == "" {
		username = discordID
	}
	created := lu.CreatedAt.Or(im.now)
	return &models.User{
		ID:              lu.ID,
		DiscordID:       discordID,
		Username:        username,
		Role:            role,
		MaxActions:      maxActions,
		UsedActions:     max(0, lu.UsedActions),
		LastActionReset: lu.LastActionReset.Or(created),
		CreatedAt:       created,
		UpdatedAt:       im.now,
	}, true
}

// convertBackground keeps the stored values as they are; ranges were the
// old server's concern and the admin path skips them too.
func (im *Importer) convertBackground(lb LegacyBackground) (*models.Background, bool) {
	if lb.UserID == "" {
		return nil, false
	}
	bg := background.Defaults(lb.UserID)
	bg.Risorse = lb.Risorse
	bg.Seguaci = lb.Seguaci
	if lb.Rifugio != nil {
		bg.Rifugio = *lb.Rifugio
	}
	bg.Mentor = lb.Mentor
	bg.Notoriety = lb.Notoriety
	bg.Contacts = make([]models.Contact, 0, len(lb.Contacts))
	for _, c := range lb.Contacts {
		bg.Contacts = append(bg.Contacts, models.Contact{Name: cleanseString(c.Name), Value: c.Value})
	}
	bg.LockedForPlayer = lb.LockedForPlayer
	bg.CreatedAt = lb.CreatedAt.Or(im.now)
	bg.UpdatedAt = lb.UpdatedAt.Or(bg.CreatedAt)
	return bg, true
}

func (im *Importer) convertChallenge(lc LegacyChallenge) (*models.Challenge, bool) {
	if lc.ID == "" || strings.TrimSpace(lc.Name) == "" || len(lc.Tests) == 0 {
		return nil, false
	}
	keywords := make([]string, 0, len(lc.Keywords))
	for _, k := range lc.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	created := lc.CreatedAt.Or(im.now)
	return &models.Challenge{
		ID:                 lc.ID,
		Name:               cleanseString(lc.Name),
		Description:        cleanseString(lc.Description),
		Tests:              lc.Tests,
		Keywords:           keywords,
		AllowRefugeDefense: lc.AllowRefugeDefense,
		CreatedBy:          lc.CreatedBy,
		CreatedAt:          created,
		UpdatedAt:          created,
	}, true
}

func (im *Importer) convertAttempt(la LegacyAttempt) (*models.ChallengeAttempt, bool) {
	if la.UserID == "" || la.ChallengeID == "" {
		return nil, false
	}
	switch la.Outcome {
	case models.OutcomeSuccess, models.OutcomeTie, models.OutcomeFailure:
	default:
		return nil, false
	}
	return &models.ChallengeAttempt{
		ID:               orID(la.ID),
		UserID:           la.UserID,
		ChallengeID:      la.ChallengeID,
		ChallengeName:    cleanseString(la.ChallengeName),
		TestIndex:        la.TestIndex,
		Attribute:        la.Attribute,
		PlayerValue:      la.PlayerValue,
		PlayerRoll:       la.PlayerRoll,
		PlayerResult:     la.PlayerResult,
		Difficulty:       la.Difficulty,
		RefugeBonus:      la.RefugeBonus,
		FollowersUsed:    la.FollowersUsed,
		DifficultyRoll:   la.DifficultyRoll,
		DifficultyResult: la.DifficultyResult,
		Outcome:          la.Outcome,
		CreatedAt:        la.CreatedAt.Or(im.now),
	}, true
}

func (im *Importer) convertAid(la LegacyAid) (*models.Aid, bool) {
	if la.ID == "" || strings.TrimSpace(la.Name) == "" || la.EventDate == "" {
		return nil, false
	}
	created := la.CreatedAt.Or(im.now)
	return &models.Aid{
		ID:        la.ID,
		Name:      cleanseString(la.Name),
		Attribute: la.Attribute,
		Levels:    la.Levels,
		EventDate: la.EventDate,
		EndDate:   la.EndDate,
		StartTime: la.StartTime,
		EndTime:   la.EndTime,
		CreatedBy: la.CreatedBy,
		CreatedAt: created,
		UpdatedAt: created,
	}, true
}

func (im *Importer) convertAidUse(lu LegacyAidUse) (*models.AidUse, bool) {
	if lu.UserID == "" || lu.AidID == "" || lu.Level < 1 {
		return nil, false
	}
	return &models.AidUse{
		ID:          orID(lu.ID),
		UserID:      lu.UserID,
		AidID:       lu.AidID,
		AidName:     cleanseString(lu.AidName),
		Level:       lu.Level,
		LevelName:   lu.LevelName,
		PlayerValue: lu.PlayerValue,
		CreatedAt:   lu.CreatedAt.Or(im.now),
	}, true
}

// historyKind recovers the entry kind from the question prefix the old
// server wrote.
func historyKind(question string) string {
	switch {
	case strings.HasPrefix(question, "[SFIDA]"):
		return models.HistoryChallenge
	case strings.HasPrefix(question, "[AIUTO]"):
		return models.HistoryAid
	default:
		return models.HistoryChat
	}
}

func (im *Importer) convertChat(lc LegacyChat) (*models.HistoryEntry, bool) {
	if lc.UserID == "" {
		return nil, false
	}
	question := cleanseString(lc.Question)
	var payload map[string]any
	if len(lc.Payload) > 0 {
		payload = map[string]any(lc.Payload)
	}
	return &models.HistoryEntry{
		ID:        orID(lc.ID),
		UserID:    lc.UserID,
		Kind:      historyKind(question),
		Question:  question,
		Answer:    cleanseString(lc.Answer),
		Payload:   payload,
		CreatedAt: lc.CreatedAt.Or(im.now),
	}, true
}

func (im *Importer) convertItem(li LegacyItem) (*models.ResourceItem, bool) {
	if li.ID == "" || strings.TrimSpace(li.Name) == "" || li.CostResources < 1 {
		return nil, false
	}
	var blockUntil *time.Time
	if !li.BlockUntil.IsZero() {
		t := li.BlockUntil.Time
		blockUntil = &t
	}
	created := li.CreatedAt.Or(im.now)
	return &models.ResourceItem{
		ID:            li.ID,
		Name:          cleanseString(li.Name),
		Description:   cleanseString(li.Description),
		CostResources: li.CostResources,
		BlockUntil:    blockUntil,
		CreatedAt:     created,
		UpdatedAt:     created,
	}, true
}

func (im *Importer) convertLock(ll LegacyLock) (*models.ResourceLock, bool) {
	if ll.UserID == "" || ll.Amount < 1 || ll.UnlockAt.IsZero() {
		return nil, false
	}
	return &models.ResourceLock{
		ID:       orID(ll.ID),
		UserID:   ll.UserID,
		ItemID:   ll.ItemID,
		ItemName: cleanseString(ll.ItemName),
		Amount:   ll.Amount,
		LockedAt: ll.LockedAt.Or(im.now),
		UnlockAt: ll.UnlockAt.Time,
	}, true
}

func (im *Importer) convertFollowerSpend(ls LegacyFollowerSpend) (*models.FollowerSpend, bool) {
	if ls.UserID == "" || ls.Amount < 1 {
		return nil, false
	}
	created := ls.CreatedAt.Or(im.now)
	monthKey := ls.MonthKey
	if monthKey == "" {
		monthKey = economy.MonthKey(created)
	}
	return &models.FollowerSpend{
		ID:        orID(ls.ID),
		UserID:    ls.UserID,
		Amount:    ls.Amount,
		MonthKey:  monthKey,
		Reason:    cleanseString(ls.Reason),
		CreatedAt: created,
	}, true
}
