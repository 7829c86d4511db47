package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/logger"
	"github.com/google/uuid"
)

type Service struct {
	store    *repositories.Store
	answerer Answerer
	timeout  time.Duration
	limit    int
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHistoryLimit caps how many entries History returns.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

func NewService(store *repositories.Store, answerer Answerer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		answerer: answerer,
		timeout:  config.OracleTimeout,
		limit:    config.DefaultHistoryLimit,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send asks the oracle a question and consumes one action. A failing
// answerer yields FallbackAnswer, which still counts.
func (s *Service) Send(ctx context.Context, userID, question string) (*models.HistoryEntry, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, gameerr.Validation("La domanda non può essere vuota")
	}
	if utf8.RuneCountInString(question) > config.MaxChatQuestion {
		return nil, gameerr.Validation("La domanda supera i %d caratteri", config.MaxChatQuestion)
	}
	now := s.now()

	// Reject early so an exhausted player never reaches the answerer.
	if _, err := economy.RequireAction(ctx, s.store, userID, now); err != nil {
		return nil, err
	}

	answer := s.answer(ctx, userID, question)

	entry := &models.HistoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      models.HistoryChat,
		Question:  question,
		Answer:    answer,
		CreatedAt: now,
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		// The answer may have taken a while; another request could have
		// spent the last action meanwhile.
		if _, err := economy.RequireAction(ctx, tx, userID, now); err != nil {
			return err
		}
		if err := tx.History.Record(ctx, entry); err != nil {
			return fmt.Errorf("record history: %w", err)
		}
		return economy.ConsumeAction(ctx, tx, userID)
	})
	if err != nil {
		return nil, err
	}

	logger.LogGame("Oracle consulted", "user_id", userID, "question_len", len(question))
	return entry, nil
}

func (s *Service) answer(ctx context.Context, userID, question string) string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.answerer.Answer(ctx, question)
	if err != nil {
		logger.LogError("Oracle answer failed", err, "user_id", userID)
		return FallbackAnswer
	}
	if strings.TrimSpace(answer) == "" {
		return FallbackAnswer
	}
	return answer
}

// History returns the player's oracle, aid and challenge entries, newest
// first.
func (s *Service) History(ctx context.Context, userID string) ([]*models.HistoryEntry, error) {
	entries, err := s.store.History.ListByUser(ctx, userID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
