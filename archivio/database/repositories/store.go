package repositories

import (
	"context"

	"github.com/uptrace/bun"
)

// Store groups every repository over one connection or transaction.
type Store struct {
	db bun.IDB

	Users       UserRepository
	Backgrounds BackgroundRepository
	Ledger      LedgerRepository
	Items       ResourceItemRepository
	Challenges  ChallengeRepository
	Aids        AidRepository
	History     HistoryRepository

	onTx func(*Store)
}

func NewStore(db bun.IDB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepository(db),
		Backgrounds: NewBackgroundRepository(db),
		Ledger:      NewLedgerRepository(db),
		Items:       NewResourceItemRepository(db),
		Challenges:  NewChallengeRepository(db),
		Aids:        NewAidRepository(db),
		History:     NewHistoryRepository(db),
	}
}

// RunInTx runs fn with a Store bound to a transaction. fn must only use the
// Store it receives. Nested calls become savepoints.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		txStore := NewStore(tx)
		if s.onTx != nil {
			txStore.onTx = s.onTx
			s.onTx(txStore)
		}
		return fn(ctx, txStore)
	})
}

// OnTx registers fn to run on every transaction-bound Store before use, so
// repositories can be decorated inside transactions.
func (s *Store) OnTx(fn func(tx *Store)) {
	s.onTx = fn
}
