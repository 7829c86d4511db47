// Package migration imports the MongoDB collections of the old web
// deployment into the relational store.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/logger"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Source yields the raw documents of a legacy collection.
type Source interface {
	Each(ctx context.Context, collection string, fn func(bson.Raw) error) error
}

const (
	CollUsers          = "users"
	CollBackgrounds    = "backgrounds"
	CollChallenges     = "challenges"
	CollAttempts       = "challenge_attempts"
	CollAids           = "aids"
	CollAidUses        = "aid_uses"
	CollChatHistory    = "chat_history"
	CollResourceItems  = "resource_items"
	CollResourceLocks  = "resource_locks"
	CollFollowerSpends = "follower_spends"
)

type Importer struct {
	db                *bun.DB
	source            Source
	batchSize         int
	parallel          int64
	defaultMaxActions int
	now               time.Time

	mu    sync.Mutex
	stats Stats
}

type Option func(*Importer)

func WithBatchSize(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.batchSize = n
		}
	}
}

// WithParallelism bounds how many collections are copied at once.
func WithParallelism(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.parallel = int64(n)
		}
	}
}

func WithDefaultMaxActions(n int) Option {
	return func(im *Importer) { im.defaultMaxActions = n }
}

func WithNow(now time.Time) Option {
	return func(im *Importer) { im.now = now.UTC() }
}

func NewImporter(db *bun.DB, source Source, opts ...Option) *Importer {
	im := &Importer{
		db:                db,
		source:            source,
		batchSize:         500,
		parallel:          4,
		defaultMaxActions: config.DefaultMaxActions,
		now:               time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

type step struct {
	collection string
	run        func(context.Context) error
}

// Run copies every legacy collection. Users go first; definitions and
// player records follow in parallel. Rows already present are skipped, so
// a run can be repeated safely.
func (im *Importer) Run(ctx context.Context) (*Stats, error) {
	im.stats = Stats{Tables: make(map[string]*TableStats), StartTime: time.Now()}
	logger.LogSystem("Legacy import started", "batch_size", im.batchSize, "parallel", im.parallel)

	phases := [][]step{
		{
			{CollUsers, importCollection(im, CollUsers, im.convertUser)},
		},
		{
			{CollChallenges, importCollection(im, CollChallenges, im.convertChallenge)},
			{CollAids, importCollection(im, CollAids, im.convertAid)},
			{CollResourceItems, importCollection(im, CollResourceItems, im.convertItem)},
			{CollBackgrounds, importCollection(im, CollBackgrounds, im.convertBackground)},
		},
		{
			{CollAttempts, importCollection(im, CollAttempts, im.convertAttempt)},
			{CollAidUses, importCollection(im, CollAidUses, im.convertAidUse)},
			{CollChatHistory, importCollection(im, CollChatHistory, im.convertChat)},
			{CollResourceLocks, importCollection(im, CollResourceLocks, im.convertLock)},
			{CollFollowerSpends, importCollection(im, CollFollowerSpends, im.convertFollowerSpend)},
		},
	}

	sem := semaphore.NewWeighted(im.parallel)
	for _, phase := range phases {
		g, gctx := errgroup.WithContext(ctx)
		for _, s := range phase {
			if err := sem.Acquire(gctx, 1); err != nil {
				break
			}
			g.Go(func() error {
				defer sem.Release(1)
				if err := s.run(gctx); err != nil {
					return fmt.Errorf("import %s: %w", s.collection, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			logger.LogError("Legacy import failed", err)
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	im.stats.EndTime = time.Now()
	im.logFinalStats()
	return &im.stats, nil
}

func (im *Importer) table(name string) *TableStats {
	im.mu.Lock()
	defer im.mu.Unlock()
	ts, ok := im.stats.Tables[name]
	if !ok {
		ts = &TableStats{}
		im.stats.Tables[name] = ts
	}
	return ts
}

func (im *Importer) record(name string, fn func(*TableStats)) {
	ts := im.table(name)
	im.mu.Lock()
	fn(ts)
	im.mu.Unlock()
}

// importCollection decodes every document of collection into L, converts
// it and inserts the results in batches.
func importCollection[L any, M any](im *Importer, collection string, convert func(L) (*M, bool)) func(context.Context) error {
	return func(ctx context.Context) error {
		start := time.Now()
		batch := make([]*M, 0, im.batchSize)

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			inserted, err := im.insertBatch(ctx, &batch)
			if err != nil {
				return err
			}
			n := len(batch)
			im.record(collection, func(ts *TableStats) {
				ts.Inserted += inserted
				ts.Skipped += n - inserted
			})
			batch = batch[:0]
			return nil
		}

		err := im.source.Each(ctx, collection, func(raw bson.Raw) error {
			im.record(collection, func(ts *TableStats) { ts.Read++ })

			var doc L
			if err := bson.Unmarshal(raw, &doc); err != nil {
				slog.Warn("Skipping undecodable legacy document",
					slog.String("type", "db"),
					slog.String("collection", collection),
					slog.Any("error", err))
				im.record(collection, func(ts *TableStats) { ts.Invalid++ })
				return nil
			}
			row, ok := convert(doc)
			if !ok {
				im.record(collection, func(ts *TableStats) { ts.Invalid++ })
				return nil
			}
			batch = append(batch, row)
			if len(batch) >= im.batchSize {
				return flush()
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := flush(); err != nil {
			return err
		}

		ts := im.table(collection)
		logger.LogSystem("Legacy collection imported",
			"collection", collection,
			"read", ts.Read,
			"inserted", ts.Inserted,
			"skipped", ts.Skipped,
			"invalid", ts.Invalid,
			"took", time.Since(start).String())
		return nil
	}
}

// insertBatch inserts rows ignoring those that collide with existing keys
// and returns how many were written.
func (im *Importer) insertBatch(ctx context.Context, rows any) (int, error) {
	res, err := im.db.NewInsert().
		Model(rows).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (im *Importer) logFinalStats() {
	names := make([]string, 0, len(im.stats.Tables))
	for name := range im.stats.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		total += im.stats.Tables[name].Inserted
	}
	logger.LogSystem("Legacy import completed",
		"collections", len(names),
		"inserted", total,
		"took", im.stats.EndTime.Sub(im.stats.StartTime).String())
}
