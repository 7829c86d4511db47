// Package catalog is a read-through cache of challenge and aid definitions.
// Admin writes go through the owning service, which invalidates the entry.
package catalog

import (
	"context"
	"slices"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
	lru "github.com/hashicorp/golang-lru"
)

const (
	allChallengesKey = "challenges:*"
	allAidsKey       = "aids:*"
)

type Catalog struct {
	store *repositories.Store
	cache *lru.Cache
}

func New(store *repositories.Store, size int) (*Catalog, error) {
	if size <= 0 {
		size = config.CacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Catalog{store: store, cache: cache}, nil
}

// Challenge returns a copy of the challenge definition.
func (c *Catalog) Challenge(ctx context.Context, id string) (*models.Challenge, error) {
	key := "challenge:" + id
	if v, ok := c.cache.Get(key); ok {
		return cloneChallenge(v.(*models.Challenge)), nil
	}
	ch, err := c.store.Challenges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, ch)
	return cloneChallenge(ch), nil
}

func (c *Catalog) Challenges(ctx context.Context) ([]*models.Challenge, error) {
	if v, ok := c.cache.Get(allChallengesKey); ok {
		return cloneAll(v.([]*models.Challenge), cloneChallenge), nil
	}
	list, err := c.store.Challenges.List(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(allChallengesKey, list)
	return cloneAll(list, cloneChallenge), nil
}

func (c *Catalog) InvalidateChallenge(id string) {
	c.cache.Remove("challenge:" + id)
	c.cache.Remove(allChallengesKey)
}

// Aid returns a copy of the aid definition.
func (c *Catalog) Aid(ctx context.Context, id string) (*models.Aid, error) {
	key := "aid:" + id
	if v, ok := c.cache.Get(key); ok {
		return cloneAid(v.(*models.Aid)), nil
	}
	aid, err := c.store.Aids.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, aid)
	return cloneAid(aid), nil
}

func (c *Catalog) Aids(ctx context.Context) ([]*models.Aid, error) {
	if v, ok := c.cache.Get(allAidsKey); ok {
		return cloneAll(v.([]*models.Aid), cloneAid), nil
	}
	list, err := c.store.Aids.List(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(allAidsKey, list)
	return cloneAll(list, cloneAid), nil
}

func (c *Catalog) InvalidateAid(id string) {
	c.cache.Remove("aid:" + id)
	c.cache.Remove(allAidsKey)
}

// Purge drops every cached definition.
func (c *Catalog) Purge() {
	c.cache.Purge()
}

func (c *Catalog) Len() int {
	return c.cache.Len()
}

func cloneChallenge(ch *models.Challenge) *models.Challenge {
	out := *ch
	out.Tests = slices.Clone(ch.Tests)
	out.Keywords = slices.Clone(ch.Keywords)
	return &out
}

func cloneAid(a *models.Aid) *models.Aid {
	out := *a
	out.Levels = slices.Clone(a.Levels)
	return &out
}

func cloneAll[T any](in []*T, clone func(*T) *T) []*T {
	out := make([]*T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
