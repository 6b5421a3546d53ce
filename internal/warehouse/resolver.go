//-------------------------------------------------------------------------
//
// pgEdge E-commerce Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ecomdw/internal/source"
)

// KeyCache memoizes resolved surrogate keys for the duration of a run.
// Misses are never cached, so a row created later is still found.
type KeyCache struct {
	keys  map[Dimension]map[string]int64
	dates map[int64]int64
	hits  int
}

// NewKeyCache returns an empty cache.
func NewKeyCache() *KeyCache {
	return &KeyCache{
		keys:  make(map[Dimension]map[string]int64),
		dates: make(map[int64]int64),
	}
}

// Hits reports how many resolutions were answered from the cache.
func (c *KeyCache) Hits() int {
	if c == nil {
		return 0
	}
	return c.hits
}

func (c *KeyCache) get(dim Dimension, key string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	id, ok := c.keys[dim][key]
	if ok {
		c.hits++
	}
	return id, ok
}

func (c *KeyCache) put(dim Dimension, key string, id int64) {
	if c == nil {
		return
	}
	m, ok := c.keys[dim]
	if !ok {
		m = make(map[string]int64)
		c.keys[dim] = m
	}
	m[key] = id
}

func (c *KeyCache) getDate(t time.Time) (int64, bool) {
	if c == nil {
		return 0, false
	}
	id, ok := c.dates[t.UnixNano()]
	if ok {
		c.hits++
	}
	return id, ok
}

func (c *KeyCache) putDate(t time.Time, id int64) {
	if c != nil {
		c.dates[t.UnixNano()] = id
	}
}

// Resolver maps natural keys to surrogate keys within one session.
// Customer, seller, product and order keys are looked up only; date keys
// can also be created on demand.
type Resolver struct {
	session Session
	rule    SeasonRule
	cache   *KeyCache
}

// NewResolver creates a resolver over s. cache may be nil.
func NewResolver(s Session, rule SeasonRule, cache *KeyCache) *Resolver {
	return &Resolver{session: s, rule: rule, cache: cache}
}

// Resolve looks up the surrogate key of naturalKey in dim.
func (r *Resolver) Resolve(ctx context.Context, dim Dimension, naturalKey string) (int64, bool, error) {
	if id, ok := r.cache.get(dim, naturalKey); ok {
		return id, true, nil
	}
	id, ok, err := r.session.Lookup(ctx, dim, naturalKey)
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve %s %q: %w", dim, naturalKey, err)
	}
	if ok {
		r.cache.put(dim, naturalKey, id)
	}
	return id, ok, nil
}

// LookupDate looks up the date dimension key for ts without creating it.
// Not-a-date values resolve against the sentinel date.
func (r *Resolver) LookupDate(ctx context.Context, ts source.Timestamp) (int64, bool, error) {
	t := ts.OrSentinel()
	if id, ok := r.cache.getDate(t); ok {
		return id, true, nil
	}
	id, ok, err := r.session.LookupDate(ctx, t)
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve date %s: %w", t.Format(time.DateTime), err)
	}
	if ok {
		r.cache.putDate(t, id)
	}
	return id, ok, nil
}

// EnsureDate returns the date dimension key for ts, inserting the
// normalized record first when the date is new.
func (r *Resolver) EnsureDate(ctx context.Context, ts source.Timestamp) (int64, error) {
	t := ts.OrSentinel()
	if id, ok := r.cache.getDate(t); ok {
		return id, nil
	}
	id, err := r.session.EnsureDate(ctx, Normalize(t, r.rule))
	if err != nil {
		return 0, fmt.Errorf("failed to ensure date %s: %w", t.Format(time.DateTime), err)
	}
	r.cache.putDate(t, id)
	return id, nil
}
