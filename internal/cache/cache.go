// Package cache implements the view-synchronization layer: a Redis-backed
// query cache over the entry store with an explicit invalidation contract.
// Reads treat any cache failure as a miss; writes are best-effort. A failed
// mutation never touches the cache, so the last-confirmed view survives.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entry_cache_requests_total",
		Help: "Entry list cache lookups by outcome",
	}, []string{"outcome"})

	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entry_cache_invalidations_total",
		Help: "Total number of scope invalidations",
	})
)

// QueryCache caches entry-list snapshots per scope.
type QueryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewQueryCache creates a QueryCache with the given snapshot TTL.
func NewQueryCache(client redis.UniversalClient, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &QueryCache{client: client, ttl: ttl}
}

// GetEntryList returns the cached collection for a scope. The second return
// is false on a miss or any cache error; callers fall through to the store.
func (c *QueryCache) GetEntryList(ctx context.Context, scope Scope) ([]*types.ExpenseEntry, bool) {
	payload, err := c.client.Get(ctx, string(scope)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().Warnw("Cache read failed, treating as miss",
				"scope", scope, "error", err)
		}
		cacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	var entries []*types.ExpenseEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		logger.GetLogger().Warnw("Cache payload corrupt, treating as miss",
			"scope", scope, "error", err)
		cacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	cacheHits.WithLabelValues("hit").Inc()
	return entries, true
}

// SetEntryList stores a fresh collection snapshot for a scope. Best-effort:
// a write failure only costs the next reader a store round-trip.
func (c *QueryCache) SetEntryList(ctx context.Context, scope Scope, entries []*types.ExpenseEntry) {
	payload, err := json.Marshal(entries)
	if err != nil {
		logger.GetLogger().Errorw("Failed to marshal cache snapshot",
			"scope", scope, "error", err)
		return
	}
	if err := c.client.Set(ctx, string(scope), payload, c.ttl).Err(); err != nil {
		logger.GetLogger().Warnw("Cache write failed",
			"scope", scope, "error", err)
	}
}

// GetPendingCount returns the cached pending-approval counter for a scope.
// The second return is false on a miss or any cache error.
func (c *QueryCache) GetPendingCount(ctx context.Context, scope Scope) (int, bool) {
	count, err := c.client.Get(ctx, string(scope)).Int()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().Warnw("Cache read failed, treating as miss",
				"scope", scope, "error", err)
		}
		cacheHits.WithLabelValues("miss").Inc()
		return 0, false
	}
	cacheHits.WithLabelValues("hit").Inc()
	return count, true
}

// SetPendingCount stores the pending-approval counter for a scope.
func (c *QueryCache) SetPendingCount(ctx context.Context, scope Scope, count int) {
	if err := c.client.Set(ctx, string(scope), count, c.ttl).Err(); err != nil {
		logger.GetLogger().Warnw("Cache write failed",
			"scope", scope, "error", err)
	}
}

// Invalidate drops exactly the given scopes. Called with MutationScopes
// after every successful mutation and never otherwise.
func (c *QueryCache) Invalidate(ctx context.Context, scopes ...Scope) {
	if len(scopes) == 0 {
		return
	}
	keys := make([]string, len(scopes))
	for i, s := range scopes {
		keys[i] = string(s)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		// A stale snapshot expires with its TTL; log and move on.
		logger.GetLogger().Warnw("Cache invalidation failed",
			"scopes", keys, "error", err)
		return
	}
	cacheInvalidations.Add(float64(len(keys)))
}
