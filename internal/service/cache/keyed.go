package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
	"RankPulse/pkg/cache"
	"RankPulse/pkg/config"
	xlogger "RankPulse/pkg/logger"
)

// FetchFunc produces the value for a cache miss.
type FetchFunc func(ctx context.Context) (interface{}, error)

// KeyedCache is a read-through cache over provider query results. Keys are
// built as prefix:version:query_type:fingerprint so that bumping the config
// version abandons all old entries at once.
//
// The cache degrades rather than fails: any store error is logged and the
// call falls through to the fetch function, so an unreachable backend costs
// latency, never correctness.
type KeyedCache struct {
	store   cache.Store
	prefix  string
	version string
	enabled bool
	ttl     func(queryType string) time.Duration
	logger  *xlogger.Logger
	metrics repository.Metrics
}

// NewKeyed builds a cache layer from config. A nil store or disabled config
// yields a pass-through cache.
func NewKeyed(store cache.Store, cfg *config.Config, l *xlogger.Logger, m repository.Metrics) *KeyedCache {
	if m == nil {
		m = repository.NopMetrics{}
	}
	return &KeyedCache{
		store:   store,
		prefix:  cfg.Cache.Prefix,
		version: cfg.Cache.Version,
		enabled: cfg.Cache.Enabled && store != nil,
		ttl:     cfg.CacheTTL,
		logger:  l,
		metrics: m,
	}
}

// Key builds the full cache key for a query type and its parameters.
func (k *KeyedCache) Key(queryType models.QueryType, params map[string]interface{}) string {
	return fmt.Sprintf("%s:%s:%s:%s", k.prefix, k.version, queryType, cache.Fingerprint(params))
}

// GetOrFetch fills dest from the cache when a fresh entry exists, otherwise
// invokes fetch, stores the result under the derived key, and fills dest from
// it. dest must be a pointer.
func (k *KeyedCache) GetOrFetch(ctx context.Context, queryType models.QueryType, params map[string]interface{}, dest interface{}, fetch FetchFunc) error {
	if !k.enabled {
		return k.fetchInto(ctx, dest, fetch)
	}

	key := k.Key(queryType, params)

	err := k.store.Get(ctx, key, dest)
	if err == nil {
		k.metrics.RecordCacheHit(string(queryType))
		k.logger.Debug("cache hit", xlogger.String("key", key))
		return nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// Backend trouble. Skip caching for this call entirely.
		k.logger.Warn("cache backend unavailable, fetching directly",
			xlogger.String("key", key),
			xlogger.Error(err),
		)
		return k.fetchInto(ctx, dest, fetch)
	}

	k.metrics.RecordCacheMiss(string(queryType))

	value, err := fetch(ctx)
	if err != nil {
		return err
	}
	if err := assign(value, dest); err != nil {
		return err
	}

	if err := k.store.Set(ctx, key, value, k.ttl(string(queryType))); err != nil {
		k.logger.Warn("cache store failed",
			xlogger.String("key", key),
			xlogger.Error(err),
		)
	}
	return nil
}

func (k *KeyedCache) fetchInto(ctx context.Context, dest interface{}, fetch FetchFunc) error {
	value, err := fetch(ctx)
	if err != nil {
		return err
	}
	return assign(value, dest)
}

// assign copies value into the dest pointer through a JSON round trip. The
// stored representation is JSON anyway, so hits and misses see identical
// shapes.
func assign(value, dest interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode fetched value: %w", err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("decode fetched value: %w", err)
	}
	return nil
}

// Invalidate removes cached entries. An empty queryType matches every type;
// an empty pattern matches every fingerprint under the type.
func (k *KeyedCache) Invalidate(ctx context.Context, queryType, pattern string) (int, error) {
	if !k.enabled {
		return 0, nil
	}
	if queryType == "" {
		queryType = "*"
	}
	if pattern == "" {
		pattern = "*"
	}
	match := fmt.Sprintf("%s:%s:%s:%s", k.prefix, k.version, queryType, pattern)

	keys, err := k.store.Keys(ctx, match)
	if err != nil {
		return 0, fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := k.store.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("delete cache keys: %w", err)
	}
	k.logger.Info("cache invalidated",
		xlogger.String("query_type", queryType),
		xlogger.Int("keys", len(keys)),
	)
	return len(keys), nil
}

// Stats counts live entries per query type.
func (k *KeyedCache) Stats(ctx context.Context) (map[string]int, error) {
	stats := map[string]int{}
	if !k.enabled {
		return stats, nil
	}
	for _, qt := range []models.QueryType{
		models.QueryRankings,
		models.QueryCompetitorRankings,
		models.QueryKeywordMetrics,
		models.QueryCompetitorSummary,
		models.QueryBacklinks,
	} {
		match := fmt.Sprintf("%s:%s:%s:*", k.prefix, k.version, qt)
		keys, err := k.store.Keys(ctx, match)
		if err != nil {
			return nil, fmt.Errorf("scan cache keys: %w", err)
		}
		stats[string(qt)] = len(keys)
	}
	return stats, nil
}

// Enabled reports whether the layer is actually caching.
func (k *KeyedCache) Enabled() bool {
	return k.enabled
}

// Healthy pings the backing store.
func (k *KeyedCache) Healthy(ctx context.Context) bool {
	if !k.enabled {
		return true
	}
	return k.store.Ping(ctx) == nil
}
