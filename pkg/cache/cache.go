// Package cache implements the expiring summary cache: completed summaries
// keyed by (topic, date), kept in a flat key/value store for a fixed
// retention window.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mycrub/daysum/pkg/clock"
	"github.com/mycrub/daysum/pkg/metrics"
	"github.com/mycrub/daysum/pkg/models"
	"github.com/mycrub/daysum/pkg/store"
)

const (
	// DefaultPrefix namespaces cache keys inside the store.
	DefaultPrefix = "hfr_summary_"
	// DefaultRetention is how long a completed summary stays valid.
	DefaultRetention = 7 * 24 * time.Hour

	keySeparator = "_"
)

// Cache is an expiring summary cache over a store.Store. Reads and writes
// never fail from the caller's point of view: unreadable entries are deleted
// and write failures are logged and dropped.
type Cache struct {
	store     store.Store
	prefix    string
	retention time.Duration
	clock     clock.Clock
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithRetention sets the retention window.
func WithRetention(d time.Duration) Option {
	return func(c *Cache) { c.retention = d }
}

// WithClock sets the time source.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) { c.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates a Cache over s.
func New(s store.Store, opts ...Option) *Cache {
	c := &Cache{
		store:     s,
		prefix:    DefaultPrefix,
		retention: DefaultRetention,
		clock:     clock.Real{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the store key for (topic, date).
func (c *Cache) Key(topic, date string) string {
	return c.prefix + topic + keySeparator + date
}

// Retention returns the configured retention window.
func (c *Cache) Retention() time.Duration {
	return c.retention
}

// Get returns the cached summary for (topic, date) if present and unexpired.
// Expired or unreadable entries are removed as a side effect.
func (c *Cache) Get(ctx context.Context, topic, date string) (models.Summary, bool) {
	key := c.Key(topic, date)

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		c.miss("miss")
		return models.Summary{}, false
	}
	if !ok {
		c.miss("miss")
		return models.Summary{}, false
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		c.logger.Warn("dropping unreadable cache entry", "key", key, "error", err)
		c.remove(ctx, key)
		c.miss("corrupt")
		return models.Summary{}, false
	}

	if c.expired(entry) {
		c.remove(ctx, key)
		c.miss("expired")
		return models.Summary{}, false
	}

	c.hits.Add(1)
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return entry.Data, true
}

// Put stores a completed summary for (topic, date), replacing any previous
// entry. Summaries that are not completed are ignored.
func (c *Cache) Put(ctx context.Context, topic, date string, s models.Summary) {
	key := c.Key(topic, date)
	if !s.Completed() {
		c.logger.Debug("not caching unfinished summary", "key", key, "status", s.Status)
		return
	}

	data, err := json.Marshal(models.CacheEntry{
		Data:      s,
		Timestamp: c.clock.Now().UnixMilli(),
	})
	if err != nil {
		c.drop(key, err)
		return
	}
	if err := c.store.Set(ctx, key, string(data)); err != nil {
		c.drop(key, err)
		return
	}
	metrics.CacheWrites.WithLabelValues("stored").Inc()
}

// Sweep deletes every entry of the namespace that is expired or unreadable
// and returns how many were removed. Valid entries are left untouched.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	keys, err := c.namespaceKeys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil {
			c.logger.Warn("sweep read failed", "key", key, "error", err)
			continue
		}
		if !ok {
			continue
		}
		entry, err := decodeEntry(raw)
		if err == nil && !c.expired(entry) {
			continue
		}
		if err := c.store.Remove(ctx, key); err != nil {
			c.logger.Warn("sweep remove failed", "key", key, "error", err)
			continue
		}
		removed++
	}

	metrics.CacheSwept.Add(float64(removed))
	c.logger.Debug("cache swept", "scanned", len(keys), "removed", removed)
	return removed, nil
}

// Clear removes cache entries. If expiredOnly is true it behaves like Sweep.
func (c *Cache) Clear(ctx context.Context, expiredOnly bool) (int, error) {
	if expiredOnly {
		return c.Sweep(ctx)
	}
	keys, err := c.namespaceKeys(ctx)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := c.store.Remove(ctx, key); err != nil {
			return 0, fmt.Errorf("cache clear: %w", err)
		}
	}
	return len(keys), nil
}

// Stats returns the number of entries in the namespace and the lookup
// counters of this process.
func (c *Cache) Stats(ctx context.Context) (models.CacheStats, error) {
	keys, err := c.namespaceKeys(ctx)
	if err != nil {
		return models.CacheStats{}, err
	}
	return models.CacheStats{
		Entries: int64(len(keys)),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// List describes every entry of the namespace without modifying it.
func (c *Cache) List(ctx context.Context) ([]models.CacheItem, error) {
	keys, err := c.namespaceKeys(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]models.CacheItem, 0, len(keys))
	for _, key := range keys {
		item := models.CacheItem{Key: key}
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		entry, err := decodeEntry(raw)
		if err != nil {
			item.Corrupt = true
		} else {
			item.StoredAt = entry.StoredAt()
			item.Expired = c.expired(entry)
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Cache) namespaceKeys(ctx context.Context) ([]string, error) {
	all, err := c.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache enumerate: %w", err)
	}
	keys := all[:0]
	for _, k := range all {
		if strings.HasPrefix(k, c.prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (c *Cache) expired(e models.CacheEntry) bool {
	return c.clock.Now().Sub(e.StoredAt()) > c.retention
}

func (c *Cache) remove(ctx context.Context, key string) {
	if err := c.store.Remove(ctx, key); err != nil {
		c.logger.Warn("cache remove failed", "key", key, "error", err)
	}
}

func (c *Cache) miss(result string) {
	c.misses.Add(1)
	metrics.CacheLookups.WithLabelValues(result).Inc()
}

func (c *Cache) drop(key string, err error) {
	c.logger.Warn("cache write dropped", "key", key, "error", err)
	metrics.CacheWrites.WithLabelValues("dropped").Inc()
}

func decodeEntry(raw string) (models.CacheEntry, error) {
	var e models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return models.CacheEntry{}, err
	}
	if e.Timestamp <= 0 {
		return models.CacheEntry{}, fmt.Errorf("missing timestamp")
	}
	return e, nil
}
