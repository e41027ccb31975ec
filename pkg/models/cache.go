package models

import "time"

// CacheEntry is the stored representation of a cached summary.
type CacheEntry struct {
	Data      Summary `json:"data"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// StoredAt returns the write time of the entry.
func (e CacheEntry) StoredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// CacheStats reports cache contents and lookup counters.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// CacheItem describes one key in the cache namespace, for listing.
type CacheItem struct {
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
	Expired  bool      `json:"expired"`
	Corrupt  bool      `json:"corrupt"`
}
