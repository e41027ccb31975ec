package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/mycrub/daysum/pkg/models"
	"github.com/mycrub/daysum/pkg/retrieval"
)

// formatOutcome formats a completed summary with a short header.
func formatOutcome(topicID, date string, out retrieval.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %s for %s", topicID, date)
	if out.FromCache {
		b.WriteString(" (cached)")
	}
	b.WriteString("\n\n")
	b.WriteString(out.Rendered)
	b.WriteString("\n")
	return b.String()
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:  %d\n"+
		"  Hits:     %d\n"+
		"  Misses:   %d\n"+
		"  Hit Rate: %.1f%%\n",
		stats.Entries, stats.Hits, stats.Misses, hitRate)
}

func formatSweep(removed int) string {
	if removed == 0 {
		return "No expired entries."
	}
	return fmt.Sprintf("Removed %d expired entries.", removed)
}

// formatCacheItems formats cache entries as a text table.
func formatCacheItems(items []models.CacheItem, now time.Time) string {
	if len(items) == 0 {
		return "Cache is empty."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-50s %-20s %12s %s\n", "Key", "Stored", "Age", "State")
	b.WriteString(strings.Repeat("-", 92) + "\n")
	for _, it := range items {
		stored, age, state := "-", "-", "valid"
		switch {
		case it.Corrupt:
			state = "corrupt"
		case it.Expired:
			state = "expired"
		}
		if !it.Corrupt {
			stored = it.StoredAt.Format("2006-01-02 15:04:05")
			age = now.Sub(it.StoredAt).Truncate(time.Minute).String()
		}
		fmt.Fprintf(&b, "%-50s %-20s %12s %s\n", it.Key, stored, age, state)
	}
	return b.String()
}
