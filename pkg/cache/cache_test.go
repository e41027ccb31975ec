package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mycrub/daysum/pkg/clock"
	"github.com/mycrub/daysum/pkg/models"
	"github.com/mycrub/daysum/pkg/store"
)

var epoch = time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T) (*Cache, *store.Memory, *clock.Fake) {
	t.Helper()
	s := store.NewMemory(0)
	clk := clock.NewFake(epoch)
	return New(s, WithClock(clk)), s, clk
}

func completed(text string) models.Summary {
	return models.Summary{Status: models.StatusCompleted, Summary: text}
}

func TestKey(t *testing.T) {
	c, _, _ := newTestCache(t)
	if got := c.Key("12#34#567", "2024-01-10"); got != "hfr_summary_12#34#567_2024-01-10" {
		t.Errorf("unexpected key %q", got)
	}
	if c.Key("1#2#3", "2024-01-10") == c.Key("1#2#3", "2024-01-11") {
		t.Error("different dates must produce different keys")
	}
	if c.Key("1#2#3", "2024-01-10") == c.Key("1#2#34", "2024-01-10") {
		t.Error("different topics must produce different keys")
	}
}

func TestPutAndGet(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	pairs := []struct{ topic, date string }{
		{"12#34#567", "2024-01-10"},
		{"12#34#567", "2024-01-09"},
		{"1#2#3", "2024-01-10"},
	}
	for _, p := range pairs {
		c.Put(ctx, p.topic, p.date, completed("summary of "+p.topic+" on "+p.date))
	}
	for _, p := range pairs {
		got, ok := c.Get(ctx, p.topic, p.date)
		if !ok {
			t.Fatalf("expected cache hit for %s/%s", p.topic, p.date)
		}
		if got != completed("summary of "+p.topic+" on "+p.date) {
			t.Errorf("unexpected payload: %+v", got)
		}
	}

	if _, ok := c.Get(ctx, "12#34#567", "2024-01-08"); ok {
		t.Error("expected cache miss for unknown date")
	}
}

func TestPutOverwrites(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "1#2#3", "2024-01-10", completed("first"))
	c.Put(ctx, "1#2#3", "2024-01-10", completed("second"))

	got, ok := c.Get(ctx, "1#2#3", "2024-01-10")
	if !ok || got.Summary != "second" {
		t.Errorf("expected overwritten payload, got %+v (hit=%v)", got, ok)
	}
}

func TestPutIgnoresUnfinished(t *testing.T) {
	c, s, _ := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "1#2#3", "2024-01-10", models.Summary{Status: models.StatusInProgress})
	c.Put(ctx, "1#2#3", "2024-01-09", models.Summary{Status: models.StatusError})

	keys, _ := s.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("expected no stored entries, got %v", keys)
	}
}

func TestExpiryOnRead(t *testing.T) {
	c, s, clk := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "1#2#3", "2024-01-10", completed("old"))

	clk.Advance(DefaultRetention)
	if _, ok := c.Get(ctx, "1#2#3", "2024-01-10"); !ok {
		t.Fatal("entry exactly at the retention boundary should still be valid")
	}

	clk.Advance(time.Millisecond)
	if _, ok := c.Get(ctx, "1#2#3", "2024-01-10"); ok {
		t.Fatal("expected miss after retention window")
	}

	keys, _ := s.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("expired entry should have been removed, store holds %v", keys)
	}
}

func TestCorruptEntryRemovedOnRead(t *testing.T) {
	c, s, _ := newTestCache(t)
	ctx := context.Background()

	key := c.Key("1#2#3", "2024-01-10")
	for _, raw := range []string{"not json", `{"data":{"status":"completed"}}`} {
		_ = s.Set(ctx, key, raw)
		if _, ok := c.Get(ctx, "1#2#3", "2024-01-10"); ok {
			t.Errorf("expected miss for unreadable entry %q", raw)
		}
		if _, ok, _ := s.Get(ctx, key); ok {
			t.Errorf("unreadable entry %q should have been deleted", raw)
		}
	}
}

func TestSweep(t *testing.T) {
	c, s, clk := newTestCache(t)
	ctx := context.Background()

	// Ages at sweep time: 10d, 8d, 7d, 3d, 0d.
	ages := []struct {
		date string
		age  time.Duration
	}{
		{"2024-01-01", 10 * 24 * time.Hour},
		{"2024-01-02", 8 * 24 * time.Hour},
		{"2024-01-03", 7 * 24 * time.Hour},
		{"2024-01-04", 3 * 24 * time.Hour},
		{"2024-01-05", 0},
	}
	for _, a := range ages {
		clk.Set(epoch.Add(-a.age))
		c.Put(ctx, "1#2#3", a.date, completed(a.date))
	}
	clk.Set(epoch)

	_ = s.Set(ctx, c.Key("1#2#3", "2024-01-06"), "{broken")
	_ = s.Set(ctx, "unrelated_key", "{broken")

	removed, err := c.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed (two stale, one corrupt), got %d", removed)
	}

	for _, a := range ages {
		_, present, _ := s.Get(ctx, c.Key("1#2#3", a.date))
		want := a.age <= DefaultRetention
		if present != want {
			t.Errorf("entry aged %v: present=%v, want %v", a.age, present, want)
		}
	}
	if _, ok, _ := s.Get(ctx, "unrelated_key"); !ok {
		t.Error("sweep must not touch keys outside the namespace")
	}

	removed, err = c.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("second sweep should be a no-op, removed %d", removed)
	}
}

func TestStats(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "1#2#3", "2024-01-10", completed("data"))
	c.Get(ctx, "1#2#3", "2024-01-10") // hit
	c.Get(ctx, "1#2#3", "2024-01-09") // miss

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestClear(t *testing.T) {
	c, s, _ := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "1#2#3", "2024-01-10", completed("a"))
	c.Put(ctx, "1#2#3", "2024-01-09", completed("b"))
	_ = s.Set(ctx, "other", "x")

	n, err := c.Clear(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
	stats, _ := c.Stats(ctx)
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.Entries)
	}
	if _, ok, _ := s.Get(ctx, "other"); !ok {
		t.Error("clear must not touch keys outside the namespace")
	}
}

func TestList(t *testing.T) {
	c, s, clk := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, "1#2#3", "2024-01-10", completed("fresh"))
	clk.Set(epoch.Add(-8 * 24 * time.Hour))
	c.Put(ctx, "1#2#3", "2024-01-02", completed("stale"))
	clk.Set(epoch)
	_ = s.Set(ctx, c.Key("1#2#3", "2024-01-03"), "???")

	items, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	byKey := map[string]models.CacheItem{}
	for _, it := range items {
		byKey[it.Key] = it
	}
	if it := byKey[c.Key("1#2#3", "2024-01-10")]; it.Expired || it.Corrupt {
		t.Errorf("fresh entry reported as %+v", it)
	}
	if it := byKey[c.Key("1#2#3", "2024-01-02")]; !it.Expired {
		t.Errorf("stale entry reported as %+v", it)
	}
	if it := byKey[c.Key("1#2#3", "2024-01-03")]; !it.Corrupt {
		t.Errorf("corrupt entry reported as %+v", it)
	}
}

func TestSQLiteBackedCache(t *testing.T) {
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clk := clock.NewFake(epoch)
	c := New(s, WithClock(clk), WithRetention(time.Hour))
	ctx := context.Background()

	c.Put(ctx, "1#2#3", "2024-01-10", completed("persisted"))
	got, ok := c.Get(ctx, "1#2#3", "2024-01-10")
	if !ok || got.Summary != "persisted" {
		t.Fatalf("expected hit, got %+v (hit=%v)", got, ok)
	}

	clk.Advance(2 * time.Hour)
	if _, ok := c.Get(ctx, "1#2#3", "2024-01-10"); ok {
		t.Error("expected miss after custom retention")
	}
}

func TestFullStoreDropsWrite(t *testing.T) {
	s := store.NewMemory(1)
	c := New(s, WithClock(clock.NewFake(epoch)))
	ctx := context.Background()

	c.Put(ctx, "1#2#3", "2024-01-10", completed("fits"))
	c.Put(ctx, "1#2#3", "2024-01-09", completed("dropped"))

	if _, ok := c.Get(ctx, "1#2#3", "2024-01-09"); ok {
		t.Error("write to a full store should be dropped")
	}
	if _, ok := c.Get(ctx, "1#2#3", "2024-01-10"); !ok {
		t.Error("earlier entry should survive")
	}
}

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	c, _, _ := newTestCache(t)
	if _, err := NewSweeper(c, "not a schedule", nil); err == nil {
		t.Error("expected error for invalid schedule")
	}
	sw, err := NewSweeper(c, "@hourly", nil)
	if err != nil {
		t.Fatal(err)
	}
	sw.Start()
	sw.Stop()
}
