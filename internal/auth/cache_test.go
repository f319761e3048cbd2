package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/amisag/internal/model"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)
	ctx := context.Background()
	s := &model.Session{ID: "s1", UserID: "user-1"}

	if err := c.Set(ctx, "k", s); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user-1")
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)

	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
	if c.Stats().Misses != 1 {
		t.Errorf("misses = %d, want 1", c.Stats().Misses)
	}
}

func TestMemoryCache_EntryOlderThanTTL_IsDropped(t *testing.T) {
	c := NewMemoryCache(5*time.Minute, 10)
	now := fixedNow
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "k", &model.Session{ID: "s1"})

	now = fixedNow.Add(5 * time.Minute)
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Fatalf("entry at exactly TTL should still be fresh: %v", err)
	}

	now = fixedNow.Add(5*time.Minute + time.Second)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
	if c.Len() != 0 {
		t.Errorf("stale entry should be removed, len = %d", c.Len())
	}
}

func TestMemoryCache_EvictsOldestWhenFull(t *testing.T) {
	c := NewMemoryCache(time.Hour, 2)
	now := fixedNow
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "first", &model.Session{ID: "1"})
	now = now.Add(time.Second)
	c.Set(ctx, "second", &model.Session{ID: "2"})
	now = now.Add(time.Second)
	c.Set(ctx, "third", &model.Session{ID: "3"})

	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if _, err := c.Get(ctx, "first"); !errors.Is(err, ErrCacheMiss) {
		t.Error("oldest entry should have been evicted")
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryCache(time.Hour, 1)
	ctx := context.Background()

	c.Set(ctx, "k", &model.Session{ID: "1"})
	c.Set(ctx, "k", &model.Session{ID: "2"})

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "2" {
		t.Errorf("ID = %q, want %q", got.ID, "2")
	}
	if c.Stats().Evictions != 0 {
		t.Errorf("evictions = %d, want 0", c.Stats().Evictions)
	}
}

// 時計が進まなくても保存順に追い出される
func TestMemoryCache_EvictsInInsertionOrderAtCapacity(t *testing.T) {
	const size = 1000
	c := NewMemoryCache(time.Hour, size)
	c.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	for i := 0; i < size+10; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), &model.Session{ID: fmt.Sprint(i)})
	}

	if c.Len() != size {
		t.Fatalf("len = %d, want %d", c.Len(), size)
	}
	for i := 0; i < 10; i++ {
		if _, err := c.Get(ctx, fmt.Sprintf("k%d", i)); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("k%d should have been evicted", i)
		}
	}
	if _, err := c.Get(ctx, "k10"); err != nil {
		t.Errorf("k10: %v", err)
	}
	if c.Stats().Evictions != 10 {
		t.Errorf("evictions = %d, want 10", c.Stats().Evictions)
	}
}

func TestMemoryCache_OverwriteRefreshesEvictionOrder(t *testing.T) {
	c := NewMemoryCache(time.Hour, 2)
	ctx := context.Background()

	c.Set(ctx, "a", &model.Session{ID: "1"})
	c.Set(ctx, "b", &model.Session{ID: "2"})
	c.Set(ctx, "a", &model.Session{ID: "3"})
	c.Set(ctx, "c", &model.Session{ID: "4"})

	if _, err := c.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Error("b should have been evicted")
	}
	if got, err := c.Get(ctx, "a"); err != nil || got.ID != "3" {
		t.Errorf("a = %+v, %v", got, err)
	}
}

func TestMemoryCache_RemovedEntriesFreeCapacity(t *testing.T) {
	c := NewMemoryCache(time.Minute, 2)
	now := fixedNow
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "a", &model.Session{ID: "1"})
	c.Set(ctx, "b", &model.Session{ID: "2"})
	c.Delete(ctx, "a")
	c.Set(ctx, "c", &model.Session{ID: "3"})
	if c.Stats().Evictions != 0 {
		t.Fatalf("evictions = %d, want 0", c.Stats().Evictions)
	}

	// 期限切れで破棄されたエントリも容量を空ける
	now = now.Add(2 * time.Minute)
	if _, err := c.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("b: err = %v, want ErrCacheMiss", err)
	}
	c.Set(ctx, "d", &model.Session{ID: "4"})
	if c.Stats().Evictions != 0 || c.Len() != 2 {
		t.Errorf("evictions = %d len = %d, want 0 and 2", c.Stats().Evictions, c.Len())
	}

	c.Set(ctx, "e", &model.Session{ID: "5"})
	if c.Stats().Evictions != 1 || c.Len() != 2 {
		t.Errorf("evictions = %d len = %d, want 1 and 2", c.Stats().Evictions, c.Len())
	}
	if _, err := c.Get(ctx, "d"); err != nil {
		t.Errorf("d: %v", err)
	}
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache(time.Hour, 10)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), &model.Session{})
	}

	c.Delete(ctx, "k0")
	c.Delete(ctx, "absent")
	if c.Stats().Deletes != 1 {
		t.Errorf("deletes = %d, want 1", c.Stats().Deletes)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", c.Len())
	}
}

func TestNewMemoryCache_Defaults(t *testing.T) {
	c := NewMemoryCache(0, 0)
	st := c.Stats()
	if st.TTL != DefaultCacheTTL {
		t.Errorf("TTL = %v, want %v", st.TTL, DefaultCacheTTL)
	}
	if c.maxSize != DefaultCacheMaxSize {
		t.Errorf("maxSize = %d, want %d", c.maxSize, DefaultCacheMaxSize)
	}
}
