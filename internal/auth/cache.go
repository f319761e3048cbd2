package auth

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hitoshi/amisag/internal/model"
)

// ErrCacheMiss はキャッシュにエントリが存在しないことを表す。
var ErrCacheMiss = errors.New("session cache miss")

const (
	// DefaultCacheTTL はキャッシュしたセッションの鮮度の上限。
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheMaxSize はメモリキャッシュの最大エントリ数。
	DefaultCacheMaxSize = 500
)

// SessionCache はトークンハッシュをキーにしたセッションキャッシュ。
// キャッシュヒット時も有効期限の判定はValidatorが毎回行う。
type SessionCache interface {
	Get(ctx context.Context, key string) (*model.Session, error)
	Set(ctx context.Context, key string, session *model.Session) error
	Delete(ctx context.Context, key string) error
}

// CacheStats はキャッシュの統計情報。
type CacheStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64
	Size      int
	TTL       time.Duration
}

type cachedSession struct {
	key      string
	session  *model.Session
	cachedAt time.Time
}

// MemoryCache はプロセス内のセッションキャッシュ。
// 各エントリはTTLを過ぎると読み出し時に破棄される。
// order は保存順に並び、容量超過時は先頭を追い出すため Set は O(1) で済む。
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

// NewMemoryCache はMemoryCacheを生成する。
// ttl、maxSizeが0以下の場合はデフォルト値を使用する。
func NewMemoryCache(ttl time.Duration, maxSize int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	return &MemoryCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get はキャッシュからセッションを取得する。
func (c *MemoryCache) Get(_ context.Context, key string) (*model.Session, error) {
	c.mu.RLock()
	elem, ok := c.entries[key]
	var entry *cachedSession
	if ok {
		entry = elem.Value.(*cachedSession)
	}
	c.mu.RUnlock()

	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrCacheMiss
	}

	if c.now().Sub(entry.cachedAt) > c.ttl {
		atomic.AddInt64(&c.misses, 1)
		c.mu.Lock()
		// 読み出しとロック取得の間に再設定されていないか確認する
		if cur, ok := c.entries[key]; ok && cur.Value == entry {
			c.removeLocked(cur)
		}
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	atomic.AddInt64(&c.hits, 1)
	return entry.session, nil
}

// Set はセッションをキャッシュに保存する。
// 容量を超える場合は最も古く保存されたエントリを1件追い出す。
// 既存キーの上書きはそのエントリを最新として扱う。
func (c *MemoryCache) Set(_ context.Context, key string, session *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cachedSession{
		key:      key,
		session:  session,
		cachedAt: c.now(),
	}

	if elem, exists := c.entries[key]; exists {
		// Getが保持している古いエントリと区別できるよう値ごと差し替える
		elem.Value = entry
		c.order.MoveToBack(elem)
	} else {
		if len(c.entries) >= c.maxSize {
			c.evictOldestLocked()
		}
		c.entries[key] = c.order.PushBack(entry)
	}
	atomic.AddInt64(&c.sets, 1)
	return nil
}

// Delete はキャッシュからセッションを削除する。
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
		atomic.AddInt64(&c.deletes, 1)
	}
	return nil
}

// Clear は全エントリを削除する。
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len は現在のエントリ数を返す。
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats はキャッシュの統計情報を返す。
func (c *MemoryCache) Stats() CacheStats {
	return CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Deletes:   atomic.LoadInt64(&c.deletes),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      c.Len(),
		TTL:       c.ttl,
	}
}

func (c *MemoryCache) evictOldestLocked() {
	if front := c.order.Front(); front != nil {
		c.removeLocked(front)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *MemoryCache) removeLocked(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*cachedSession).key)
}

var _ SessionCache = (*MemoryCache)(nil)
