package biz

import (
	"sync"
	"time"

	"kire/cmd/routing-engine/internal/domain"
)

// RoutingCacheStats 缓存统计
type RoutingCacheStats struct {
	Size      int64
	Hits      int64
	Misses    int64
	Stores    int64
	Evictions int64
}

// RoutingCache 路由决策缓存（带TTL的内存缓存）
type RoutingCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
	maxSize int

	statsMu sync.Mutex
	stats   RoutingCacheStats

	stopCh chan struct{}
}

// NewRoutingCache 创建路由缓存
func NewRoutingCache(maxSize int) *RoutingCache {
	if maxSize <= 0 {
		maxSize = 1000
	}

	c := &RoutingCache{
		entries: make(map[string]*domain.CacheEntry),
		maxSize: maxSize,
		stopCh:  make(chan struct{}),
	}

	go c.cleanupExpired()

	return c
}

// Get 按键获取决策
func (c *RoutingCache) Get(key string) (*domain.RouteDecision, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	// 过期条目读到即删，不等周期清理，避免继续占用容量并虚高Size
	if entry.Expired(time.Now()) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Decision, true
}

// Put 写入决策
func (c *RoutingCache) Put(key string, decision *domain.RouteDecision, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c.mu.Lock()
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = &domain.CacheEntry{
		Key:      key,
		Decision: decision,
		StoredAt: time.Now(),
		TTL:      ttl,
	}
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.Stores++
	c.statsMu.Unlock()
}

// Stats 返回统计快照
func (c *RoutingCache) Stats() RoutingCacheStats {
	c.statsMu.Lock()
	snapshot := c.stats
	c.statsMu.Unlock()

	c.mu.RLock()
	snapshot.Size = int64(len(c.entries))
	c.mu.RUnlock()

	return snapshot
}

// Close 停止后台清理
func (c *RoutingCache) Close() {
	close(c.stopCh)
}

// evictOldest 驱逐最早过期的条目（持锁调用）
func (c *RoutingCache) evictOldest() {
	var oldestKey string
	var oldestExpiry time.Time
	first := true

	for key, entry := range c.entries {
		expiry := entry.StoredAt.Add(entry.TTL)
		if first || expiry.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = expiry
			first = false
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.statsMu.Lock()
		c.stats.Evictions++
		c.statsMu.Unlock()
	}
}

// cleanupExpired 周期清理过期条目
func (c *RoutingCache) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if entry.Expired(now) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

func (c *RoutingCache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
}

func (c *RoutingCache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
}
