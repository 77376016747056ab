package utility

import (
	"sync"
	"time"
)

// cacheItem là một giá trị kèm hạn sử dụng
type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// Cache là cache key-value trong process với TTL theo từng item.
// Janitor chạy nền xóa các item đã hết hạn theo chu kỳ cleanup.
type Cache struct {
	items    map[string]cacheItem
	mu       sync.RWMutex
	ttl      time.Duration
	stopChan chan struct{}
}

// NewCache tạo một instance mới của Cache và khởi động janitor
func NewCache(ttl, cleanup time.Duration) *Cache {
	cache := &Cache{
		items:    make(map[string]cacheItem),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	go cache.cleanupLoop(cleanup)
	return cache
}

// Set lưu giá trị vào cache với hạn sử dụng ttl tính từ lúc set
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Get lấy giá trị từ cache; item hết hạn coi như không tồn tại
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// cleanupLoop xóa các item hết hạn theo chu kỳ
func (c *Cache) cleanupLoop(cleanup time.Duration) {
	ticker := time.NewTicker(cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
