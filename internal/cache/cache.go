package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stanley00316/election-system-demo-sub004/internal/monitoring"
)

// Store is a byte cache with a fixed TTL per entry
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ReportKey identifies a cached report. The data version changes on every
// campaign write so entries for older data are never read again.
func ReportKey(campaignID string, dataVersion int64, period string) string {
	hash := md5.Sum([]byte(period))
	return fmt.Sprintf("report:%s:v%d:%x", campaignID, dataVersion, hash[:6])
}

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Cache provides thread-safe caching with TTL
type Cache struct {
	mu    sync.RWMutex
	items map[string]*CacheItem
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewCache creates a new cache with the specified TTL. Close stops the sweeper.
func NewCache(ttl time.Duration) *Cache {
	return newCache(ttl, 5*time.Minute)
}

func newCache(ttl, sweepEvery time.Duration) *Cache {
	cache := &Cache{
		items: make(map[string]*CacheItem),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go cache.cleanup(sweepEvery)

	return cache
}

// cleanup removes expired items periodically
func (c *Cache) cleanup(every time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		if item.IsExpired(now) {
			delete(c.items, key)
		}
	}
}

// Get retrieves an item from the cache
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}
	if item.IsExpired(c.now()) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	return item.Data, true, nil
}

// Set stores an item in the cache
func (c *Cache) Set(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Delete removes an item from the cache
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*CacheItem)
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Close stops the background sweeper and waits for it to exit
func (c *Cache) Close() error {
	c.once.Do(func() {
		close(c.stop)
		<-c.done
	})
	return nil
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalItems := len(c.items)
	expiredItems := 0

	for _, item := range c.items {
		if item.IsExpired(now) {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// KeyFunc derives the cache key for a request. ok=false bypasses the cache.
type KeyFunc func(c *gin.Context) (key string, ok bool)

// Middleware serves cached 200 responses for GET requests and stores fresh
// ones. Store errors never fail the request.
func Middleware(store Store, keyFn KeyFunc, metrics *monitoring.Metrics, logger *monitoring.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		cacheKey, ok := keyFn(ctx)
		if !ok {
			ctx.Next()
			return
		}

		cachedData, found, err := store.Get(ctx.Request.Context(), cacheKey)
		if err != nil {
			logger.Warn("Cache read failed", "key", cacheKey, "error", err)
		}
		if found {
			logger.CacheLogger("get", cacheKey, true)
			metrics.IncrementCacheHit()
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", cachedData)
			ctx.Abort()
			return
		}

		logger.CacheLogger("get", cacheKey, false)
		metrics.IncrementCacheMiss()

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Header("X-Cache", "MISS")
		ctx.Next()

		if wrapper.Status() == http.StatusOK && len(ctx.Errors) == 0 {
			if err := store.Set(ctx.Request.Context(), cacheKey, wrapper.body.Bytes()); err != nil {
				logger.Warn("Cache write failed", "key", cacheKey, "error", err)
				return
			}
			logger.CacheLogger("set", cacheKey, false)
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
