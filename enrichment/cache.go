package enrichment

import (
	"sync"
	"time"

	"twcompany/metrics"
)

// CacheConfig конфигурация кэша карточек
type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	TTL             time.Duration `json:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// DetailCache кэш карточек компаний по 統一編號
type DetailCache struct {
	config *CacheConfig
	data   map[string]*cacheEntry
	mutex  sync.RWMutex
	stats  *CacheStats
	now    func() time.Time
	done   chan struct{}
	once   sync.Once
}

type cacheEntry struct {
	detail    *Detail
	timestamp time.Time
}

// CacheStats статистика кэша
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// NewDetailCache создает новый кэш
func NewDetailCache(config *CacheConfig) *DetailCache {
	cache := &DetailCache{
		config: config,
		data:   make(map[string]*cacheEntry),
		stats:  &CacheStats{},
		now:    time.Now,
		done:   make(chan struct{}),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go cache.startCleanup()
	}

	return cache
}

// Get возвращает карточку из кэша
func (c *DetailCache) Get(id string) (*Detail, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.config.Enabled {
		c.stats.Misses++
		metrics.DetailCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	entry, exists := c.data[id]
	if !exists || c.now().Sub(entry.timestamp) > c.config.TTL {
		c.stats.Misses++
		metrics.DetailCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	c.stats.Hits++
	metrics.DetailCacheLookupsTotal.WithLabelValues("hit").Inc()
	return entry.detail, true
}

// Set сохраняет карточку в кэш
func (c *DetailCache) Set(id string, detail *Detail) {
	if !c.config.Enabled || detail == nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[id] = &cacheEntry{
		detail:    detail,
		timestamp: c.now(),
	}
	c.stats.Size = len(c.data)
}

// GetStats возвращает статистику кэша
func (c *DetailCache) GetStats() *CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := *c.stats
	stats.Size = len(c.data)
	return &stats
}

// Close останавливает фоновую очистку
func (c *DetailCache) Close() {
	c.once.Do(func() { close(c.done) })
}

// startCleanup запускает периодическую очистку устаревших записей
func (c *DetailCache) startCleanup() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

// cleanup удаляет устаревшие записи
func (c *DetailCache) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for id, entry := range c.data {
		if now.Sub(entry.timestamp) > c.config.TTL {
			delete(c.data, id)
		}
	}

	c.stats.Size = len(c.data)
}
