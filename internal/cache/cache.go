package cache

import (
	"sort"
	"sync"
	"time"

	"genweb/internal/content"
	"genweb/internal/metrics"
)

const (
	DefaultTTL         = time.Hour
	DefaultContextSize = 10
)

// Cache maps request paths to generated content and keeps a bounded,
// most-recent-first window of the latest generations.
//
// Design principles:
// - Safe for concurrent access using a single mutex
// - Expired entries are purged on read; RemoveExpired is memory hygiene only
// - The context window is shared across paths and only shrinks by capacity
type Cache struct {
	mu          sync.Mutex
	data        map[string]Entry
	context     []ContextEntry
	ttl         time.Duration
	contextSize int
	metrics     *metrics.Registry
}

// New initializes a Cache. Non-positive ttl or contextSize fall back to
// the defaults.
func New(ttl time.Duration, contextSize int, metricsRegistry *metrics.Registry) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if contextSize <= 0 {
		contextSize = DefaultContextSize
	}
	return &Cache{
		data:        make(map[string]Entry),
		context:     make([]ContextEntry, 0, contextSize),
		ttl:         ttl,
		contextSize: contextSize,
		metrics:     metricsRegistry,
	}
}

// Get returns the entry for path if it is younger than the TTL.
// An expired entry is deleted and reported as missing.
func (c *Cache) Get(path string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.data[path]
	if !exists {
		c.metrics.Inc(metrics.CacheMissesTotal)
		return Entry{}, false
	}

	if entry.IsExpired(time.Now(), c.ttl) {
		delete(c.data, path)
		c.metrics.Inc(metrics.CacheExpiredTotal)
		c.metrics.Inc(metrics.CacheMissesTotal)
		c.metrics.Set(metrics.CacheEntries, int64(len(c.data)))
		return Entry{}, false
	}

	c.metrics.Inc(metrics.CacheHitsTotal)
	return entry, true
}

// Peek is Get without hit and miss accounting. Expired entries are
// reported missing but left for the sweeper.
func (c *Cache) Peek(path string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.data[path]
	if !exists || entry.IsExpired(time.Now(), c.ttl) {
		return Entry{}, false
	}
	return entry, true
}

// Set stores content under path and prepends it to the rolling context,
// dropping the oldest context entry beyond capacity.
func (c *Cache) Set(path, body string, contentType content.Type) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[path] = Entry{
		Path:        path,
		Content:     body,
		ContentType: contentType,
		CreatedAt:   now,
	}

	ctxEntry := ContextEntry{Path: path, Content: body, CreatedAt: now}
	if len(c.context) < c.contextSize {
		c.context = append(c.context, ContextEntry{})
	}
	copy(c.context[1:], c.context)
	c.context[0] = ctxEntry

	c.metrics.Inc(metrics.CacheSetsTotal)
	c.metrics.Set(metrics.CacheEntries, int64(len(c.data)))
	c.metrics.Set(metrics.ContextEntries, int64(len(c.context)))
}

// Context returns a copy of the rolling window, most recent first.
func (c *Cache) Context() []ContextEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ContextEntry, len(c.context))
	copy(out, c.context)
	return out
}

// Delete removes path from the cache. The context window is left alone.
func (c *Cache) Delete(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[path]; !ok {
		return false
	}
	delete(c.data, path)
	c.metrics.Set(metrics.CacheEntries, int64(len(c.data)))
	return true
}

// List returns the live entries sorted by path.
// Used by the admin API.
func (c *Cache) List() []Entry {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.data))
	for _, e := range c.data {
		if !e.IsExpired(now, c.ttl) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// RemoveExpired removes all expired entries.
//
// Called by the background sweeper.
func (c *Cache) RemoveExpired() int {
	now := time.Now()
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.data {
		if v.IsExpired(now, c.ttl) {
			delete(c.data, k)
			removed++
		}
	}

	if removed > 0 {
		c.metrics.Add(metrics.CacheExpiredTotal, int64(removed))
		c.metrics.Set(metrics.CacheEntries, int64(len(c.data)))
	}

	return removed
}
