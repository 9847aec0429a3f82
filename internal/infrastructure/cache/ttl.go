package cache

import (
	"sync"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

type entry struct {
	candidates []domain.RetrievalCandidate
	expiresAt  time.Time
}

// TTLCache is a process-local bounded cache for ranked candidate lists.
// Entries expire after the configured TTL; there is no early invalidation,
// so staleness is bounded by the TTL alone. At capacity the entry closest to
// expiry is evicted first.
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

func NewTTLCache(maxEntries int, ttl time.Duration) *TTLCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TTLCache{
		entries:    make(map[string]entry, maxEntries),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns a copy of the cached list; callers overwrite scores downstream,
// so the stored slice is never handed out directly.
func (c *TTLCache) Get(key string) ([]domain.RetrievalCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	out := make([]domain.RetrievalCandidate, len(e.candidates))
	copy(out, e.candidates)
	return out, true
}

func (c *TTLCache) Set(key string, candidates []domain.RetrievalCandidate) {
	stored := make([]domain.RetrievalCandidate, len(candidates))
	copy(stored, candidates)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry{
		candidates: stored,
		expiresAt:  now.Add(c.ttl),
	}
}

// evictLocked drops expired entries, then the entry closest to expiry if the
// cache is still full.
func (c *TTLCache) evictLocked(now time.Time) {
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var oldestKey string
	var oldestExpiry time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.expiresAt.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = e.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
