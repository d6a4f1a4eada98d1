// file: internal/admission/recent.go
// version: 1.1.0
// guid: 3e5f7a9b-1c2d-4e6f-8a0b-2c4d6e8f0a1b

package admission

import (
	"sync"
	"time"
)

const (
	// DefaultDuplicateWindow is how long a URL is considered a duplicate.
	DefaultDuplicateWindow = 30 * time.Second
	// DefaultEntryTTL is how long entries live before opportunistic GC.
	DefaultEntryTTL = 60 * time.Second
)

// RecentURLCache suppresses duplicate submissions of the exact URL string
// within a short window. The suppression is global, not per-user: two users
// submitting the same URL inside the window are deduplicated together. That
// is a documented limitation carried over deliberately.
type RecentURLCache struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	ttl    time.Duration
	now    func() time.Time
}

// NewRecentURLCache creates a cache with the default window and TTL.
func NewRecentURLCache() *RecentURLCache {
	return &RecentURLCache{
		seen:   make(map[string]time.Time),
		window: DefaultDuplicateWindow,
		ttl:    DefaultEntryTTL,
		now:    time.Now,
	}
}

// SeenRecently reports whether the URL was submitted within the duplicate
// window, records this submission, and garbage-collects expired entries.
func (c *RecentURLCache) SeenRecently(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	last, ok := c.seen[url]
	dup := ok && now.Sub(last) < c.window

	if !dup {
		c.seen[url] = now
	}

	for u, ts := range c.seen {
		if now.Sub(ts) > c.ttl {
			delete(c.seen, u)
		}
	}

	return dup
}
