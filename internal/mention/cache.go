package mention

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedDirectory remembers successful lookups for a bounded time. Misses
// are never cached, so a newly registered agent is resolvable immediately.
type CachedDirectory struct {
	next  Directory
	cache *expirable.LRU[string, string]
}

func NewCachedDirectory(next Directory, size int, ttl time.Duration) *CachedDirectory {
	if size <= 0 {
		size = 1024
	}
	return &CachedDirectory{
		next:  next,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *CachedDirectory) LookupAgent(ctx context.Context, name string) (string, bool, error) {
	if id, ok := c.cache.Get(name); ok {
		return id, true, nil
	}
	id, ok, err := c.next.LookupAgent(ctx, name)
	if err != nil || !ok {
		return "", false, err
	}
	c.cache.Add(name, id)
	return id, true, nil
}

// Forget drops a cached name, e.g. after the agent was deleted.
func (c *CachedDirectory) Forget(name string) {
	c.cache.Remove(name)
}
