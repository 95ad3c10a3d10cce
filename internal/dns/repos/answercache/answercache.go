// Package answercache caches resolved answers behind an LRU. Keys carry
// the zone serial, so answers from superseded versions simply age out
// instead of needing explicit invalidation on publish.
package answercache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/az-dns/internal/dns/common/clock"
	"github.com/haukened/az-dns/internal/dns/domain"
	"github.com/haukened/az-dns/internal/dns/services/resolver"
)

type entry struct {
	answer  domain.Answer
	expires time.Time
}

// Cache is a TTL-aware LRU of resolved answers.
type Cache struct {
	lru   *lru.Cache[string, entry]
	clock clock.Clock
}

// New returns a Cache holding at most size answers. A nil clk selects
// the real clock.
func New(size int, clk clock.Clock) (*Cache, error) {
	backing, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Cache{lru: backing, clock: clk}, nil
}

// Get returns the cached answer for key if present and not expired.
// Expired entries are evicted on access.
func (c *Cache) Get(key string) (domain.Answer, bool) {
	e, found := c.lru.Get(key)
	if !found {
		return domain.Answer{}, false
	}
	if !c.clock.Now().Before(e.expires) {
		c.lru.Remove(key)
		return domain.Answer{}, false
	}
	return e.answer, true
}

// Set stores answer under key for the lifetime of its smallest TTL.
// Answers with no positive TTL are not cached.
func (c *Cache) Set(key string, answer domain.Answer) {
	ttl := answer.MinTTL()
	if ttl == 0 {
		return
	}
	c.lru.Add(key, entry{
		answer:  answer,
		expires: c.clock.Now().Add(time.Duration(ttl) * time.Second),
	})
}

// Len returns the number of cached answers, including any not yet
// evicted expired entries.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops every cached answer.
func (c *Cache) Purge() { c.lru.Purge() }

var _ resolver.AnswerCache = (*Cache)(nil)
