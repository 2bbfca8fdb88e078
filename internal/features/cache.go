package features

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/courtside/internal/models"
)

// CacheKey identifies a vector within one history snapshot
type CacheKey struct {
	Snapshot uuid.UUID
	Team     string
	Opponent string
	Date     time.Time
	Home     bool
	Fixture  bool
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%t:%t", k.Snapshot, k.Team, k.Opponent, k.Date.Format(models.DateLayout), k.Home, k.Fixture)
}

// CachedEngineer memoizes vectors for a snapshot. A snapshot never changes, so
// entries only expire by TTL.
type CachedEngineer struct {
	*Engineer
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewCachedEngineer wraps an engineer with an in-memory vector cache
func NewCachedEngineer(e *Engineer, ttl time.Duration) *CachedEngineer {
	return &CachedEngineer{
		Engineer: e,
		cache:    cache.New(ttl, ttl*2),
		ttl:      ttl,
	}
}

// Build returns a cached vector or computes and stores one
func (c *CachedEngineer) Build(t Target) (Vector, error) {
	key := CacheKey{
		Snapshot: c.store.ID(),
		Team:     t.Team,
		Opponent: t.Opponent,
		Date:     models.NormalizeDate(t.Date),
		Home:     t.Home,
		Fixture:  t.Fixture,
	}.String()

	if v, found := c.cache.Get(key); found {
		if vec, ok := v.(Vector); ok {
			c.hitCount.Add(1)
			c.updateMetrics()
			return vec, nil
		}
	}
	c.missCount.Add(1)
	c.updateMetrics()

	vec, err := c.Engineer.Build(t)
	if err != nil {
		return Vector{}, err
	}
	c.cache.Set(key, vec, c.ttl)
	return vec, nil
}

// Stats returns cache statistics
func (c *CachedEngineer) Stats() (hits, misses uint64, ratio float64) {
	hits = c.hitCount.Load()
	misses = c.missCount.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of cached vectors
func (c *CachedEngineer) ItemCount() int {
	return c.cache.ItemCount()
}

// Clear flushes the cache and resets counters
func (c *CachedEngineer) Clear() {
	c.cache.Flush()
	c.hitCount.Store(0)
	c.missCount.Store(0)
}

func (c *CachedEngineer) updateMetrics() {
	_, _, ratio := c.Stats()
	FeatureCacheHitRatio.Set(ratio)
}
