package interp

import (
	"math/big"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oisee/seqmine/pkg/oeis"
)

// DefaultCacheCapacity bounds the per-worker result cache. Entries are
// pure functions of their keys, so eviction never affects correctness.
const DefaultCacheCapacity = 100_000

type cacheEntry struct {
	output *big.Int
	steps  uint64
}

// Cache memoizes (oeisId, input) -> (output, stepCount) for programs
// with an OEIS identifier. Anonymous mining candidates are never
// stored; their lookups count as anonymous misses. A cache belongs to
// one worker and is not safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]

	hits     uint64
	missOeis uint64
	missAnon uint64
}

// NewCache creates a bounded LRU cache.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	entries, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		panic(err)
	}
	return &Cache{entries: entries}
}

func cacheKey(id oeis.ID, input *big.Int) string {
	return id.ANumber() + "/" + input.String()
}

func (c *Cache) get(id oeis.ID, input *big.Int) (cacheEntry, bool) {
	return c.entries.Get(cacheKey(id, input))
}

func (c *Cache) put(id oeis.ID, input, output *big.Int, steps uint64) {
	entry := cacheEntry{output: new(big.Int).Set(output), steps: steps}
	c.entries.Add(cacheKey(id, input), entry)
}

func (c *Cache) countHit()           { c.hits++ }
func (c *Cache) countMissOeis()      { c.missOeis++ }
func (c *Cache) countMissAnonymous() { c.missAnon++ }

// Hits returns the number of lookups served from the cache.
func (c *Cache) Hits() uint64 { return c.hits }

// MissesOeis returns the misses for OEIS-identified programs; each of
// these stored a fresh entry.
func (c *Cache) MissesOeis() uint64 { return c.missOeis }

// MissesAnonymous returns the runs of programs that can never be cached.
func (c *Cache) MissesAnonymous() uint64 { return c.missAnon }

// Len returns the number of stored entries.
func (c *Cache) Len() int { return c.entries.Len() }

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	c.entries.Purge()
	c.hits = 0
	c.missOeis = 0
	c.missAnon = 0
}
