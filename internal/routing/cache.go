package routing

import (
	"regexp"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/flowmesh/etl-router/pkg/metrics"
)

// DefaultCacheSize bounds the number of distinct regex patterns a
// ConditionMatcher will keep compiled at once. The spec only requires a
// cache keyed by pattern string; bounding it with an LRU policy protects
// against an unbounded number of distinct patterns accumulating over the
// router's lifetime.
const DefaultCacheSize = 1024

// regexCache is a size-bounded cache of compiled regexes keyed by pattern
// string. golang-lru's Cache is already safe for concurrent use, so this
// wrapper only adds atomic hit/miss counters for observability. A cache
// miss never blocks evaluation: the caller falls back to on-demand
// compilation and simply skips populating the cache if that compile also
// fails.
type regexCache struct {
	cache *lru.Cache[string, *regexp.Regexp]
	m     *metrics.MatcherMetrics

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newRegexCache(size int, m *metrics.MatcherMetrics) *regexCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := lru.New[string, *regexp.Regexp](size)
	return &regexCache{cache: c, m: m}
}

func (c *regexCache) get(pattern string) (*regexp.Regexp, bool) {
	re, ok := c.cache.Get(pattern)
	if ok {
		c.hits.Add(1)
		if c.m != nil {
			c.m.RegexCacheHits.Inc()
		}
	} else {
		c.misses.Add(1)
		if c.m != nil {
			c.m.RegexCacheMisses.Inc()
		}
	}
	return re, ok
}

func (c *regexCache) put(pattern string, re *regexp.Regexp) {
	c.cache.Add(pattern, re)
}

// CacheStats reports cumulative hit/miss counts for the cache.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

func (c *regexCache) stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: c.cache.Len()}
}
