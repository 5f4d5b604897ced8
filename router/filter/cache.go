package filter

import (
	"os"
	"strconv"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the LRU capacity for compiled wildcard matchers,
// overridable by WPLROUTER_GLOB_CACHE_SIZE.
const DefaultCacheSize = 256

const cacheSizeEnv = "WPLROUTER_GLOB_CACHE_SIZE"

// MatchCache holds compiled gobwas/glob matchers for `=*` wildcard
// patterns. It is meant to be owned by a single worker goroutine — one
// MatchCache per worker, never shared — so lookups need no locking.
type MatchCache struct {
	lru *lru.Cache[string, glob.Glob]
}

// NewMatchCache builds a cache sized from WPLROUTER_GLOB_CACHE_SIZE, or
// DefaultCacheSize if unset/invalid.
func NewMatchCache() *MatchCache {
	size := DefaultCacheSize
	if v := os.Getenv(cacheSizeEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	c, _ := lru.New[string, glob.Glob](size)
	return &MatchCache{lru: c}
}

// Match compiles (or reuses a cached compile of) pattern and reports
// whether s matches it. A malformed pattern never matches rather than
// panicking or erroring the whole filter evaluation.
func (c *MatchCache) Match(pattern, s string) bool {
	g, ok := c.lru.Get(pattern)
	if !ok {
		compiled, err := glob.Compile(pattern, '.')
		if err != nil {
			return false
		}
		g = compiled
		c.lru.Add(pattern, g)
	}
	return g.Match(s)
}
