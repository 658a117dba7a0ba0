package pattern

import (
	"sync"
	"sync/atomic"
)

// CacheInfo describes the pattern set a Cache was initialised with
type CacheInfo struct {
	Patterns    int
	Fingerprint uint64
}

type cacheEntry struct {
	matcher *Matcher
	info    CacheInfo
}

// Cache holds one combined matcher for its whole lifetime.
//
// The first successful GetOrInit compiles and stores the matcher. Every later call
// returns that same matcher whatever patterns it is given; the cache is keyed on
// "initialised", not on pattern content, and is never invalidated.
//
// A failed initialisation leaves the cache empty so a later call can retry.
// The zero value is ready to use.
type Cache struct {
	mu    sync.Mutex
	entry atomic.Pointer[cacheEntry]
}

var defaultCache Cache

// Default returns the process-wide cache
func Default() *Cache {
	return &defaultCache
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{}
}

// GetOrInit returns the stored matcher, compiling patterns on first use
func (c *Cache) GetOrInit(patterns PatternSet) (*Matcher, error) {
	return c.GetOrInitFunc(func() (PatternSet, error) {
		return patterns, nil
	})
}

// GetOrInitFunc is GetOrInit with deferred pattern production.
// load runs only while the cache is empty, at most once per initialisation attempt.
func (c *Cache) GetOrInitFunc(load func() (PatternSet, error)) (*Matcher, error) {
	if e := c.entry.Load(); e != nil {
		return e.matcher, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have finished while we waited
	if e := c.entry.Load(); e != nil {
		return e.matcher, nil
	}

	patterns, err := load()
	if err != nil {
		return nil, &Error{Kind: KindCacheInit, Err: err}
	}

	m, err := CompileCombined(patterns)
	if err != nil {
		return nil, &Error{Kind: KindCacheInit, Err: err}
	}

	c.entry.Store(&cacheEntry{
		matcher: m,
		info: CacheInfo{
			Patterns:    len(patterns),
			Fingerprint: patterns.Fingerprint(),
		},
	})

	return m, nil
}

// Load returns the stored matcher without initialising
func (c *Cache) Load() (*Matcher, bool) {
	e := c.entry.Load()
	if e == nil {
		return nil, false
	}
	return e.matcher, true
}

// Info returns what the cache was initialised with
func (c *Cache) Info() (CacheInfo, bool) {
	e := c.entry.Load()
	if e == nil {
		return CacheInfo{}, false
	}
	return e.info, true
}

// Initialized reports whether a matcher is stored
func (c *Cache) Initialized() bool {
	return c.entry.Load() != nil
}
