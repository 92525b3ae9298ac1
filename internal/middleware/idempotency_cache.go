package middleware

import (
	"sync"
	"time"
)

// cachedResponse stores a cached HTTP response for idempotency.
type cachedResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Timestamp  time.Time
}

type cacheState int

const (
	cacheMiss cacheState = iota
	cacheHit
	cacheInFlight
)

// idempotencyCache stores responses by key and tracks keys whose first request is still running.
type idempotencyCache struct {
	mu       sync.Mutex
	items    map[string]*cachedResponse
	inFlight map[string]struct{}
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// newIdempotencyCache creates a new idempotency cache and starts its cleanup loop.
func newIdempotencyCache(ttl time.Duration) *idempotencyCache {
	c := &idempotencyCache{
		items:    make(map[string]*cachedResponse),
		inFlight: make(map[string]struct{}),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	go c.startCleanup()
	return c
}

// Get retrieves a live cached response.
func (c *idempotencyCache) Get(key string) (*cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *idempotencyCache) getLocked(key string) (*cachedResponse, bool) {
	resp, ok := c.items[key]
	if !ok || time.Since(resp.Timestamp) > c.ttl {
		return nil, false
	}
	return resp, true
}

// Begin returns the cached response, reports a running first request, or claims the key.
func (c *idempotencyCache) Begin(key string) (*cachedResponse, cacheState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if resp, ok := c.getLocked(key); ok {
		return resp, cacheHit
	}
	if _, ok := c.inFlight[key]; ok {
		return nil, cacheInFlight
	}
	c.inFlight[key] = struct{}{}
	return nil, cacheMiss
}

// Set stores a response and releases the key.
func (c *idempotencyCache) Set(key string, resp *cachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp.Timestamp = time.Now()
	c.items[key] = resp
	delete(c.inFlight, key)
}

// Release gives up a claimed key without storing a response.
func (c *idempotencyCache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)
}

// Stop ends the cleanup loop.
func (c *idempotencyCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *idempotencyCache) startCleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// cleanup removes expired entries.
func (c *idempotencyCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, resp := range c.items {
		if now.Sub(resp.Timestamp) > c.ttl {
			delete(c.items, key)
		}
	}
}
