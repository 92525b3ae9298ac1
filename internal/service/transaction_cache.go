package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/metrics"
)

// Defaults for CachedTransactionSource.
const (
	DefaultTransactionCacheSize = 1024
	DefaultTransactionCacheTTL  = 5 * time.Minute
)

// CacheStats counts cache outcomes.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
}

// CachedTransactionSource is a read-through LRU cache with TTL in front of another source.
// Scanning stations reprint the same transaction repeatedly; writes go through and refresh the entry.
type CachedTransactionSource struct {
	next TransactionSource
	now  func() time.Time

	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*txEntry
	head     *txEntry
	tail     *txEntry

	hits      int64
	misses    int64
	evictions int64
}

type txEntry struct {
	key       string
	value     model.Transaction
	expiresAt time.Time
	prev      *txEntry
	next      *txEntry
}

var _ TransactionSource = (*CachedTransactionSource)(nil)

// NewCachedTransactionSource wraps next; non-positive size or ttl use the defaults.
func NewCachedTransactionSource(next TransactionSource, size int, ttl time.Duration) *CachedTransactionSource {
	if size <= 0 {
		size = DefaultTransactionCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultTransactionCacheTTL
	}
	return &CachedTransactionSource{
		next:     next,
		now:      time.Now,
		capacity: size,
		ttl:      ttl,
		items:    make(map[string]*txEntry, size),
	}
}

// Get implements TransactionSource. Misses, including unknown transactions, are not cached.
func (c *CachedTransactionSource) Get(ctx context.Context, company, transactionNo string) (model.Transaction, error) {
	key := transactionKey(company, transactionNo)
	if tx, ok := c.lookup(key); ok {
		return tx, nil
	}

	tx, err := c.next.Get(ctx, company, transactionNo)
	if err != nil {
		return model.Transaction{}, err
	}
	c.store(key, tx)
	return tx, nil
}

// Put implements TransactionSource.
func (c *CachedTransactionSource) Put(ctx context.Context, tx model.Transaction) error {
	key := transactionKey(tx.Company, tx.TransactionNo)
	if err := c.next.Put(ctx, tx); err != nil {
		c.Invalidate(tx.Company, tx.TransactionNo)
		return err
	}
	c.store(key, tx)
	return nil
}

// List implements TransactionSource and always reads through.
func (c *CachedTransactionSource) List(ctx context.Context, company string, limit int) ([]model.Transaction, error) {
	return c.next.List(ctx, company, limit)
}

// Invalidate drops one transaction from the cache.
func (c *CachedTransactionSource) Invalidate(company, transactionNo string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[transactionKey(company, transactionNo)]; ok {
		c.removeEntry(e)
		metrics.RecordCacheOperation("invalidate", "success")
	}
}

// Stats returns the current counters.
func (c *CachedTransactionSource) Stats() CacheStats {
	c.mu.Lock()
	size := len(c.items)
	c.mu.Unlock()

	return CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      size,
		Capacity:  c.capacity,
	}
}

func (c *CachedTransactionSource) lookup(key string) (model.Transaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		metrics.RecordCacheOperation("get", "miss")
		return model.Transaction{}, false
	}
	if c.now().After(e.expiresAt) {
		c.removeEntry(e)
		atomic.AddInt64(&c.misses, 1)
		metrics.RecordCacheOperation("get", "expired")
		return model.Transaction{}, false
	}

	c.moveToFront(e)
	atomic.AddInt64(&c.hits, 1)
	metrics.RecordCacheOperation("get", "hit")
	return e.value, true
}

func (c *CachedTransactionSource) store(key string, tx model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if e, ok := c.items[key]; ok {
		e.value = tx
		e.expiresAt = expires
		c.moveToFront(e)
		return
	}

	e := &txEntry{key: key, value: tx, expiresAt: expires}
	c.items[key] = e
	c.addToFront(e)

	if len(c.items) > c.capacity {
		c.removeEntry(c.tail)
		atomic.AddInt64(&c.evictions, 1)
		metrics.RecordCacheOperation("evict", "capacity")
	}
	metrics.RecordCacheOperation("set", "success")
}

// The list helpers require c.mu.

func (c *CachedTransactionSource) removeEntry(e *txEntry) {
	delete(c.items, e.key)
	c.unlink(e)
}

func (c *CachedTransactionSource) moveToFront(e *txEntry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *CachedTransactionSource) addToFront(e *txEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *CachedTransactionSource) unlink(e *txEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
