package dnscache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-fwd/internal/dns/common/clock"
	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

// Entry is one cached question and the record stored for it.
type Entry struct {
	Question domain.Question
	Record   domain.ResourceRecord
}

// dnsCache is a TTL-aware answer cache bounded by an LRU. It holds at most one
// record per question. Expiry is lazy: an entry is only removed when a lookup
// observes it past its expiration instant.
type dnsCache struct {
	mu    sync.Mutex
	lru   *lru.Cache[domain.QuestionKey, Entry]
	clock clock.Clock
}

// New returns a cache holding at most size questions.
func New(size int, clk clock.Clock) (*dnsCache, error) {
	cache, err := lru.New[domain.QuestionKey, Entry](size)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = &clock.RealClock{}
	}
	return &dnsCache{lru: cache, clock: clk}, nil
}

// Contains reports whether a live entry exists for q. An expired entry is
// removed before returning false.
func (c *dnsCache) Contains(q domain.Question) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.liveLocked(q.Key(), c.clock.Now())
	return ok
}

// Get returns the stored record for q without checking expiry. Call it only
// after Contains reported true; Lookup does both atomically.
func (c *dnsCache) Get(q domain.Question) (domain.ResourceRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(q.Key())
	if !ok {
		return domain.ResourceRecord{}, false
	}
	return e.Record.Clone(), true
}

// Put inserts or overwrites the entry for q. Expiry is not checked here.
func (c *dnsCache) Put(q domain.Question, rr domain.ResourceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(q.Key(), Entry{Question: q, Record: rr.Clone()})
}

// Lookup is Contains followed by Get in one critical section. It also returns
// the lifetime left on the record.
func (c *dnsCache) Lookup(q domain.Question) (domain.ResourceRecord, time.Duration, bool) {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.liveLocked(q.Key(), now)
	if !ok {
		return domain.ResourceRecord{}, 0, false
	}
	return e.Record.Clone(), e.Record.Remaining(now), true
}

func (c *dnsCache) liveLocked(key domain.QuestionKey, now time.Time) (Entry, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return Entry{}, false
	}
	if !e.Record.ValidAt(now) {
		c.lru.Remove(key)
		return Entry{}, false
	}
	return e, true
}

// Delete removes the entry for q.
func (c *dnsCache) Delete(q domain.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(q.Key())
}

// Len returns the number of stored questions, expired ones included.
func (c *dnsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops every entry.
func (c *dnsCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Entries returns copies of all stored entries from least to most recently
// used. Recency is not updated.
func (c *dnsCache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := c.lru.Keys()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if e, ok := c.lru.Peek(k); ok {
			out = append(out, Entry{Question: e.Question, Record: e.Record.Clone()})
		}
	}
	return out
}

var _ resolver.Cache = (*dnsCache)(nil)
