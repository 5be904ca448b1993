package threads

import (
	"sync"
	"time"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = 60 * time.Second

// Key scopes a snapshot to one user and one query.
type Key struct {
	UserID string
	Query  Query
}

// KeyFor builds the cache key for an owner and query. The query is normalized so
// equivalent requests share a slot.
func KeyFor(userID string, q Query) Key {
	return Key{UserID: userID, Query: q.Normalize()}
}

// Entry is a cached snapshot and the instant it was written.
type Entry struct {
	Page
	StoredAt time.Time
}

// Ticket is issued before an upstream request starts. Only the newest ticket for a
// key can commit its result.
type Ticket struct {
	key Key
	seq uint64
}

// issued records the newest ticket handed out for a key.
type issued struct {
	n  uint64
	at time.Time
}

// Cache holds thread list snapshots keyed by user and query, each valid for a fixed
// TTL. Writes fully replace the previous snapshot for a key.
//
// Ordering between concurrent fetches is settled with tickets: Begin hands out a
// number from one cache-wide counter and Commit drops any result whose ticket is no
// longer the newest for its key. Set, Forget and Clear also invalidate outstanding
// tickets, so a response that lands after a sign-out never repopulates the cache.
// A key's ticket record is swept once it has no snapshot and its last ticket is a
// TTL old; a result that slow is dropped.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]Entry
	seq     map[Key]issued
	next    uint64
}

type CacheOption func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache returns an empty cache. A ttl <= 0 means DefaultTTL.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Key]Entry),
		seq:     make(map[Key]issued),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL reports the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the snapshot for key while it is younger than the TTL. An expired
// entry is reported absent but left in place; the next write replaces it.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.fresh(e, c.now()) {
		return Entry{}, false
	}
	e.Page = e.Page.clone()
	return e, true
}

// Set stores page for key, stamped now, replacing whatever was there. Tickets issued
// for key before the call can no longer commit.
func (c *Cache) Set(key Key, page Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issue(key)
	c.store(key, page)
}

// Begin issues a ticket for an upstream request about to start for key.
func (c *Cache) Begin(key Key) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Ticket{key: key, seq: c.issue(key)}
}

// Commit stores page if t is still the newest ticket for its key and reports
// whether it did.
func (c *Cache) Commit(t Ticket, page Page) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq[t.key].n != t.seq {
		return false
	}
	c.store(t.key, page)
	return true
}

// Forget drops every snapshot owned by userID and invalidates that user's
// outstanding tickets.
func (c *Cache) Forget(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.UserID == userID {
			delete(c.entries, k)
		}
	}
	for k := range c.seq {
		if k.UserID == userID {
			delete(c.seq, k)
		}
	}
}

// Clear empties the cache and invalidates every outstanding ticket.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]Entry)
	c.seq = make(map[Key]issued)
}

// Len counts stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// issue runs under c.mu and returns a ticket number no earlier ticket shares.
func (c *Cache) issue(key Key) uint64 {
	c.next++
	c.seq[key] = issued{n: c.next, at: c.now()}
	return c.next
}

// store writes under c.mu and sweeps other expired entries so keys that are never
// read again do not pile up. Ticket records go with them once they are a TTL old.
func (c *Cache) store(key Key, page Page) {
	now := c.now()
	for k, e := range c.entries {
		if k != key && !c.fresh(e, now) {
			delete(c.entries, k)
		}
	}
	for k, is := range c.seq {
		if _, ok := c.entries[k]; !ok && k != key && now.Sub(is.at) >= c.ttl {
			delete(c.seq, k)
		}
	}
	c.entries[key] = Entry{Page: page.clone(), StoredAt: now}
}

func (c *Cache) fresh(e Entry, now time.Time) bool {
	return now.Sub(e.StoredAt) < c.ttl
}
