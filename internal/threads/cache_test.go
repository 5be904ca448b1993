package threads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache() (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewCache(DefaultTTL, WithClock(clk.Now)), clk
}

func page(ids ...string) Page {
	p := Page{Cursor: len(ids), Count: len(ids) + 10, Remaining: 10}
	for _, id := range ids {
		p.Results = append(p.Results, Thread{ID: id})
	}
	return p
}

func TestCacheSetGetWithinTTL(t *testing.T) {
	c, clk := newTestCache()
	key := KeyFor("u1", DefaultQuery())

	c.Set(key, page("a", "b"))
	clk.Advance(59 * time.Second)

	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, page("a", "b"), e.Page)
	assert.True(t, e.StoredAt.Equal(clk.Now().Add(-59*time.Second)))
}

func TestCacheGetAfterTTL(t *testing.T) {
	c, clk := newTestCache()
	key := KeyFor("u1", DefaultQuery())
	c.Set(key, page("a"))

	clk.Advance(DefaultTTL)
	_, ok := c.Get(key)
	assert.False(t, ok, "entry is stale once the TTL has fully elapsed")

	// Expiry does not evict on read.
	assert.Equal(t, 1, c.Len())

	c.Set(key, page("b"))
	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "b", e.Results[0].ID)
}

func TestCacheClear(t *testing.T) {
	c, _ := newTestCache()
	k1 := KeyFor("u1", DefaultQuery())
	k2 := KeyFor("u2", DefaultQuery())
	c.Set(k1, page("a"))
	c.Set(k2, page("b"))

	c.Clear()

	_, ok := c.Get(k1)
	assert.False(t, ok)
	_, ok = c.Get(k2)
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get(k1)
	assert.False(t, ok)
}

func TestCacheKeysAreIsolated(t *testing.T) {
	c, _ := newTestCache()
	c.Set(KeyFor("u1", DefaultQuery()), page("mine"))

	_, ok := c.Get(KeyFor("u2", DefaultQuery()))
	assert.False(t, ok, "another user must not see u1's snapshot")

	_, ok = c.Get(KeyFor("u1", Query{Limit: 10, SortField: "Created Date"}))
	assert.False(t, ok, "a different query must not share the slot")

	e, ok := c.Get(KeyFor("u1", Query{}))
	require.True(t, ok, "zero query normalizes to the default query")
	assert.Equal(t, "mine", e.Results[0].ID)
}

func TestCacheSetOverwrites(t *testing.T) {
	c, _ := newTestCache()
	key := KeyFor("u1", DefaultQuery())
	c.Set(key, page("a", "b", "c"))
	c.Set(key, page("d"))

	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Len(t, e.Results, 1)
	assert.Equal(t, "d", e.Results[0].ID)
}

func TestCacheGetReturnsCopy(t *testing.T) {
	c, _ := newTestCache()
	key := KeyFor("u1", DefaultQuery())
	c.Set(key, page("a"))

	e, _ := c.Get(key)
	e.Results[0].ID = "mutated"

	again, _ := c.Get(key)
	assert.Equal(t, "a", again.Results[0].ID)
}

func TestCacheCommitOnlyNewestTicket(t *testing.T) {
	c, _ := newTestCache()
	key := KeyFor("u1", DefaultQuery())

	prefetch := c.Begin(key)
	view := c.Begin(key)

	assert.True(t, c.Commit(view, page("fresh")))
	assert.False(t, c.Commit(prefetch, page("stale")), "older ticket must not overwrite")

	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "fresh", e.Results[0].ID)
}

func TestCacheCommitSupersededBySetForgetClear(t *testing.T) {
	c, _ := newTestCache()
	key := KeyFor("u1", DefaultQuery())

	t1 := c.Begin(key)
	c.Set(key, page("direct"))
	assert.False(t, c.Commit(t1, page("late")))

	t2 := c.Begin(key)
	c.Forget("u1")
	assert.False(t, c.Commit(t2, page("late")))
	_, ok := c.Get(key)
	assert.False(t, ok)

	t3 := c.Begin(key)
	c.Clear()
	assert.False(t, c.Commit(t3, page("late")))
	_, ok = c.Get(key)
	assert.False(t, ok)

	t4 := c.Begin(key)
	assert.True(t, c.Commit(t4, page("ok")))
}

func TestCacheForgetOnlyTouchesOneUser(t *testing.T) {
	c, _ := newTestCache()
	other := KeyFor("u2", DefaultQuery())
	c.Set(KeyFor("u1", DefaultQuery()), page("a"))
	c.Set(other, page("b"))
	pending := c.Begin(other)

	c.Forget("u1")

	_, ok := c.Get(other)
	assert.True(t, ok)
	assert.True(t, c.Commit(pending, page("c")))
}

func TestCacheStoreSweepsExpiredEntries(t *testing.T) {
	c, clk := newTestCache()
	c.Set(KeyFor("u1", DefaultQuery()), page("a"))
	clk.Advance(2 * DefaultTTL)

	c.Set(KeyFor("u2", DefaultQuery()), page("b"))
	assert.Equal(t, 1, c.Len())
}

func TestCacheSweepsAbandonedTickets(t *testing.T) {
	c, clk := newTestCache()
	for _, u := range []string{"u1", "u2", "u3"} {
		c.Begin(KeyFor(u, DefaultQuery()))
	}
	abandoned := c.Begin(KeyFor("u1", Query{Limit: 10, SortField: "Important"}))
	require.Len(t, c.seq, 4)

	clk.Advance(DefaultTTL)
	c.Set(KeyFor("u4", DefaultQuery()), page("d"))
	assert.Len(t, c.seq, 1, "only the key just written keeps its ticket record")

	assert.False(t, c.Commit(abandoned, page("late")), "a swept ticket cannot commit")
	next := c.Begin(KeyFor("u1", Query{Limit: 10, SortField: "Important"}))
	assert.True(t, c.Commit(next, page("ok")))
}

func TestCacheKeepsTicketsForLiveKeys(t *testing.T) {
	c, clk := newTestCache()
	live := KeyFor("u1", DefaultQuery())
	c.Set(live, page("a"))
	pending := c.Begin(KeyFor("u2", DefaultQuery()))

	clk.Advance(DefaultTTL / 2)
	c.Set(KeyFor("u3", DefaultQuery()), page("c"))

	assert.Len(t, c.seq, 3)
	assert.True(t, c.Commit(pending, page("b")))
}

func TestCacheForgetAndClearDropTicketRecords(t *testing.T) {
	c, _ := newTestCache()
	c.Set(KeyFor("u1", DefaultQuery()), page("a"))
	c.Begin(KeyFor("u1", Query{Limit: 10, SortField: "Important"}))
	c.Begin(KeyFor("u2", DefaultQuery()))

	c.Forget("u1")
	assert.Len(t, c.seq, 1)

	c.Clear()
	assert.Empty(t, c.seq)
}

func TestNewCacheDefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewCache(0).TTL())
	assert.Equal(t, 5*time.Second, NewCache(5*time.Second).TTL())
}
