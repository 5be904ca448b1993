package threads

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher loads one page of threads from upstream.
type Fetcher interface {
	ListThreads(ctx context.Context, req Request) (Page, error)
}

// Service serves the Emails view: snapshots from the cache when fresh, upstream
// otherwise, with a background refresh after every cache hit.
type Service struct {
	fetcher        Fetcher
	cache          *Cache
	log            zerolog.Logger
	refreshTimeout time.Duration

	wg      sync.WaitGroup
	mu      sync.Mutex
	warming map[Key]bool
}

type ServiceOption func(*Service)

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithRefreshTimeout bounds each background refresh.
func WithRefreshTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.refreshTimeout = d }
}

func NewService(f Fetcher, c *Cache, opts ...ServiceOption) *Service {
	s := &Service{
		fetcher:        f,
		cache:          c,
		log:            zerolog.Nop(),
		refreshTimeout: 15 * time.Second,
		warming:        make(map[Key]bool),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Cache exposes the underlying cache.
func (s *Service) Cache() *Cache { return s.cache }

// Snapshot returns the cached first window for o and q when it is fresh, kicking off
// a refresh in the background. On a miss it fetches synchronously. The bool reports
// whether the page came from the cache.
func (s *Service) Snapshot(ctx context.Context, o Owner, q Query) (Page, bool, error) {
	if o.LobbyUserID == "" {
		return Page{}, false, ErrNotLinked
	}
	key := KeyFor(o.UserID, q)
	if e, ok := s.cache.Get(key); ok {
		s.refresh(o, key.Query)
		return e.Page, true, nil
	}
	p, err := s.fetchFirst(ctx, o, key)
	return p, false, err
}

// Prefetch warms the cache for o and q. Failures are logged, never returned: the view
// fetches again on its own.
func (s *Service) Prefetch(ctx context.Context, o Owner, q Query) {
	if o.LobbyUserID == "" {
		return
	}
	key := KeyFor(o.UserID, q)
	if _, err := s.fetchFirst(ctx, o, key); err != nil {
		s.log.Warn().Err(err).Str("user_id", o.UserID).Msg("threads prefetch failed")
	}
}

// Warm prefetches in the background when the snapshot for o and q is missing or
// stale, so pages that do not show threads never wait on upstream. At most one warm-up
// per key runs at a time; Wait drains them.
func (s *Service) Warm(o Owner, q Query) {
	if o.LobbyUserID == "" {
		return
	}
	key := KeyFor(o.UserID, q)
	if _, fresh := s.cache.Get(key); fresh {
		return
	}
	s.mu.Lock()
	if s.warming[key] {
		s.mu.Unlock()
		return
	}
	s.warming[key] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.warming, key)
			s.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		s.Prefetch(ctx, o, key.Query)
	}()
}

// LoadMore grows the cached snapshot by one upstream page and writes the merged
// result back. When upstream reported nothing remaining the snapshot is returned
// as is and no request is made. Without a fresh snapshot it starts over from the
// first page.
func (s *Service) LoadMore(ctx context.Context, o Owner, q Query) (Page, error) {
	if o.LobbyUserID == "" {
		return Page{}, ErrNotLinked
	}
	key := KeyFor(o.UserID, q)
	have, ok := s.cache.Get(key)
	if !ok {
		return s.fetchFirst(ctx, o, key)
	}
	if !have.HasMore() {
		return have.Page, nil
	}
	t := s.cache.Begin(key)
	next, err := s.fetcher.ListThreads(ctx, Request{LobbyUserID: o.LobbyUserID, Cursor: have.Cursor, Query: key.Query})
	if err != nil {
		return have.Page, err
	}
	merged := Merge(have.Page, next)
	if !s.cache.Commit(t, merged) {
		s.log.Debug().Str("user_id", o.UserID).Msg("threads load-more superseded")
	}
	return merged, nil
}

// Fetch relays one page without touching the cache.
func (s *Service) Fetch(ctx context.Context, o Owner, q Query, cursor int) (Page, error) {
	if o.LobbyUserID == "" {
		return Page{}, ErrNotLinked
	}
	if cursor < 0 {
		cursor = 0
	}
	return s.fetcher.ListThreads(ctx, Request{LobbyUserID: o.LobbyUserID, Cursor: cursor, Query: q.Normalize()})
}

// Forget drops userID's snapshots, on sign-out or when their Lobby link changes.
func (s *Service) Forget(userID string) { s.cache.Forget(userID) }

// Wait blocks until background refreshes and warm-ups have finished.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) fetchFirst(ctx context.Context, o Owner, key Key) (Page, error) {
	t := s.cache.Begin(key)
	p, err := s.fetcher.ListThreads(ctx, Request{LobbyUserID: o.LobbyUserID, Query: key.Query})
	if err != nil {
		return Page{}, err
	}
	if !s.cache.Commit(t, p) {
		s.log.Debug().Str("user_id", o.UserID).Msg("threads fetch superseded")
	}
	return p, nil
}

func (s *Service) refresh(o Owner, q Query) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		if _, err := s.fetchFirst(ctx, o, KeyFor(o.UserID, q)); err != nil {
			s.log.Warn().Err(err).Str("user_id", o.UserID).Msg("threads background refresh failed")
		}
	}()
}
