// Package swr is the cache-backed data layer: a keyed store with
// stale-while-revalidate reads, request deduplication, and a synchronous
// mutation primitive for optimistic updates. It is the single source of
// truth for what the server currently thinks the data is; components never
// hold a second copy of server state.
package swr

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher produces the value for a key from the network.
type Fetcher[V any] func(ctx context.Context) (V, error)

// Update is delivered to subscribers whenever a key's entry changes. A
// failed fetch carries Err while Data keeps the last good value.
type Update[V any] struct {
	Data    V
	HasData bool
	Err     error
}

// DefaultFreshWindow is how long a cached value is served without any
// network traffic; within it concurrent fetches also collapse.
const DefaultFreshWindow = 5 * time.Second

// Store caches values per composite key. All mutation goes through Fetch,
// Mutate and Invalidate; the zero value is not usable, construct with New.
type Store[V any] struct {
	fresh time.Duration
	log   zerolog.Logger
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[V]
	wg      sync.WaitGroup
}

type entry[V any] struct {
	data      V
	hasData   bool
	err       error
	fetchedAt time.Time

	// issued counts requests started for this key; a response applies only
	// if its sequence number still equals issued, i.e. no newer request has
	// been started since. Superseded responses are discarded on arrival
	// rather than cancelled.
	issued   uint64
	inflight *flight[V]
	fetcher  Fetcher[V]

	subs    map[int]chan Update[V]
	nextSub int
}

type flight[V any] struct {
	seq  uint64
	done chan struct{}
	data V
	err  error
}

// New constructs a Store. fresh <= 0 uses DefaultFreshWindow.
func New[V any](fresh time.Duration, log zerolog.Logger) *Store[V] {
	if fresh <= 0 {
		fresh = DefaultFreshWindow
	}
	return &Store[V]{
		fresh:   fresh,
		log:     log,
		now:     time.Now,
		entries: make(map[string]*entry[V]),
	}
}

// Fetch returns the value for key. A fresh cached value is returned as-is; a
// stale one is returned immediately while a background revalidation runs; a
// miss blocks on the network. Concurrent calls for the same key share one
// in-flight request. fn is remembered so Mutate can revalidate later.
func (s *Store[V]) Fetch(ctx context.Context, key string, fn Fetcher[V]) (V, error) {
	s.mu.Lock()
	e := s.ensureLocked(key)
	e.fetcher = fn

	if e.hasData && s.now().Sub(e.fetchedAt) < s.fresh {
		hitsTotal.Inc()
		v := e.data
		s.mu.Unlock()
		return v, nil
	}

	if e.hasData {
		// Stale-while-revalidate: serve what we have, refresh behind it.
		if e.inflight == nil {
			s.launchLocked(key, e)
		}
		v := e.data
		s.mu.Unlock()
		return v, nil
	}

	f := e.inflight
	if f != nil {
		dedupedTotal.Inc()
	} else {
		missesTotal.Inc()
		f = s.launchLocked(key, e)
	}
	s.mu.Unlock()

	var zero V
	select {
	case <-f.done:
		if f.err != nil {
			return zero, f.err
		}
		return f.data, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Get returns the cached value without touching the network; callers use it
// to capture pre-mutation snapshots for rollback.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.hasData {
		return e.data, true
	}
	var zero V
	return zero, false
}

// Err returns the last fetch error surfaced for key, if any.
func (s *Store[V]) Err(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.err
	}
	return nil
}

// Mutate synchronously applies updater to the cached value, supporting
// optimistic writes. With revalidate true a background refetch reconciles
// with the server afterwards; with false the value stands until the caller
// reconciles or rolls back. Returns false when nothing is cached for key.
func (s *Store[V]) Mutate(key string, updater func(V) V, revalidate bool) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || !e.hasData {
		s.mu.Unlock()
		return false
	}
	e.data = updater(e.data)
	s.notifyLocked(e)
	if revalidate && e.fetcher != nil {
		// Supersedes any in-flight request: its response will be discarded
		// on arrival rather than cancelled.
		s.launchLocked(key, e)
	}
	s.mu.Unlock()
	return true
}

// Revalidate triggers a background refetch for key using the remembered
// fetcher. No-op while a request is already in flight.
func (s *Store[V]) Revalidate(key string) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && e.fetcher != nil && e.inflight == nil {
		s.launchLocked(key, e)
	}
	s.mu.Unlock()
}

// Invalidate drops the entry for key; used on filter or user change.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Subscribe registers for updates on key. The returned cancel must be
// called on unmount; when the last subscriber leaves, the entry is torn
// down (no persistence across sessions).
func (s *Store[V]) Subscribe(key string) (<-chan Update[V], func()) {
	s.mu.Lock()
	e := s.ensureLocked(key)
	id := e.nextSub
	e.nextSub++
	ch := make(chan Update[V], 16)
	e.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur == e {
			delete(e.subs, id)
			if len(e.subs) == 0 {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close waits for outstanding background fetches to settle.
func (s *Store[V]) Close() {
	s.wg.Wait()
}

func (s *Store[V]) ensureLocked(key string) *entry[V] {
	e, ok := s.entries[key]
	if !ok {
		e = &entry[V]{subs: make(map[int]chan Update[V])}
		s.entries[key] = e
	}
	return e
}

// launchLocked starts a request for key. The response is applied only if it
// is still the most recent request when it lands; older responses lose.
func (s *Store[V]) launchLocked(key string, e *entry[V]) *flight[V] {
	e.issued++
	f := &flight[V]{seq: e.issued, done: make(chan struct{})}
	e.inflight = f
	fn := e.fetcher

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		data, err := fn(context.Background())

		s.mu.Lock()
		f.data, f.err = data, err
		if cur, ok := s.entries[key]; ok && cur == e {
			if e.inflight == f {
				e.inflight = nil
			}
			if f.seq == e.issued {
				if err != nil {
					// Error surfaces to subscribers; stale data stays.
					e.err = err
					s.log.Debug().Err(err).Str("key", key).Msg("fetch failed, keeping cached data")
				} else {
					e.data = data
					e.hasData = true
					e.err = nil
					e.fetchedAt = s.now()
				}
				s.notifyLocked(e)
			} else {
				discardedTotal.Inc()
			}
		}
		s.mu.Unlock()
		close(f.done)
	}()
	return f
}

func (s *Store[V]) notifyLocked(e *entry[V]) {
	u := Update[V]{Data: e.data, HasData: e.hasData, Err: e.err}
	for _, ch := range e.subs {
		select {
		case ch <- u:
		default:
			// Slow subscriber; it will catch up on the next update.
		}
	}
}
