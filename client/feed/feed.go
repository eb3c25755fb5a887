// Package feed maintains the reverse-chronological memo list: infinite
// scroll pagination in the default mode, one full in-memory snapshot when a
// filter is active, and the optimistic create/update/delete workflows that
// keep the cache consistent with the server.
package feed

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"memopad/client"
	"memopad/client/swr"
	"memopad/client/view"
)

// Pages is the cached value for one (user, search, date) context: the
// ordered pages fetched so far. In filter mode there is exactly one page
// carrying the full snapshot.
type Pages = []client.ListResult

// ErrEmptyMessage rejects a create/update whose body is empty or the
// editor's empty-paragraph sentinel.
var ErrEmptyMessage = errors.New("message is empty")

// DefaultPageSize matches the backend's default.
const DefaultPageSize = 10

// Controller owns the list view's data. It is wired with an explicit store
// reference at the composition root; it never keeps a second copy of server
// state outside the store.
type Controller struct {
	api   *client.Client
	store *swr.Store[Pages]
	state *view.State
	log   zerolog.Logger
	deb   *client.Debouncer
	now   func() time.Time

	pageSize int

	mu      sync.Mutex
	userID  string
	loading bool
	lastErr error
	// pending holds the rollback snapshot per debounce key while a debounced
	// mutation is outstanding. Coalesced repeat edits reuse the first
	// snapshot, so a failure rolls back to the last server-confirmed state
	// rather than to an unsent optimistic edit.
	pending map[string]Pages

	// OnError and OnSuccess are the toast-notification hooks; both may be
	// nil. Every surfaced failure goes through OnError — nothing is
	// swallowed.
	OnError   func(op string, err error)
	OnSuccess func(op string)
}

// Option configures a Controller.
type Option func(*Controller)

func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.deb = client.NewDebouncer(d) }
}

func WithState(s *view.State) Option {
	return func(c *Controller) { c.state = s }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func withClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(api *client.Client, store *swr.Store[Pages], userID string, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		store:    store,
		state:    view.NewState(),
		log:      api.Logger(),
		deb:      client.NewDebouncer(client.DefaultDebounce),
		now:      time.Now,
		pageSize: DefaultPageSize,
		userID:   userID,
		pending:  make(map[string]Pages),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State exposes the filter/hover model for UI wiring.
func (c *Controller) State() *view.State { return c.state }

// Close cancels pending debounced mutations and waits for in-flight ones.
func (c *Controller) Close() { c.deb.Stop() }

// fetchContext pins the (user, search, date) context a cache key encodes.
// Fetchers close over it rather than reading the controller's live filter
// state, so a revalidation for a key always fetches that key's data even
// when the user has switched filters since it was scheduled.
type fetchContext struct {
	userID string
	search string
	date   string
}

func (fc fetchContext) filtered() bool { return fc.search != "" || fc.date != "" }

func (c *Controller) currentContext() fetchContext {
	c.mu.Lock()
	user := c.userID
	c.mu.Unlock()
	return fetchContext{userID: user, search: c.state.Search(), date: c.state.Date()}
}

// keyFor identifies the cache entry for one (resource, search, date, user)
// context; the pages inside it cover the page dimension.
func (c *Controller) keyFor(fc fetchContext) string {
	vals := url.Values{}
	vals.Set("userId", fc.userID)
	vals.Set("pageSize", strconv.Itoa(c.pageSize))
	if fc.search != "" {
		vals.Set("message", fc.search)
	}
	if fc.date != "" {
		vals.Set("date", fc.date)
	}
	return "/api/getMemo?" + vals.Encode()
}

func (c *Controller) cacheKey() string { return c.keyFor(c.currentContext()) }

func (c *Controller) queryFor(fc fetchContext, pageIndex int) client.ListQuery {
	return client.ListQuery{
		UserID:   fc.userID,
		Message:  fc.search,
		Page:     pageIndex + 1,
		PageSize: c.pageSize,
		Full:     pageIndex == 0,
	}
}

// GetKey returns the fetch key for pageIndex, or "" to terminate
// pagination: in filter mode beyond the first page, and once the last known
// page reported no further data.
func (c *Controller) GetKey(pageIndex int) string {
	if c.state.FilterActive() && pageIndex > 0 {
		return ""
	}
	if pages, ok := c.store.Get(c.cacheKey()); ok && pageIndex > 0 {
		if pageIndex >= len(pages) && len(pages) > 0 && !pages[len(pages)-1].HasMore {
			return ""
		}
	}

	q := c.queryFor(c.currentContext(), pageIndex)
	vals := url.Values{}
	vals.Set("userId", q.UserID)
	vals.Set("page", strconv.Itoa(q.Page))
	vals.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Message != "" {
		vals.Set("message", q.Message)
	}
	if q.Full {
		vals.Set("full", "true")
	}
	return "/api/getMemo?" + vals.Encode()
}

// fetcherFor builds the store fetcher for one key: it refetches every
// currently-loaded page so a revalidation reconciles the whole window, not
// just page one. Filter contexts always collapse to the single full-snapshot
// page.
func (c *Controller) fetcherFor(key string, fc fetchContext) swr.Fetcher[Pages] {
	return func(ctx context.Context) (Pages, error) {
		n := 1
		if !fc.filtered() {
			if prev, ok := c.store.Get(key); ok && len(prev) > 1 {
				n = len(prev)
			}
		}

		out := make(Pages, 0, n)
		for i := 0; i < n; i++ {
			res, err := c.api.GetMemos(ctx, c.queryFor(fc, i))
			if err != nil {
				return nil, err
			}
			out = append(out, *res)
			if !res.HasMore {
				break
			}
		}
		return out, nil
	}
}

// Load performs the initial fetch (or serves the cache) for the current
// filter context.
func (c *Controller) Load(ctx context.Context) error {
	fc := c.currentContext()
	key := c.keyFor(fc)
	_, err := c.store.Fetch(ctx, key, c.fetcherFor(key, fc))
	c.setErr(err)
	if err != nil {
		c.fail("load", err)
	}
	return err
}

// LoadMore fetches the next page when there is one. Guards: never in filter
// mode, never past a page that reported hasMore false, and never while a
// load is already in flight — concurrent calls coalesce into the first.
func (c *Controller) LoadMore(ctx context.Context) error {
	if c.state.FilterActive() {
		return nil
	}

	fc := c.currentContext()
	key := c.keyFor(fc)
	pages, ok := c.store.Get(key)
	if !ok || len(pages) == 0 {
		return c.Load(ctx)
	}
	if !pages[len(pages)-1].HasMore {
		return nil
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	res, err := c.api.GetMemos(ctx, c.queryFor(fc, len(pages)))
	if err != nil {
		c.setErr(err)
		c.fail("loadMore", err)
		return err
	}

	loaded := len(pages)
	c.store.Mutate(key, func(p Pages) Pages {
		if len(p) != loaded {
			// A revalidation rewrote the window while we were fetching.
			return p
		}
		return append(slices.Clone(p), *res)
	}, false)
	c.setErr(nil)
	return nil
}

// OnSentinelVisible is the scroll trigger: call it when the sentinel element
// below the list becomes visible. Same guards as LoadMore.
func (c *Controller) OnSentinelVisible(ctx context.Context) {
	if err := c.LoadMore(ctx); err != nil {
		c.log.Debug().Err(err).Msg("sentinel load failed")
	}
}

// SetSearch activates the text filter (clearing any selected date) and
// switches the list to full-snapshot mode.
func (c *Controller) SetSearch(v string) {
	c.state.SetSearch(v)
	c.setErr(nil)
}

// SetDate selects a heatmap day (clearing any search text).
func (c *Controller) SetDate(d string) {
	c.state.SetDate(d)
	c.setErr(nil)
}

// ClearFilter restores the unfiltered, paginated view.
func (c *Controller) ClearFilter() {
	c.state.Clear()
	c.setErr(nil)
}

// SetUser switches the owning user: filters reset and the old user's cache
// entry is dropped.
func (c *Controller) SetUser(userID string) {
	old := c.cacheKey()
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
	c.state.Clear()
	c.store.Invalidate(old)
}

// Memos materializes the current view: the filtered full snapshot when a
// filter is active, the concatenated pages otherwise.
func (c *Controller) Memos() []client.Memo {
	pages, ok := c.store.Get(c.cacheKey())
	if !ok || len(pages) == 0 {
		return nil
	}

	if c.state.FilterActive() {
		full := pages[0].FullData
		if full == nil {
			full = pages[0].Data
		}
		return view.Filter(full, c.state.Search(), c.state.Date())
	}

	var out []client.Memo
	for _, p := range pages {
		out = append(out, p.Data...)
	}
	return out
}

// TotalCount reports the scroll-independent total for the current context.
func (c *Controller) TotalCount() int {
	if pages, ok := c.store.Get(c.cacheKey()); ok && len(pages) > 0 {
		return pages[0].TotalCount
	}
	return 0
}

// HasMore reports whether further pages exist.
func (c *Controller) HasMore() bool {
	if pages, ok := c.store.Get(c.cacheKey()); ok && len(pages) > 0 {
		return pages[len(pages)-1].HasMore
	}
	return false
}

// Err returns the last surfaced failure, cleared by the next user action.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Create runs the optimistic create workflow: a temporary record with a
// client-generated id is prepended immediately; on success the server id
// replaces it in place, on failure the pre-mutation snapshot is restored.
// Creating also clears any active filter so the new memo is visible on top.
func (c *Controller) Create(ctx context.Context, message string) error {
	if message == "" || message == client.EmptyMessage {
		return ErrEmptyMessage
	}

	c.state.Clear()
	key := c.cacheKey()

	c.mu.Lock()
	user := c.userID
	c.mu.Unlock()

	now := c.now().In(client.Zone)
	temp := client.Memo{
		ID:        client.TempID(now),
		Message:   message,
		UserID:    user,
		CreatedAt: now.Format(client.TimeLayout),
	}

	snapshot, had := c.store.Get(key)
	if had {
		c.store.Mutate(key, prependMemo(temp), false)
	}

	created, err := c.api.PutMemo(ctx, user, message)
	if err != nil {
		if had {
			c.store.Mutate(key, restore(snapshot), false)
			rollbacksTotal.WithLabelValues("create").Inc()
		}
		c.setErr(err)
		c.fail("create", err)
		return err
	}

	// Reconcile the temporary id with the server-issued one, position
	// unchanged, then refetch in the background.
	if had {
		c.store.Mutate(key, replaceID(temp.ID, created.ID), true)
	} else {
		c.store.Revalidate(key)
	}
	c.setErr(nil)
	c.ok("create")
	return nil
}

// Update applies the edited content optimistically and sends the request
// debounced per record, so rapid repeated saves coalesce. A failure rolls
// the cache back to the captured snapshot.
func (c *Controller) Update(ctx context.Context, id, message string) error {
	if message == "" || message == client.EmptyMessage {
		return ErrEmptyMessage
	}

	fc := c.currentContext()
	key := c.keyFor(fc)
	debKey := "update:" + id

	snapshot, had := c.snapshotFor(debKey, key)
	if had {
		c.store.Mutate(key, applyMessage(id, message), false)
	}

	// The request must survive the UI event's context.
	reqCtx := context.WithoutCancel(ctx)
	c.deb.Do(debKey, func() {
		defer c.clearSnapshot(debKey)
		if _, err := c.api.UpdateMemo(reqCtx, id, fc.userID, message); err != nil {
			if had {
				c.store.Mutate(key, restore(snapshot), false)
				rollbacksTotal.WithLabelValues("update").Inc()
			}
			c.setErr(err)
			c.fail("update", err)
			return
		}
		c.store.Revalidate(key)
		c.setErr(nil)
		c.ok("update")
	})
	return nil
}

// Delete removes the record optimistically (decrementing the total) and
// sends the request debounced per record; a failure restores the snapshot.
func (c *Controller) Delete(ctx context.Context, id string) {
	fc := c.currentContext()
	key := c.keyFor(fc)
	debKey := "delete:" + id

	snapshot, had := c.snapshotFor(debKey, key)
	if had {
		c.store.Mutate(key, removeMemo(id), false)
	}

	reqCtx := context.WithoutCancel(ctx)
	c.deb.Do(debKey, func() {
		defer c.clearSnapshot(debKey)
		if _, err := c.api.DeleteMemo(reqCtx, id, fc.userID); err != nil {
			if had {
				c.store.Mutate(key, restore(snapshot), false)
				rollbacksTotal.WithLabelValues("delete").Inc()
			}
			c.setErr(err)
			c.fail("delete", err)
			return
		}
		c.store.Revalidate(key)
		c.setErr(nil)
		c.ok("delete")
	})
}

// snapshotFor returns the rollback snapshot for a debounced mutation. The
// first call while no request is pending for debKey captures the cache;
// coalesced repeats reuse it.
func (c *Controller) snapshotFor(debKey, cacheKey string) (Pages, bool) {
	c.mu.Lock()
	snap, pending := c.pending[debKey]
	c.mu.Unlock()
	if pending {
		return snap, true
	}

	snap, ok := c.store.Get(cacheKey)
	if ok {
		c.mu.Lock()
		c.pending[debKey] = snap
		c.mu.Unlock()
	}
	return snap, ok
}

func (c *Controller) clearSnapshot(debKey string) {
	c.mu.Lock()
	delete(c.pending, debKey)
	c.mu.Unlock()
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Controller) fail(op string, err error) {
	c.log.Warn().Err(err).Str("op", op).Msg("operation failed")
	if c.OnError != nil {
		c.OnError(op, err)
	}
}

func (c *Controller) ok(op string) {
	if c.OnSuccess != nil {
		c.OnSuccess(op)
	}
}
