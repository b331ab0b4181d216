package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/metrics"
)

// FetchFunc loads the full collection for a settled filter.
type FetchFunc[F comparable, R any] func(ctx context.Context, filter F) ([]R, error)

// ListState is a point-in-time copy of a ListController.
type ListState[F comparable, R any] struct {
	Filter     F
	Rows       []R
	Loading    bool
	Loaded     bool
	Generation uint64
	UpdatedAt  time.Time
}

// ListController keeps one collection in sync with a filter and a remote
// source. Every fetch gets a new generation; a completion is applied only if
// its generation is still the latest, so a slow response can never overwrite
// a newer one. Failed fetches leave the previous rows in place.
type ListController[F comparable, R any] struct {
	view     string
	fetch    FetchFunc[F, R]
	failure  string
	notifier *Notifier
	clock    Clock
	log      zerolog.Logger

	mu         sync.Mutex
	base       context.Context
	stop       context.CancelFunc
	filter     F
	rows       []R
	loading    bool
	loaded     bool
	generation uint64
	cancel     context.CancelFunc
	inflight   chan struct{}
	updatedAt  time.Time
	closed     bool
	subs       map[int]chan struct{}
	nextSub    int
}

// NewListController builds a controller for view. failure is the notification
// shown when a fetch fails.
func NewListController[F comparable, R any](view string, fetch FetchFunc[F, R], failure string, notifier *Notifier, clock Clock, log zerolog.Logger) *ListController[F, R] {
	if clock == nil {
		clock = SystemClock
	}
	base, stop := context.WithCancel(context.Background())
	return &ListController[F, R]{
		view:     view,
		fetch:    fetch,
		failure:  failure,
		notifier: notifier,
		clock:    clock,
		log:      log.With().Str("view", view).Logger(),
		base:     base,
		stop:     stop,
		rows:     []R{},
		subs:     make(map[int]chan struct{}),
	}
}

// Apply switches to a new settled filter and fetches for it. Applying the
// current filter again does not fetch; the returned channel then tracks the
// fetch already in flight, if any.
func (c *ListController[F, R]) Apply(filter F) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return done()
	}
	if filter == c.filter && (c.loaded || c.loading) {
		if c.loading {
			return c.inflight
		}
		return done()
	}
	c.filter = filter
	return c.startLocked()
}

// Invalidate refetches with the current filter. Mutations call it after a
// successful write.
func (c *ListController[F, R]) Invalidate() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return done()
	}
	return c.startLocked()
}

func (c *ListController[F, R]) startLocked() <-chan struct{} {
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	filter := c.filter

	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.loading = true
	finished := make(chan struct{})
	c.inflight = finished
	c.publishLocked()

	go func() {
		defer close(finished)
		rows, err := c.fetch(ctx, filter)
		c.complete(gen, rows, err)
	}()
	return finished
}

func (c *ListController[F, R]) complete(gen uint64, rows []R, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.generation {
		metrics.ListFetchesTotal.WithLabelValues(c.view, "stale").Inc()
		c.log.Debug().Uint64("generation", gen).Uint64("current", c.generation).Msg("discarding stale fetch")
		return
	}

	c.loading = false
	c.cancel = nil
	c.inflight = nil

	if err != nil {
		metrics.ListFetchesTotal.WithLabelValues(c.view, "failed").Inc()
		if !errors.Is(err, context.Canceled) {
			c.log.Warn().Err(err).Uint64("generation", gen).Msg("fetch failed")
			c.notifier.Error(c.failure)
		}
		c.publishLocked()
		return
	}

	if rows == nil {
		rows = []R{}
	}
	c.rows = rows
	c.loaded = true
	c.updatedAt = c.clock.Now().UTC()
	metrics.ListFetchesTotal.WithLabelValues(c.view, "applied").Inc()
	c.publishLocked()
}

// State returns a copy of the controller state.
func (c *ListController[F, R]) State() ListState[F, R] {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]R, len(c.rows))
	copy(rows, c.rows)
	return ListState[F, R]{
		Filter:     c.filter,
		Rows:       rows,
		Loading:    c.loading,
		Loaded:     c.loaded,
		Generation: c.generation,
		UpdatedAt:  c.updatedAt,
	}
}

// Changes returns a channel that receives a signal after every state change.
// Signals coalesce; receivers read State to see the latest value.
func (c *ListController[F, R]) Changes() (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan struct{}, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- struct{}{}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

func (c *ListController[F, R]) publishLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close cancels the in-flight fetch and ignores every later completion.
func (c *ListController[F, R]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.loading = false
	c.stop()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
