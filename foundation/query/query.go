package query

import (
	"context"
	"sync"
	"time"
)

// Status represents the outcome of the last fetch of a query.
type Status int

// Set of query status values.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// String implements the fmt.Stringer interface.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "idle"
}

// State is a snapshot of a query. Data holds the last successful result
// and survives later failures. StartedAt is when the fetch that produced
// the current outcome began.
type State[T any] struct {
	Status       Status
	Data         *T
	Err          error
	Fetching     bool
	Stale        bool
	FailureCount int
	StartedAt    time.Time
	UpdatedAt    time.Time
}

// IsLoading reports if the first fetch of the query is in flight.
func (s State[T]) IsLoading() bool {
	return s.Status == StatusLoading
}

// =============================================================================

// FetchFunc performs the remote call for a query.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type options struct {
	retry   RetryFunc
	enabled bool
	observe bool
}

// QueryOption represents a function that can configure a query.
type QueryOption func(*options)

// WithRetry sets the retry policy of the query.
func WithRetry(retry RetryFunc) QueryOption {
	return func(o *options) {
		o.retry = retry
	}
}

// WithEnabled sets the initial enabled flag of the query.
func WithEnabled(enabled bool) QueryOption {
	return func(o *options) {
		o.enabled = enabled
	}
}

// WithoutObserve keeps the query from being refetched by Invalidate. Use
// it for short lived queries so the cache does not hold on to them.
func WithoutObserve() QueryOption {
	return func(o *options) {
		o.observe = false
	}
}

// Query binds a key of the cache to the call that produces its value.
type Query[T any] struct {
	cache *Cache
	key   Key
	fn    FetchFunc[T]
	retry RetryFunc

	mu      sync.RWMutex
	enabled bool
}

// New constructs a query for the key. Queries are enabled and observed
// by default, meaning Invalidate will refetch them.
func New[T any](c *Cache, key Key, fn FetchFunc[T], opts ...QueryOption) *Query[T] {
	o := options{
		retry:   DefaultRetry,
		enabled: true,
		observe: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	q := Query[T]{
		cache:   c,
		key:     key,
		fn:      fn,
		retry:   o.retry,
		enabled: o.enabled,
	}

	if o.observe {
		c.observe(&q)
	}

	return &q
}

// Key returns the key of the query.
func (q *Query[T]) Key() Key {
	return q.key
}

// Enabled reports if the query is allowed to fetch.
func (q *Query[T]) Enabled() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.enabled
}

// SetEnabled changes if the query is allowed to fetch. It takes effect
// for every fetch started after the call returns.
func (q *Query[T]) SetEnabled(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.enabled = enabled
}

// Close stops Invalidate from refetching the query.
func (q *Query[T]) Close() {
	q.cache.forget(q)
}

// State returns the current snapshot of the query.
func (q *Query[T]) State() State[T] {
	e, exists := q.cache.snapshot(q.key)
	if !exists {
		return State[T]{Status: StatusIdle}
	}

	s := State[T]{
		Err:          e.err,
		Fetching:     e.fetching,
		Stale:        e.stale,
		FailureCount: e.failures,
		StartedAt:    e.startedAt,
		UpdatedAt:    e.updatedAt,
	}

	if e.hasData {
		if v, ok := e.data.(T); ok {
			s.Data = &v
		}
	}

	switch {
	case e.err != nil:
		s.Status = StatusError
	case e.hasData:
		s.Status = StatusSuccess
	case e.fetching:
		s.Status = StatusLoading
	default:
		s.Status = StatusIdle
	}

	return s
}

// Fetch performs the call when the query is enabled and returns the
// resulting snapshot. A disabled query returns its current snapshot.
func (q *Query[T]) Fetch(ctx context.Context) State[T] {
	if !q.Enabled() {
		return q.State()
	}

	fn := func(ctx context.Context) (any, error) {
		return q.fn(ctx)
	}
	q.cache.fetch(ctx, q.key, fn, q.retry)

	return q.State()
}

// Get returns the cached snapshot when it holds a fresh value, otherwise
// it fetches.
func (q *Query[T]) Get(ctx context.Context) State[T] {
	s := q.State()
	if s.Status == StatusSuccess && !s.Stale {
		return s
	}
	return q.Fetch(ctx)
}

func (q *Query[T]) cacheKey() Key {
	return q.key
}

func (q *Query[T]) refetch(ctx context.Context) {
	q.Fetch(ctx)
}
