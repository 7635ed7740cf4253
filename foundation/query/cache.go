// Package query provides a request cache for the results of remote calls.
// Results are kept per key, failed fetches are retried per a policy, and
// entries can be invalidated by key prefix or cleared all at once.
package query

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies a cached result. Keys are hierarchical: invalidating a
// key invalidates every key it prefixes.
type Key []string

// String implements the fmt.Stringer interface.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports if the key starts with the specified key. An empty
// prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// =============================================================================

// RetryFunc decides if a failed fetch is tried again. Retries is the
// number of retries already performed for this fetch.
type RetryFunc func(retries int, err error) bool

// DefaultRetry retries a failed fetch up to three times.
func DefaultRetry(retries int, err error) bool {
	return retries < 3
}

// DelayFunc returns how long to wait before the next retry.
type DelayFunc func(retries int) time.Duration

// DefaultDelay doubles the wait on every retry starting at one second
// and caps it at thirty seconds.
func DefaultDelay(retries int) time.Duration {
	d := time.Second << retries
	if d <= 0 || d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

// =============================================================================

type entry struct {
	key       Key
	data      any
	hasData   bool
	err       error
	fetching  bool
	flightGen uint64
	stale     bool
	failures  int
	startedAt time.Time
	updatedAt time.Time
}

type observer interface {
	cacheKey() Key
	Enabled() bool
	refetch(ctx context.Context)
}

// Cache maintains the results of remote calls by key. The cache is safe
// for concurrent use.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	observers map[observer]struct{}
	subs      map[int]func(Key)
	nextSub   int
	epoch     uint64
	gens      map[string]uint64
	flight    singleflight.Group
	delay     DelayFunc
}

// Option represents a function that can configure the cache.
type Option func(*Cache)

// WithDelay replaces the delay between retries.
func WithDelay(delay DelayFunc) Option {
	return func(c *Cache) {
		c.delay = delay
	}
}

// NewCache constructs an empty cache.
func NewCache(opts ...Option) *Cache {
	c := Cache{
		entries:   make(map[string]*entry),
		observers: make(map[observer]struct{}),
		subs:      make(map[int]func(Key)),
		gens:      make(map[string]uint64),
		delay:     DefaultDelay,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// Subscribe registers a function that is called with the key of every
// entry that changes. Clear reports an empty key. The returned function
// removes the subscription.
func (c *Cache) Subscribe(fn func(Key)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Invalidate marks every entry under the prefix as stale and refetches
// the enabled queries observing those keys. Refetches run before
// Invalidate returns. A fetch in flight for an invalidated key is not
// joined: a new one starts and the older result is dropped.
func (c *Cache) Invalidate(ctx context.Context, prefix Key) {
	c.mu.Lock()
	bumped := make(map[string]bool)
	bump := func(key Key) {
		k := key.String()
		if !bumped[k] {
			bumped[k] = true
			c.gens[k]++
		}
	}

	var changed []Key
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.stale = true
			bump(e.key)
			changed = append(changed, e.key)
		}
	}

	var active []observer
	for o := range c.observers {
		if o.cacheKey().HasPrefix(prefix) {
			bump(o.cacheKey())
			active = append(active, o)
		}
	}
	c.mu.Unlock()

	for _, key := range changed {
		c.notify(key)
	}

	for _, o := range active {
		if o.Enabled() {
			o.refetch(ctx)
		}
	}
}

// Clear drops every entry. Fetches in flight when Clear is called do not
// write their results back.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.epoch++
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	c.notify(Key{})
}

// Len returns the number of entries in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// =============================================================================

func (c *Cache) observe(o observer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.observers[o] = struct{}{}
}

func (c *Cache) forget(o observer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.observers, o)
}

func (c *Cache) snapshot(key Key) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key.String()]
	if !exists {
		return entry{}, false
	}
	return *e, true
}

// fetch runs fn for the key, retrying per the policy. Concurrent fetches
// of the same key share a single call until the key is invalidated.
func (c *Cache) fetch(ctx context.Context, key Key, fn func(context.Context) (any, error), retry RetryFunc) {
	k := key.String()

	c.mu.Lock()
	epoch, gen := c.epoch, c.gens[k]
	c.mu.Unlock()

	flightKey := strconv.FormatUint(epoch, 10) + ":" + strconv.FormatUint(gen, 10) + ":" + k

	c.flight.Do(flightKey, func() (any, error) {
		if !c.begin(key, epoch, gen) {
			return nil, nil
		}
		started := time.Now()

		var retries int
		for {
			v, err := fn(ctx)
			if err == nil {
				c.finish(key, epoch, gen, started, func(e *entry) {
					e.data = v
					e.hasData = true
					e.err = nil
					e.stale = false
					e.failures = 0
				})
				return nil, nil
			}

			if ctx.Err() != nil || !retry(retries, err) {
				c.fail(key, epoch, gen, started, err, retries+1)
				return nil, nil
			}

			t := time.NewTimer(c.delay(retries))
			select {
			case <-ctx.Done():
				t.Stop()
				c.fail(key, epoch, gen, started, err, retries+1)
				return nil, nil
			case <-t.C:
			}

			retries++
		}
	})
}

func (c *Cache) begin(key Key, epoch uint64, gen uint64) bool {
	k := key.String()

	c.mu.Lock()
	if c.epoch != epoch || c.gens[k] != gen {
		c.mu.Unlock()
		return false
	}

	e, exists := c.entries[k]
	if !exists {
		e = &entry{key: key}
		c.entries[k] = e
	}
	e.fetching = true
	e.flightGen = gen
	c.mu.Unlock()

	c.notify(key)
	return true
}

func (c *Cache) fail(key Key, epoch uint64, gen uint64, started time.Time, err error, failures int) {
	c.finish(key, epoch, gen, started, func(e *entry) {
		e.err = err
		e.failures = failures
	})
}

// finish records the outcome of a fetch. Outcomes from before the last
// Clear are dropped. Outcomes from before the last invalidation of the key
// are dropped too, only ending the fetching state when no newer fetch
// started.
func (c *Cache) finish(key Key, epoch uint64, gen uint64, started time.Time, apply func(e *entry)) {
	k := key.String()

	c.mu.Lock()
	e, exists := c.entries[k]
	if !exists || c.epoch != epoch {
		c.mu.Unlock()
		return
	}

	switch {
	case c.gens[k] == gen:
		apply(e)
		e.fetching = false
		e.startedAt = started
		e.updatedAt = time.Now()

	case e.flightGen == gen:
		e.fetching = false

	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.notify(key)
}

func (c *Cache) notify(key Key) {
	c.mu.Lock()
	subs := make([]func(Key), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(key)
	}
}
