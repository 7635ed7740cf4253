package query_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/walletdash/foundation/query"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

var (
	errTransient = errors.New("transient")
	errDenied    = errors.New("denied")
)

func noDelay(int) time.Duration { return 0 }

func retryOnce(retries int, err error) bool {
	if errors.Is(err, errDenied) {
		return false
	}
	return retries < 1
}

func TestRetry(t *testing.T) {
	type table struct {
		name  string
		err   error
		calls int32
	}

	tt := []table{
		{name: "transient", err: errTransient, calls: 2},
		{name: "denied", err: errDenied, calls: 1},
	}

	t.Log("Given the need to retry failed fetches per policy.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				c := query.NewCache(query.WithDelay(noDelay))

				var calls atomic.Int32
				fn := func(ctx context.Context) (string, error) {
					calls.Add(1)
					return "", tst.err
				}

				q := query.New(c, query.Key{"wallet"}, fn, query.WithRetry(retryOnce))
				s := q.Fetch(context.Background())

				if got := calls.Load(); got != tst.calls {
					t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, got)
					t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.calls)
					t.Fatalf("\t%s\tTest %d:\tShould call the fetch the right number of times.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould call the fetch the right number of times.", success, testID)

				if s.Status != query.StatusError || !errors.Is(s.Err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould end in the error state: %v %v", failed, testID, s.Status, s.Err)
				}
				t.Logf("\t%s\tTest %d:\tShould end in the error state.", success, testID)

				if s.FailureCount != int(tst.calls) {
					t.Fatalf("\t%s\tTest %d:\tShould count every failure: %d", failed, testID, s.FailureCount)
				}
				t.Logf("\t%s\tTest %d:\tShould count every failure.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestEnabled(t *testing.T) {
	t.Log("Given the need to keep a disabled query from fetching.")
	{
		c := query.NewCache(query.WithDelay(noDelay))

		var calls atomic.Int32
		fn := func(ctx context.Context) (int, error) {
			return int(calls.Add(1)), nil
		}

		q := query.New(c, query.Key{"wallet"}, fn, query.WithEnabled(false))

		s := q.Fetch(context.Background())
		if calls.Load() != 0 || s.Status != query.StatusIdle {
			t.Fatalf("\t%s\tShould not fetch while disabled: %d %v", failed, calls.Load(), s.Status)
		}
		t.Logf("\t%s\tShould not fetch while disabled.", success)

		c.Invalidate(context.Background(), query.Key{"wallet"})
		if calls.Load() != 0 {
			t.Fatalf("\t%s\tShould not refetch a disabled query on invalidate.", failed)
		}
		t.Logf("\t%s\tShould not refetch a disabled query on invalidate.", success)

		q.SetEnabled(true)
		s = q.Fetch(context.Background())
		if s.Status != query.StatusSuccess || *s.Data != 1 {
			t.Fatalf("\t%s\tShould fetch once enabled: %v", failed, s.Status)
		}
		t.Logf("\t%s\tShould fetch once enabled.", success)
	}
}

func TestInvalidate(t *testing.T) {
	t.Log("Given the need to invalidate by key prefix.")
	{
		c := query.NewCache(query.WithDelay(noDelay))
		ctx := context.Background()

		var pending, confirmed, summary atomic.Int32
		qp := query.New(c, query.Key{"transaction-history", "pending", "0", "10"}, func(ctx context.Context) (int, error) {
			return int(pending.Add(1)), nil
		})
		qc := query.New(c, query.Key{"transaction-history", "confirmed", "0", "10"}, func(ctx context.Context) (int, error) {
			return int(confirmed.Add(1)), nil
		}, query.WithoutObserve())
		qs := query.New(c, query.Key{"transaction-summary"}, func(ctx context.Context) (int, error) {
			return int(summary.Add(1)), nil
		})

		qp.Fetch(ctx)
		qc.Fetch(ctx)
		qs.Fetch(ctx)

		c.Invalidate(ctx, query.Key{"transaction-history"})

		if pending.Load() != 2 {
			t.Fatalf("\t%s\tShould refetch an observed query under the prefix: %d", failed, pending.Load())
		}
		t.Logf("\t%s\tShould refetch an observed query under the prefix.", success)

		if summary.Load() != 1 {
			t.Fatalf("\t%s\tShould leave queries outside the prefix alone: %d", failed, summary.Load())
		}
		t.Logf("\t%s\tShould leave queries outside the prefix alone.", success)

		s := qc.State()
		if !s.Stale || confirmed.Load() != 1 {
			t.Fatalf("\t%s\tShould only mark an unobserved query as stale: %v %d", failed, s.Stale, confirmed.Load())
		}
		t.Logf("\t%s\tShould only mark an unobserved query as stale.", success)

		s = qc.Get(ctx)
		if *s.Data != 2 || s.Stale {
			t.Fatalf("\t%s\tShould refetch a stale query on get: %d", failed, *s.Data)
		}
		t.Logf("\t%s\tShould refetch a stale query on get.", success)

		s = qc.Get(ctx)
		if *s.Data != 2 {
			t.Fatalf("\t%s\tShould serve a fresh query from the cache: %d", failed, *s.Data)
		}
		t.Logf("\t%s\tShould serve a fresh query from the cache.", success)
	}
}

func TestKeepData(t *testing.T) {
	t.Log("Given the need to keep the last value when a refetch fails.")
	{
		c := query.NewCache(query.WithDelay(noDelay))
		ctx := context.Background()

		var fail atomic.Bool
		q := query.New(c, query.Key{"wallet"}, func(ctx context.Context) (string, error) {
			if fail.Load() {
				return "", errTransient
			}
			return "0xabc", nil
		}, query.WithRetry(retryOnce))

		q.Fetch(ctx)
		fail.Store(true)
		s := q.Fetch(ctx)

		if s.Status != query.StatusError || s.Data == nil || *s.Data != "0xabc" {
			t.Fatalf("\t%s\tShould keep the data with the error: %v %v", failed, s.Status, s.Data)
		}
		t.Logf("\t%s\tShould keep the data with the error.", success)

		fail.Store(false)
		s = q.Fetch(ctx)
		if s.Status != query.StatusSuccess || s.Err != nil {
			t.Fatalf("\t%s\tShould clear the error on success: %v %v", failed, s.Status, s.Err)
		}
		t.Logf("\t%s\tShould clear the error on success.", success)
	}
}

func TestClear(t *testing.T) {
	t.Log("Given the need to drop every cached result.")
	{
		c := query.NewCache(query.WithDelay(noDelay))
		ctx := context.Background()

		var keys []string
		unsub := c.Subscribe(func(k query.Key) {
			keys = append(keys, k.String())
		})
		defer unsub()

		q := query.New(c, query.Key{"wallet"}, func(ctx context.Context) (string, error) {
			return "0xabc", nil
		})
		q.Fetch(ctx)

		c.Clear()

		if c.Len() != 0 || q.State().Status != query.StatusIdle {
			t.Fatalf("\t%s\tShould drop the entries: %d", failed, c.Len())
		}
		t.Logf("\t%s\tShould drop the entries.", success)

		if len(keys) == 0 || keys[len(keys)-1] != "" {
			t.Fatalf("\t%s\tShould report the clear to subscribers: %v", failed, keys)
		}
		t.Logf("\t%s\tShould report the clear to subscribers.", success)

		entered := make(chan struct{})
		release := make(chan struct{})
		slow := query.New(c, query.Key{"transaction-summary"}, func(ctx context.Context) (string, error) {
			close(entered)
			<-release
			return "late", nil
		})

		done := make(chan struct{})
		go func() {
			slow.Fetch(ctx)
			close(done)
		}()

		<-entered
		c.Clear()
		close(release)
		<-done

		if s := slow.State(); s.Data != nil {
			t.Fatalf("\t%s\tShould not write back a fetch that was in flight during clear: %v", failed, *s.Data)
		}
		t.Logf("\t%s\tShould not write back a fetch that was in flight during clear.", success)
	}
}

func TestDedupe(t *testing.T) {
	t.Log("Given the need to share one fetch between concurrent callers.")
	{
		c := query.NewCache(query.WithDelay(noDelay))

		var calls int32
		release := make(chan struct{})
		started := make(chan struct{}, 1)

		fn := func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			started <- struct{}{}
			<-release
			return 7, nil
		}

		q := query.New(c, query.Key{"shared"}, fn)

		const callers = 5
		done := make(chan query.State[int], callers)

		go func() { done <- q.Fetch(context.Background()) }()
		<-started

		for range callers - 1 {
			go func() { done <- q.Fetch(context.Background()) }()
		}

		// Give the late callers time to join the fetch in flight.
		time.Sleep(50 * time.Millisecond)
		close(release)

		for range callers {
			s := <-done
			if s.Data == nil || *s.Data != 7 {
				t.Fatalf("\t%s\tShould get the shared result: %+v", failed, s)
			}
		}
		t.Logf("\t%s\tShould get the shared result.", success)

		if n := atomic.LoadInt32(&calls); n != 1 {
			t.Fatalf("\t%s\tShould call the fetch function once: %d", failed, n)
		}
		t.Logf("\t%s\tShould call the fetch function once.", success)
	}
}

func TestInvalidateInFlight(t *testing.T) {
	t.Log("Given the need to refetch a key invalidated while a fetch is in flight.")
	{
		c := query.NewCache(query.WithDelay(noDelay))
		ctx := context.Background()

		var calls atomic.Int32
		entered := make(chan struct{})
		release := make(chan struct{})

		q := query.New(c, query.Key{"transaction-summary"}, func(ctx context.Context) (int, error) {
			n := calls.Add(1)
			if n == 1 {
				close(entered)
				<-release
			}
			return int(n), nil
		})

		done := make(chan struct{})
		go func() {
			q.Fetch(ctx)
			close(done)
		}()

		<-entered
		c.Invalidate(ctx, query.Key{"transaction-summary"})

		if n := calls.Load(); n != 2 {
			t.Fatalf("\t%s\tShould start a new fetch instead of joining the one in flight: %d", failed, n)
		}
		t.Logf("\t%s\tShould start a new fetch instead of joining the one in flight.", success)

		close(release)
		<-done

		s := q.State()
		if s.Data == nil || *s.Data != 2 || s.Stale || s.Fetching {
			t.Fatalf("\t%s\tShould keep the result of the newer fetch: %+v", failed, s)
		}
		t.Logf("\t%s\tShould keep the result of the newer fetch.", success)
	}
}

func TestInvalidateUnobserved(t *testing.T) {
	t.Log("Given the need to end an outdated fetch nobody refetches.")
	{
		c := query.NewCache(query.WithDelay(noDelay))
		ctx := context.Background()

		entered := make(chan struct{})
		release := make(chan struct{})

		q := query.New(c, query.Key{"blockchain", "h1"}, func(ctx context.Context) (int, error) {
			close(entered)
			<-release
			return 1, nil
		}, query.WithoutObserve())

		done := make(chan struct{})
		go func() {
			q.Fetch(ctx)
			close(done)
		}()

		<-entered
		c.Invalidate(ctx, query.Key{"blockchain"})
		close(release)
		<-done

		s := q.State()
		if s.Fetching || s.Data != nil {
			t.Fatalf("\t%s\tShould drop the outdated result and stop fetching: %+v", failed, s)
		}
		t.Logf("\t%s\tShould drop the outdated result and stop fetching.", success)
	}
}
