package crawler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheGetOrCompute(t *testing.T) {
	t.Parallel()

	c := NewCache()
	var calls atomic.Int32
	compute := func(context.Context) ([]Product, error) {
		calls.Add(1)
		return []Product{{Sku: "1", Images: []string{"a"}}}, nil
	}

	first, hit, err := c.GetOrCompute(context.Background(), "u", compute)
	require.NoError(t, err)
	require.False(t, hit)

	second, hit, err := c.GetOrCompute(context.Background(), "u", compute)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, calls.Load())
	require.Equal(t, 1, c.Len())
}

func TestCacheKeysAreExactURLs(t *testing.T) {
	t.Parallel()

	c := NewCache()
	compute := func(context.Context) ([]Product, error) { return []Product{{Sku: "1"}}, nil }
	for _, url := range []string{"https://a/p-1", "https://a/p-1/", "https://a/p-1?x=1"} {
		_, hit, err := c.GetOrCompute(context.Background(), url, compute)
		require.NoError(t, err)
		require.False(t, hit, url)
	}
	require.Equal(t, 3, c.Len())
}

func TestCacheReturnsCopies(t *testing.T) {
	t.Parallel()

	c := NewCache()
	compute := func(context.Context) ([]Product, error) {
		return []Product{{Sku: "1", Images: []string{"a"}, Attributes: []ProductAttribute{{Key: "k", Name: "v"}}}}, nil
	}
	got, _, err := c.GetOrCompute(context.Background(), "u", compute)
	require.NoError(t, err)

	got[0].Sku = "mutated"
	got[0].Images[0] = "mutated"
	got[0].Attributes[0].Key = "mutated"

	again, ok := c.Get("u")
	require.True(t, ok)
	require.Equal(t, "1", again[0].Sku)
	require.Equal(t, "a", again[0].Images[0])
	require.Equal(t, "k", again[0].Attributes[0].Key)
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	t.Parallel()

	c := NewCache()
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "u", func(context.Context) ([]Product, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, c.Len())

	_, ok := c.Get("u")
	require.False(t, ok)
}

func TestCacheConcurrentMissesComputeOnce(t *testing.T) {
	t.Parallel()

	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) ([]Product, error) {
		calls.Add(1)
		<-release
		return []Product{{Sku: "1"}}, nil
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make([][]Product, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, _, err := c.GetOrCompute(context.Background(), "u", compute)
			if err == nil {
				results[i] = products
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for _, r := range results {
		require.Equal(t, []Product{{Sku: "1"}}, r)
	}
}

func TestCacheCanceledCallerDoesNotFailWaiters(t *testing.T) {
	t.Parallel()

	c := NewCache()
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) ([]Product, error) {
		close(started)
		select {
		case <-release:
			return []Product{{Sku: "1"}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrCompute(leaderCtx, "u", compute)
		leaderErr <- err
	}()
	<-started

	type result struct {
		products []Product
		err      error
	}
	follower := make(chan result, 1)
	go func() {
		products, _, err := c.GetOrCompute(context.Background(), "u", compute)
		follower <- result{products, err}
	}()

	cancel()
	require.ErrorIs(t, <-leaderErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-follower
	require.NoError(t, got.err)
	require.Equal(t, []Product{{Sku: "1"}}, got.products)
	require.Equal(t, 1, c.Len())
}
