package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/hookcord/internal/cache"
)

func TestGetPutDelete(t *testing.T) {
	t.Parallel()

	c := cache.New[string](0)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", "one")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "one", v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	t.Parallel()

	c := cache.New[int](20 * time.Millisecond)
	c.Put("a", 1)

	_, ok := c.Get("a")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok = c.Get("a")
	assert.False(t, ok, "expired entry must read as a miss")
	assert.Zero(t, c.Len(), "expired read removes the entry")
}

func TestZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	c := cache.New[int](0)
	c.Put("a", 1)

	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	assert.True(t, ok)
}

func TestMaxSizeEvictsStalest(t *testing.T) {
	t.Parallel()

	c := cache.New(0, cache.WithMaxSize[int](2))

	c.Put("a", 1)
	time.Sleep(2 * time.Millisecond)
	c.Put("b", 2)
	time.Sleep(2 * time.Millisecond)

	// Touch "a" so "b" becomes the stalest entry.
	_, ok := c.Get("a")
	require.True(t, ok)
	time.Sleep(2 * time.Millisecond)

	c.Put("c", 3)

	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestFetchFallsBackAndCaches(t *testing.T) {
	t.Parallel()

	calls := 0
	c := cache.New(0, cache.WithFetcher(func(_ context.Context, id string) (string, bool, error) {
		calls++
		if id == "missing" {
			return "", false, nil
		}
		return "fetched-" + id, true, nil
	}))

	v, ok, err := c.Fetch(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fetched-a", v)

	// Second read is served from the cache.
	_, ok, err = c.Fetch(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, calls)

	_, ok, err = c.Fetch(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchPropagatesErrors(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("backend down")
	c := cache.New(0, cache.WithFetcher(func(_ context.Context, _ string) (int, bool, error) {
		return 0, false, sentinel
	}))

	_, _, err := c.Fetch(context.Background(), "a")
	require.ErrorIs(t, err, sentinel)
}

func TestFetchWithoutFetcherIsMiss(t *testing.T) {
	t.Parallel()

	c := cache.New[int](0)
	_, ok, err := c.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweepRemovesExpired(t *testing.T) {
	t.Parallel()

	c := cache.New[int](10 * time.Millisecond)
	c.Put("a", 1)
	c.Put("b", 2)

	time.Sleep(25 * time.Millisecond)
	c.Put("c", 3)

	removed := c.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
}

func TestStartSweepingStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	c := cache.New[int](5 * time.Millisecond)
	c.Put("a", 1)
	c.StartSweeping(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := cache.New[int](0)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()
	assert.Zero(t, c.Len())
}
