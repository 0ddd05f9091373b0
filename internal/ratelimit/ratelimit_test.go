package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestMemoryStore_FixedWindow(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		ok, err := store.CheckAndIncrement(ctx, "192.168.1.1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i)
	}

	ok, err := store.CheckAndIncrement(ctx, "192.168.1.1", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "6th request should be refused")

	clock.Advance(30 * time.Second)
	ok, _ = store.CheckAndIncrement(ctx, "192.168.1.1", 5, time.Minute)
	assert.False(t, ok, "still inside the window")

	clock.Advance(31 * time.Second)
	ok, _ = store.CheckAndIncrement(ctx, "192.168.1.1", 5, time.Minute)
	assert.True(t, ok, "61s after the first request a fresh window starts")
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(WithClock(newClock().Now))
	ctx := context.Background()

	ok, _ := store.CheckAndIncrement(ctx, "a", 1, time.Minute)
	assert.True(t, ok)
	ok, _ = store.CheckAndIncrement(ctx, "a", 1, time.Minute)
	assert.False(t, ok)
	ok, _ = store.CheckAndIncrement(ctx, "b", 1, time.Minute)
	assert.True(t, ok)
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	_, _ = store.CheckAndIncrement(ctx, "old", 5, time.Minute)
	clock.Advance(45 * time.Second)
	_, _ = store.CheckAndIncrement(ctx, "new", 5, time.Minute)
	require.Equal(t, 2, store.Len())

	clock.Advance(20 * time.Second)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.CheckAndIncrement(ctx, "shared", 5, time.Minute)
			if err == nil && ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
}

func TestSweeper_Run(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(WithClock(clock.Now))
	_, _ = store.CheckAndIncrement(context.Background(), "a", 5, time.Minute)

	var reported []int
	sweeper, err := NewSweeper(store, "", nil, func(size int) { reported = append(reported, size) })
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	sweeper.Run()

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, []int{0}, reported)

	sweeper.Start()
	sweeper.Stop()
}

func TestNewSweeper_InvalidSpec(t *testing.T) {
	_, err := NewSweeper(NewMemoryStore(), "every now and then", nil, nil)
	assert.Error(t, err)
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return NewRedisStore(client, "contact:rl:"), mr
}

func TestRedisStore_FixedWindow(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		ok, err := store.CheckAndIncrement(ctx, "10.0.0.1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i)
	}

	ok, err := store.CheckAndIncrement(ctx, "10.0.0.1", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, mr.Exists("contact:rl:10.0.0.1"))
	assert.Greater(t, mr.TTL("contact:rl:10.0.0.1"), time.Duration(0))

	mr.FastForward(61 * time.Second)

	ok, err = store.CheckAndIncrement(ctx, "10.0.0.1", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.CheckAndIncrement(context.Background(), "10.0.0.1", 5, time.Minute)
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), "::not a url")
	assert.Error(t, err)
}
