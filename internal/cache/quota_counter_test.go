package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounter(t *testing.T) *RedisQuotaCounter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisQuotaCounter(client)
}

func TestRedisCounterEnforcesLimit(t *testing.T) {
	ctx := context.Background()
	counter := newTestCounter(t)

	for i := 0; i < 3; i++ {
		res, err := counter.TryCount(ctx, "q1", fmt.Sprintf("r%d", i), 3)
		require.NoError(t, err)
		assert.True(t, res.Accepted)
		assert.Equal(t, i+1, res.Count)
	}

	res, err := counter.TryCount(ctx, "q1", "r-extra", 3)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, 3, res.Count)
}

func TestRedisCounterIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	counter := newTestCounter(t)

	first, err := counter.TryCount(ctx, "q1", "r1", 2)
	require.NoError(t, err)
	assert.True(t, first.Accepted)
	assert.False(t, first.AlreadyCounted)

	replay, err := counter.TryCount(ctx, "q1", "r1", 2)
	require.NoError(t, err)
	assert.True(t, replay.Accepted)
	assert.True(t, replay.AlreadyCounted)
	assert.Equal(t, 1, replay.Count)

	// Still accepted once the quota fills with other responses
	_, err = counter.TryCount(ctx, "q1", "r2", 2)
	require.NoError(t, err)
	replay, err = counter.TryCount(ctx, "q1", "r1", 2)
	require.NoError(t, err)
	assert.True(t, replay.Accepted)
	assert.True(t, replay.AlreadyCounted)
	assert.Equal(t, 2, replay.Count)
}

func TestRedisCounterQuotasAreIndependent(t *testing.T) {
	ctx := context.Background()
	counter := newTestCounter(t)

	a, err := counter.TryCount(ctx, "qa", "r1", 1)
	require.NoError(t, err)
	assert.True(t, a.Accepted)

	b, err := counter.TryCount(ctx, "qb", "r1", 1)
	require.NoError(t, err)
	assert.True(t, b.Accepted)

	a2, err := counter.TryCount(ctx, "qa", "r2", 1)
	require.NoError(t, err)
	assert.False(t, a2.Accepted)
}

func TestRedisCounterConcurrentNeverExceedsLimit(t *testing.T) {
	ctx := context.Background()
	counter := newTestCounter(t)

	const workers = 50
	const limit = 5

	var wg sync.WaitGroup
	accepted := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("resp-%d", i)
			res, err := counter.TryCount(ctx, "q1", id, limit)
			if err == nil && res.Accepted {
				accepted <- id
			}
		}(i)
	}
	wg.Wait()
	close(accepted)

	seen := make(map[string]bool)
	for id := range accepted {
		seen[id] = true
	}
	assert.Len(t, seen, limit)

	n, err := counter.Count(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, limit, n)
}

func TestRedisCounterReset(t *testing.T) {
	ctx := context.Background()
	counter := newTestCounter(t)

	_, err := counter.TryCount(ctx, "q1", "r1", 1)
	require.NoError(t, err)
	blocked, err := counter.TryCount(ctx, "q1", "r2", 1)
	require.NoError(t, err)
	assert.False(t, blocked.Accepted)

	require.NoError(t, counter.Reset(ctx, "q1"))

	n, err := counter.Count(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Both the count and the counted-response memory are gone
	res, err := counter.TryCount(ctx, "q1", "r1", 1)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.False(t, res.AlreadyCounted)
}
