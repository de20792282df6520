package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounterEnforcesLimit(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryQuotaCounter()

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

func TestMemoryCounterIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryQuotaCounter()

	first, err := counter.TryCount(ctx, "q1", "r1", 5)
	require.NoError(t, err)
	assert.True(t, first.Accepted)
	assert.False(t, first.AlreadyCounted)

	replay, err := counter.TryCount(ctx, "q1", "r1", 5)
	require.NoError(t, err)
	assert.True(t, replay.Accepted)
	assert.True(t, replay.AlreadyCounted)
	assert.Equal(t, 1, replay.Count)

	// A counted response replays as accepted even once the quota fills.
	for i := 0; i < 4; i++ {
		_, err := counter.TryCount(ctx, "q1", fmt.Sprintf("other-%d", i), 5)
		require.NoError(t, err)
	}
	replay, err = counter.TryCount(ctx, "q1", "r1", 5)
	require.NoError(t, err)
	assert.True(t, replay.Accepted)
	assert.True(t, replay.AlreadyCounted)
}

func TestMemoryCounterConcurrentNeverExceedsLimit(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryQuotaCounter()

	const workers = 100
	const limit = 7

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

	final, err := counter.TryCount(ctx, "q1", "late", limit)
	require.NoError(t, err)
	assert.False(t, final.Accepted)
	assert.Equal(t, limit, final.Count)
}

func TestMemoryCounterQuotasAreIndependent(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryQuotaCounter()

	a, err := counter.TryCount(ctx, "qa", "r1", 1)
	require.NoError(t, err)
	assert.True(t, a.Accepted)

	// qa is full, qb is untouched
	b, err := counter.TryCount(ctx, "qb", "r1", 1)
	require.NoError(t, err)
	assert.True(t, b.Accepted)

	a2, err := counter.TryCount(ctx, "qa", "r2", 1)
	require.NoError(t, err)
	assert.False(t, a2.Accepted)
}

func TestMemoryCounterReset(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryQuotaCounter()

	_, err := counter.TryCount(ctx, "q1", "r1", 1)
	require.NoError(t, err)
	blocked, err := counter.TryCount(ctx, "q1", "r2", 1)
	require.NoError(t, err)
	assert.False(t, blocked.Accepted)

	require.NoError(t, counter.Reset(ctx, "q1"))

	// After reset, capacity and the counted-response memory are both gone:
	// r1 counts again as a fresh acceptance.
	res, err := counter.TryCount(ctx, "q1", "r1", 1)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.False(t, res.AlreadyCounted)
	assert.Equal(t, 1, res.Count)
}
