package service

import (
	"context"
	"sync"

	"surveyflow/internal/cache"
)

// QuotaCounter is the serialization point of the engine: an atomic
// check-against-limit-and-increment per quota. Implementations must keep the
// critical section per-quota so distinct quotas count independently.
type QuotaCounter interface {
	TryCount(ctx context.Context, quotaID, responseID string, limit int) (cache.CountResult, error)
	Reset(ctx context.Context, quotaID string) error
}

type memoryQuota struct {
	mu        sync.Mutex
	count     int
	responses map[string]bool
}

// MemoryQuotaCounter is an in-process QuotaCounter guarding each quota with
// its own mutex. Suitable for single-node deployments and tests; multi-node
// deployments use the Redis counter.
type MemoryQuotaCounter struct {
	mu     sync.Mutex
	quotas map[string]*memoryQuota
}

// NewMemoryQuotaCounter creates an in-memory quota counter
func NewMemoryQuotaCounter() *MemoryQuotaCounter {
	return &MemoryQuotaCounter{quotas: make(map[string]*memoryQuota)}
}

func (c *MemoryQuotaCounter) quota(quotaID string) *memoryQuota {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotas[quotaID]
	if !ok {
		q = &memoryQuota{responses: make(map[string]bool)}
		c.quotas[quotaID] = q
	}
	return q
}

// TryCount counts responseID against the quota if it is under limit. The
// critical section is read-compare-increment-record and nothing else.
func (c *MemoryQuotaCounter) TryCount(ctx context.Context, quotaID, responseID string, limit int) (cache.CountResult, error) {
	if err := ctx.Err(); err != nil {
		return cache.CountResult{}, err
	}

	q := c.quota(quotaID)
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.responses[responseID] {
		return cache.CountResult{Accepted: true, AlreadyCounted: true, Count: q.count}, nil
	}
	if q.count < limit {
		q.count++
		q.responses[responseID] = true
		return cache.CountResult{Accepted: true, Count: q.count}, nil
	}
	return cache.CountResult{Accepted: false, Count: q.count}, nil
}

// Reset zeroes the count and forgets counted responses
func (c *MemoryQuotaCounter) Reset(ctx context.Context, quotaID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q := c.quota(quotaID)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.count = 0
	q.responses = make(map[string]bool)
	return nil
}
