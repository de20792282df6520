package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CountResult is the outcome of one tryCount call against a quota
type CountResult struct {
	// Accepted is true when the response was counted (now or on an earlier
	// call with the same response ID).
	Accepted bool
	// AlreadyCounted is true when this (quota, response) pair had been
	// accepted before; the count was not incremented again.
	AlreadyCounted bool
	// Count is the quota's count after the call
	Count int
}

// tryCountScript is the whole critical section: idempotency check, limit
// comparison, increment, and response-link recording run as one atomic unit
// on the Redis server. Keys are per-quota, so counting on different quotas
// never contends.
//
// KEYS[1] = count key, KEYS[2] = counted-responses set
// ARGV[1] = response ID, ARGV[2] = limit
var tryCountScript = redis.NewScript(`
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
if redis.call("SISMEMBER", KEYS[2], ARGV[1]) == 1 then
  return {1, 1, count}
end
if count < tonumber(ARGV[2]) then
  count = redis.call("INCR", KEYS[1])
  redis.call("SADD", KEYS[2], ARGV[1])
  return {1, 0, count}
end
return {0, 0, count}
`)

// RedisQuotaCounter enforces the at-most-limit invariant with an atomic
// compare-and-increment in Redis, which stays correct when submissions land
// on different process instances.
type RedisQuotaCounter struct {
	client *redis.Client
}

// NewRedisQuotaCounter creates a Redis-backed quota counter
func NewRedisQuotaCounter(client *redis.Client) *RedisQuotaCounter {
	return &RedisQuotaCounter{client: client}
}

func (c *RedisQuotaCounter) countKey(quotaID string) string {
	return fmt.Sprintf("quota:%s:count", quotaID)
}

func (c *RedisQuotaCounter) responsesKey(quotaID string) string {
	return fmt.Sprintf("quota:%s:responses", quotaID)
}

// TryCount counts responseID against the quota if the quota is under its
// limit. Replaying an accepted (quota, response) pair returns the recorded
// acceptance without a second increment.
func (c *RedisQuotaCounter) TryCount(ctx context.Context, quotaID, responseID string, limit int) (CountResult, error) {
	res, err := tryCountScript.Run(ctx, c.client,
		[]string{c.countKey(quotaID), c.responsesKey(quotaID)},
		responseID, limit,
	).Int64Slice()
	if err != nil {
		return CountResult{}, fmt.Errorf("quota %s: try count: %w", quotaID, err)
	}
	if len(res) != 3 {
		return CountResult{}, fmt.Errorf("quota %s: unexpected script reply", quotaID)
	}
	return CountResult{
		Accepted:       res[0] == 1,
		AlreadyCounted: res[1] == 1,
		Count:          int(res[2]),
	}, nil
}

// Reset zeroes the count and discards the counted-response set. DEL is atomic
// with respect to in-flight tryCount scripts, so the two can never interleave
// mid-critical-section.
func (c *RedisQuotaCounter) Reset(ctx context.Context, quotaID string) error {
	return c.client.Del(ctx, c.countKey(quotaID), c.responsesKey(quotaID)).Err()
}

// Count returns the quota's current count
func (c *RedisQuotaCounter) Count(ctx context.Context, quotaID string) (int, error) {
	n, err := c.client.Get(ctx, c.countKey(quotaID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
