// Package rediscounter provides a Redis-backed rate.Counter so that several
// instances can share abuse-control windows.
package rediscounter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dhruvilrpatil/urlshortner/internal/rate"
)

// KEYS[1]: window hash {start, count}
// ARGV[1]: now (unix seconds)
// ARGV[2]: window length (seconds)
//
// Returns the count after this observation.
const fixedWindowScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local start = redis.call('HGET', KEYS[1], 'start')

if (not start) or (now - tonumber(start) >= window) then
  redis.call('HSET', KEYS[1], 'start', now, 'count', 1)
  redis.call('EXPIRE', KEYS[1], window * 2)
  return 1
end

return redis.call('HINCRBY', KEYS[1], 'count', 1)
`

// Counters implements rate.Counter on Redis. The script runs atomically on
// the server, so concurrent instances never lose an increment.
type Counters struct {
	client    redis.Scripter
	script    *redis.Script
	keyPrefix string
}

// NewCounters creates a Redis counter store over client.
func NewCounters(client redis.Scripter) *Counters {
	return &Counters{
		client:    client,
		script:    redis.NewScript(fixedWindowScript),
		keyPrefix: "counter:",
	}
}

// CheckAndIncrement implements rate.Counter.
func (c *Counters) CheckAndIncrement(ctx context.Context, subject, bucket string, window time.Duration, limit int, now time.Time) (bool, error) {
	key := c.keyPrefix + bucket + ":" + subject
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	count, err := c.script.Run(ctx, c.client, []string{key}, now.Unix(), secs).Int64()
	if err != nil {
		return false, fmt.Errorf("redis counter: %w", err)
	}
	return count <= int64(limit), nil
}

var _ rate.Counter = (*Counters)(nil)
