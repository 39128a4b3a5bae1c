// Package rate implements time-windowed counters and the abuse policies
// built on them: per-IP rate limiting and per-IP-per-URL spam suppression.
package rate

import (
	"context"
	"time"
)

// Bucket names.
const (
	BucketShorten = "shorten"
	BucketFollow  = "follow"
	BucketSpam    = "spam"
)

// Counter is a keyed fixed-window counter. CheckAndIncrement must be atomic
// per (subject, bucket): a stale or missing window resets to count 1 at now,
// otherwise the count is incremented in place. It reports count <= limit.
type Counter interface {
	CheckAndIncrement(ctx context.Context, subject, bucket string, window time.Duration, limit int, now time.Time) (bool, error)
}

// Policy is a limit per fixed window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Options configures a Guard.
type Options struct {
	Buckets map[string]Policy
	Spam    Policy
	Now     func() time.Time
}

// DefaultOptions returns the stock policies: shorten 10/60s, follow 120/60s,
// spam 3 identical submissions/30s.
func DefaultOptions() Options {
	return Options{
		Buckets: map[string]Policy{
			BucketShorten: {Limit: 10, Window: 60 * time.Second},
			BucketFollow:  {Limit: 120, Window: 60 * time.Second},
		},
		Spam: Policy{Limit: 3, Window: 30 * time.Second},
	}
}

// Guard composes a Counter into the rate-limit and spam policies.
type Guard struct {
	counter Counter
	buckets map[string]Policy
	spam    Policy
	now     func() time.Time
}

// NewGuard builds a Guard over counter.
func NewGuard(counter Counter, opts Options) *Guard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	buckets := make(map[string]Policy, len(opts.Buckets))
	for name, p := range opts.Buckets {
		buckets[name] = p
	}
	return &Guard{
		counter: counter,
		buckets: buckets,
		spam:    opts.Spam,
		now:     opts.Now,
	}
}

// Allow counts one request from ip against bucket. Buckets without a policy
// are not limited.
func (g *Guard) Allow(ctx context.Context, ip, bucket string) (bool, error) {
	p, ok := g.buckets[bucket]
	if !ok {
		return true, nil
	}
	return g.counter.CheckAndIncrement(ctx, ip, bucket, p.Window, p.Limit, g.now())
}

// AllowSubmission counts one submission of originalURL from ip and reports
// whether it stays under the duplicate threshold. A zero spam policy disables
// the check.
func (g *Guard) AllowSubmission(ctx context.Context, ip, originalURL string) (bool, error) {
	if g.spam.Window <= 0 {
		return true, nil
	}
	return g.counter.CheckAndIncrement(ctx, SpamSubject(ip, originalURL), BucketSpam, g.spam.Window, g.spam.Limit, g.now())
}

// SpamSubject composes the spam counter key. An IP never contains '|', so
// the split point is unambiguous.
func SpamSubject(ip, originalURL string) string {
	return ip + "|" + originalURL
}
