package sqlite

import (
	"context"
	"time"

	"github.com/dhruvilrpatil/urlshortner/internal/rate"
)

// CheckAndIncrement implements rate.Counter with a single upsert statement,
// so concurrent requests for the same key cannot lose updates.
func (s *Store) CheckAndIncrement(ctx context.Context, subject, bucket string, window time.Duration, limit int, now time.Time) (bool, error) {
	const q = `
INSERT INTO counters(subject, bucket, window_start, count)
VALUES (?, ?, ?, 1)
ON CONFLICT(subject, bucket) DO UPDATE SET
  count        = CASE WHEN ? - window_start >= ? THEN 1 ELSE count + 1 END,
  window_start = CASE WHEN ? - window_start >= ? THEN ? ELSE window_start END
RETURNING count;`
	ts := now.Unix()
	secs := int64(window / time.Second)

	var count int64
	err := s.db.QueryRowContext(ctx, q,
		subject, bucket, ts,
		ts, secs,
		ts, secs, ts,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

var _ rate.Counter = (*Store)(nil)
