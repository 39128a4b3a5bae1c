package core

import (
	"context"
	"time"
)

// ShortLink represents a shortened link record.
type ShortLink struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	ClickCount  int64     `json:"click_count"`
}

// Expired reports whether the link is past its expiry at now.
func (l *ShortLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// ShortenRequest is the input to shorten a URL.
type ShortenRequest struct {
	URL  string `json:"url"`
	Code string `json:"code,omitempty"` // Optional custom code
}

// ShortenResult is returned by Service.Shorten. Created is false on an
// idempotent hit, when an existing live link for the URL is returned.
type ShortenResult struct {
	Link    *ShortLink
	Created bool
}

// Store abstracts the URL registry.
type Store interface {
	// FindByURL returns the most recent record for an exact URL (expired ones included).
	FindByURL(ctx context.Context, originalURL string) (*ShortLink, error)
	// FindByCode returns the record for a code (expired ones included).
	FindByCode(ctx context.Context, code string) (*ShortLink, error)
	// InsertIfAbsent creates the record iff no record holds its code.
	// A uniqueness conflict is reported as (false, nil).
	InsertIfAbsent(ctx context.Context, l *ShortLink) (bool, error)
	// DeleteExpired removes the record for code if it expired before now.
	DeleteExpired(ctx context.Context, code string, now time.Time) error
	// IncrementClicks bumps the click counter for a code.
	IncrementClicks(ctx context.Context, code string) error
}

// CodeGenerator creates random short codes.
type CodeGenerator interface {
	NewCode(ctx context.Context) (string, error)
}

// SpamGuard throttles repeated submissions of the same URL by one client.
type SpamGuard interface {
	AllowSubmission(ctx context.Context, clientIP, originalURL string) (bool, error)
}
