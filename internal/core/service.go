package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTTL is the fixed lifetime of a link.
	DefaultTTL = 24 * time.Hour
	// DefaultAllocationAttempts bounds the random-code retry loop.
	DefaultAllocationAttempts = 10
)

// CustomCodePolicy decides what happens to a requested custom code when the
// URL already has a live link.
type CustomCodePolicy string

const (
	// CustomCodeIgnore returns the existing link and drops the requested code.
	CustomCodeIgnore CustomCodePolicy = "ignore"
	// CustomCodeConflict fails with ErrCodeTaken when the requested code
	// differs from the existing one.
	CustomCodeConflict CustomCodePolicy = "conflict"
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	TTL                time.Duration
	AllocationAttempts int
	CustomCodePolicy   CustomCodePolicy
	Logger             zerolog.Logger
	Now                func() time.Time
}

// Service implements the business logic for creating and resolving short URLs.
type Service struct {
	store    Store
	gen      CodeGenerator
	guard    SpamGuard
	ttl      time.Duration
	attempts int
	policy   CustomCodePolicy
	log      zerolog.Logger
	nowFunc  func() time.Time
}

// NewService builds a Service. guard may be nil to disable spam suppression.
func NewService(store Store, gen CodeGenerator, guard SpamGuard, opts Options) *Service {
	s := &Service{
		store:    store,
		gen:      gen,
		guard:    guard,
		ttl:      opts.TTL,
		attempts: opts.AllocationAttempts,
		policy:   opts.CustomCodePolicy,
		log:      opts.Logger,
		nowFunc:  opts.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.attempts <= 0 {
		s.attempts = DefaultAllocationAttempts
	}
	if s.policy == "" {
		s.policy = CustomCodeIgnore
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s
}

// now returns the current time in UTC at second precision, the resolution
// links are persisted with.
func (s *Service) now() time.Time {
	return s.nowFunc().UTC().Truncate(time.Second)
}

// Shorten validates input, applies spam suppression and idempotency, then
// allocates a custom or random code.
func (s *Service) Shorten(ctx context.Context, in ShortenRequest, clientIP string) (*ShortenResult, error) {
	longURL := strings.TrimSpace(in.URL)
	if err := ValidateURL(longURL); err != nil {
		return nil, err
	}
	custom := strings.TrimSpace(in.Code)
	if custom != "" {
		if err := ValidateCode(custom); err != nil {
			return nil, err
		}
	}

	if s.guard != nil {
		ok, err := s.guard.AllowSubmission(ctx, clientIP, longURL)
		if err != nil {
			return nil, fmt.Errorf("spam check: %w", err)
		}
		if !ok {
			return nil, ErrSpamDetected
		}
	}

	existing, err := s.store.FindByURL(ctx, longURL)
	switch {
	case err == nil:
		now := s.now()
		if !existing.Expired(now) {
			if custom != "" && custom != existing.Code && s.policy == CustomCodeConflict {
				return nil, ErrCodeTaken
			}
			return &ShortenResult{Link: existing, Created: false}, nil
		}
		if err := s.store.DeleteExpired(ctx, existing.Code, now); err != nil {
			return nil, fmt.Errorf("delete expired: %w", err)
		}
		s.log.Debug().Str("code", existing.Code).Msg("purged expired link on re-shorten")
	case !IsNotFound(err):
		return nil, fmt.Errorf("find by url: %w", err)
	}

	now := s.now()
	rec := &ShortLink{
		OriginalURL: longURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	if custom != "" {
		// Single attempt; the caller chose the code.
		rec.Code = custom
		ok, err := s.store.InsertIfAbsent(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		if !ok {
			return nil, ErrCodeTaken
		}
		return &ShortenResult{Link: rec, Created: true}, nil
	}

	for i := 0; i < s.attempts; i++ {
		code, err := s.gen.NewCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		rec.Code = code
		ok, err := s.store.InsertIfAbsent(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		if ok {
			return &ShortenResult{Link: rec, Created: true}, nil
		}
		s.log.Debug().Str("code", code).Int("attempt", i+1).Msg("code collision")
	}
	s.log.Warn().Int("attempts", s.attempts).Msg("random code allocation exhausted")
	return nil, ErrAllocationFailed
}

// Resolve returns the live link for code and counts the click.
// Expired links are deleted on first access and reported as not found.
func (s *Service) Resolve(ctx context.Context, code string) (*ShortLink, error) {
	rec, err := s.live(ctx, code)
	if err != nil {
		return nil, err
	}
	// Best-effort: a failed bump must not block the redirect.
	if err := s.store.IncrementClicks(ctx, code); err != nil {
		s.log.Warn().Err(err).Str("code", code).Msg("increment clicks")
		return rec, nil
	}
	rec.ClickCount++
	return rec, nil
}

// Stats returns the live link for code without counting a click.
func (s *Service) Stats(ctx context.Context, code string) (*ShortLink, error) {
	return s.live(ctx, code)
}

func (s *Service) live(ctx context.Context, code string) (*ShortLink, error) {
	if code == "" || len(code) > maxCodeLength {
		return nil, ErrNotFound
	}
	rec, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find by code: %w", err)
	}
	now := s.now()
	if rec.Expired(now) {
		if err := s.store.DeleteExpired(ctx, code, now); err != nil {
			return nil, fmt.Errorf("delete expired: %w", err)
		}
		s.log.Debug().Str("code", code).Msg("lazily expired link")
		return nil, ErrNotFound
	}
	return rec, nil
}
