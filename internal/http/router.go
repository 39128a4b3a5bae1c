package http

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dhruvilrpatil/urlshortner/internal/core"
	"github.com/dhruvilrpatil/urlshortner/internal/http/middleware"
	"github.com/dhruvilrpatil/urlshortner/internal/rate"
)

type Options struct {
	BaseURL string
	// Limiter enforces the shorten/follow buckets; nil disables rate limiting.
	Limiter middleware.Limiter
	// TrustedProxies lists peers whose ClientIPHeader is honored.
	TrustedProxies []string
	ClientIPHeader string
	CORSOrigins    []string
	Logger         zerolog.Logger
}

// NewRouter sets up all routes and middleware.
func NewRouter(svc *core.Service, opts Options) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	if opts.ClientIPHeader != "" {
		r.RemoteIPHeaders = []string{opts.ClientIPHeader}
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Recover(opts.Logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	h := NewHandlers(svc, opts.BaseURL, opts.Logger)
	limit := func(bucket string) []gin.HandlerFunc {
		if opts.Limiter == nil {
			return nil
		}
		return []gin.HandlerFunc{middleware.RateLimit(opts.Limiter, bucket, opts.Logger)}
	}
	with := func(bucket string, handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(limit(bucket), handler)
	}

	// Health
	r.GET("/health", h.Health)

	// Landing page
	RegisterStatic(r)

	r.POST("/shorten", with(rate.BucketShorten, h.Shorten)...)

	api := r.Group("/api")
	api.GET("/links/:code", with(rate.BucketFollow, h.Stats)...)

	// Redirect
	r.GET("/:code", with(rate.BucketFollow, h.Redirect)...)

	r.NoRoute(func(c *gin.Context) { notFoundPage(c, "") })

	return r, nil
}
