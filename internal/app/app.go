package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dhruvilrpatil/urlshortner/internal/config"
	"github.com/dhruvilrpatil/urlshortner/internal/core"
	httpapi "github.com/dhruvilrpatil/urlshortner/internal/http"
	"github.com/dhruvilrpatil/urlshortner/internal/id"
	"github.com/dhruvilrpatil/urlshortner/internal/rate"
	"github.com/dhruvilrpatil/urlshortner/internal/store/rediscounter"
	"github.com/dhruvilrpatil/urlshortner/internal/store/sqlite"
)

// App wires config, storage, abuse guard, core service, and the HTTP router.
type App struct {
	Cfg     config.Config
	Log     zerolog.Logger
	Store   *sqlite.Store
	Redis   *redis.Client // nil unless COUNTER_BACKEND=redis
	Guard   *rate.Guard
	Service *core.Service
	Router  *gin.Engine

	server *http.Server
}

// New builds a fully-wired application instance.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	// Open SQLite store (creates DB file and applies migrations if missing).
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	a := &App{Cfg: cfg, Log: log, Store: store}

	var counter rate.Counter
	switch cfg.CounterBackend {
	case config.BackendRedis:
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := a.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		counter = rediscounter.NewCounters(a.Redis)
	case config.BackendMemory:
		counter = rate.NewMemory()
	default:
		counter = store
	}

	if gin.Mode() != gin.TestMode && cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a.Guard = rate.NewGuard(counter, rate.Options{
		Buckets: map[string]rate.Policy{
			rate.BucketShorten: {Limit: cfg.ShortenLimit, Window: cfg.ShortenWindow},
			rate.BucketFollow:  {Limit: cfg.FollowLimit, Window: cfg.FollowWindow},
		},
		Spam: rate.Policy{Limit: cfg.SpamLimit, Window: cfg.SpamWindow},
	})

	a.Service = core.NewService(store, id.NewGenerator(), a.Guard, core.Options{
		CustomCodePolicy: cfg.CustomCodePolicy,
		Logger:           log.With().Str("component", "shortener").Logger(),
	})

	a.Router, err = httpapi.NewRouter(a.Service, httpapi.Options{
		BaseURL:        cfg.BaseURL,
		Limiter:        a.Guard,
		TrustedProxies: cfg.TrustedProxies,
		ClientIPHeader: cfg.ClientIPHeader,
		CORSOrigins:    cfg.CORSOrigins,
		Logger:         log,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.server = &http.Server{
		Addr:              a.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// Addr returns the HTTP listen address, e.g. ":8080".
func (a *App) Addr() string {
	return fmt.Sprintf(":%d", a.Cfg.Port)
}

// Start runs the HTTP server (blocking). It returns nil after Shutdown.
func (a *App) Start() error {
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Close releases storage resources.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
