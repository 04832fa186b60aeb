package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/focusquest/focusquest/internal/api"
	"github.com/focusquest/focusquest/internal/app/engagement"
	"github.com/focusquest/focusquest/internal/health"
	"github.com/focusquest/focusquest/internal/infra/cache"
	"github.com/focusquest/focusquest/internal/infra/logging"
	"github.com/focusquest/focusquest/internal/infra/sqlite"
)

// Version is reported by /api/version. Set by the CLI at startup.
var Version = "dev"

// ErrNoSecret is returned when no token signing secret is configured.
var ErrNoSecret = errors.New("auth.jwt_secret is empty: run `focusquest config init` or set FOCUSQUEST_JWT_SECRET")

// Daemon is the core FocusQuest runtime. It wires together all services.
type Daemon struct {
	Config     Config
	Logger     *zap.Logger
	DB         *sqlite.DB
	Cache      *cache.Redis
	Engagement *engagement.Service
	Auth       *api.Authenticator
	Health     *health.Checker
	Server     *api.Server
}

// New creates and initializes a Daemon with all services wired.
func New(ctx context.Context) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates a Daemon with the given configuration. The Redis
// cache is optional: if it cannot be reached the daemon logs a warning and
// serves leaderboards straight from SQLite.
func NewWithConfig(ctx context.Context, cfg Config) (*Daemon, error) {
	logger, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxFiles:   cfg.Logging.MaxFiles,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &Daemon{
		Config: cfg,
		Logger: logger,
		DB:     db,
	}

	opts := []engagement.Option{
		engagement.WithLocation(cfg.Location()),
		engagement.WithLogger(logger.Named("engagement")),
		engagement.WithLeaderboardSize(cfg.Engine.LeaderboardSize),
	}
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cache.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.LeaderboardTTL(),
		}, logger)
		if err != nil {
			logger.Warn("leaderboard_cache_disabled", zap.Error(err))
		} else {
			d.Cache = rc
			opts = append(opts, engagement.WithCache(rc))
		}
	}
	d.Engagement = engagement.NewService(db, opts...)

	d.Health = health.NewChecker(health.DefaultInterval, logger.Named("health"),
		health.PingCheck("sqlite", db),
		health.DirCheck("storage", cfg.Storage.Dir),
	)
	if d.Cache != nil {
		d.Health.Add(health.Check{Name: "redis", CheckFn: d.Cache.Ping})
	}

	d.Auth = api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.TokenTTL())

	srv := api.NewServer(d.Engagement, d.Auth, logger.Named("http"))
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	srv.SetRequestTimeout(cfg.RequestTimeout())
	srv.SetHealth(d.Health)
	srv.SetVersion(Version)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Serve starts the HTTP API server and the health loop, and blocks until
// ctx is cancelled or SIGINT/SIGTERM arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	if d.Config.Auth.JWTSecret == "" {
		return ErrNoSecret
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           d.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      d.Config.RequestTimeout() + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.Health.Run(ctx)
		return nil
	})

	g.Go(func() error {
		d.Logger.Info("server_started",
			zap.String("addr", addr),
			zap.String("version", Version),
			zap.Bool("metrics", d.Config.Telemetry.Prometheus),
			zap.Bool("cache", d.Cache != nil),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})

	// Graceful shutdown once the signal context or a sibling ends.
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		d.Logger.Info("server_stopping")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.Cache != nil {
		_ = d.Cache.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}
