package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"

	"go-resell-backoffice/internal/cache"
	"go-resell-backoffice/internal/config"
	"go-resell-backoffice/internal/database"
	"go-resell-backoffice/internal/event"
	"go-resell-backoffice/internal/handler"
	"go-resell-backoffice/internal/metrics"
	"go-resell-backoffice/internal/middleware"
	"go-resell-backoffice/internal/repository"
	"go-resell-backoffice/internal/router"
	"go-resell-backoffice/internal/schema"
	"go-resell-backoffice/internal/service"
	"go-resell-backoffice/internal/websocket"
)

// Core is everything the server and the CLI share: storage, cache, events
// and the services over them.
type Core struct {
	DB       *database.DB
	Bus      *event.InMemoryBus
	Metrics  *metrics.Metrics
	Trash    *service.TrashService
	Entities *service.EntityService
	Audit    *service.AuditService
	Auth     *service.AuthService

	closers []func()
}

// Build opens the database, applies migrations and wires the services.
func Build(ctx context.Context, cfg *config.Config) (*Core, error) {
	slog.Info("connecting to database", "driver", cfg.DBDriver)
	db, err := database.Open(ctx, database.Options{
		Driver:   cfg.DBDriver,
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	core := &Core{DB: db, closers: []func(){db.Close}}

	if err := db.Migrate(); err != nil {
		core.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("database ready")

	listings := core.listingCache(ctx, cfg)

	core.Bus = event.NewBus()
	core.Metrics = metrics.New()
	registry := schema.BackOffice()

	core.Audit = service.NewAuditService(repository.NewAuditRepository(db.Store))
	core.Trash = service.NewTrashService(db.Store, registry, listings, core.Bus, core.Audit, core.Metrics)
	core.Entities = service.NewEntityService(db.Store, registry, listings, core.Bus, core.Audit, core.Metrics)
	core.Auth = service.NewAuthService(
		repository.NewIdentityRepository(db.Store),
		repository.NewTokenRepository(db.Store),
		cfg.JWTSecret,
		cfg.JWTAccessTTL,
		cfg.JWTRefreshTTL,
	)

	if err := core.Auth.Bootstrap(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		core.Close()
		return nil, err
	}

	return core, nil
}

// listingCache prefers Redis and falls back to an in-process cache when
// REDIS_ADDR is empty or unreachable at startup.
func (c *Core) listingCache(ctx context.Context, cfg *config.Config) cache.ListingCache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.ListingCacheTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	redisCache := cache.NewRedisCache(client, cfg.ListingCacheTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		slog.Warn("redis unavailable, using in-process listing cache", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return cache.NewMemoryCache(cfg.ListingCacheTTL)
	}

	c.closers = append(c.closers, func() { _ = client.Close() })
	slog.Info("listing cache ready", "backend", "redis", "addr", cfg.RedisAddr)
	return redisCache
}

// Close releases resources in reverse order of acquisition.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

type App struct {
	server *http.Server
	core   *Core
	cancel context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	core, err := Build(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	hub := websocket.NewHub(core.Bus)
	go hub.Run(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		sink := event.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		go sink.Run(ctx, core.Bus)
		core.closers = append(core.closers, func() {
			if err := sink.Close(); err != nil {
				slog.Warn("kafka sink close failed", "error", err)
			}
		})
		slog.Info("forwarding events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	core.Trash.StartSweeper(ctx, cfg.TrashRetention, cfg.TrashSweepInterval)
	go cleanTokens(ctx, core.Auth, cfg.TokenCleanupInterval)

	authMiddleware := middleware.NewAuthMiddleware(core.Auth)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:    handler.NewAuthHandler(core.Auth),
		Trash:   handler.NewTrashHandler(core.Trash),
		Tables:  handler.NewTableHandler(core.Entities, core.Trash),
		Audit:   handler.NewAuditHandler(core.Audit),
		Events:  hub.ServeWS,
		Metrics: core.Metrics.Handler(),
	}, core.DB.Health)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, core: core, cancel: cancel}, nil
}

func cleanTokens(ctx context.Context, auth *service.AuthService, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.CleanExpiredTokens(ctx)
			if err != nil {
				slog.Warn("refresh token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired refresh tokens removed", "count", n)
			}
		}
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop background workers before the database goes away.
	a.cancel()
	shutdownErr := a.server.Shutdown(ctx)
	a.core.Close()

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
