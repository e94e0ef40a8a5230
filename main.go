package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vod-catalog/domain/model"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/cache"
	"vod-catalog/infrastructure/clients/vod"
	"vod-catalog/infrastructure/configuration"
	"vod-catalog/infrastructure/logger"
	"vod-catalog/infrastructure/persistence"
	"vod-catalog/infrastructure/realtime"
	"vod-catalog/infrastructure/retry"
	"vod-catalog/infrastructure/utils"
	httpHandler "vod-catalog/interfaces/http"
	"vod-catalog/server"
	"vod-catalog/usecase"

	"golang.org/x/sync/errgroup"
)

const (
	scrollSessionCapacity = 1000
	scrollSessionTTL      = 30 * time.Minute
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// env files are applied by the configuration package before C is resolved
	logger.GetLogger().WithField("files", configuration.EnvFiles).Info("Environment files loaded")

	app := configuration.C.App

	// PRINT_ADMIN_TOKEN=<name> prints a one-hour admin token and exits
	if name := os.Getenv("PRINT_ADMIN_TOKEN"); name != "" {
		token, err := utils.GenerateAdminToken(name, app.SecretKey, time.Hour)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot generate admin token")
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	upstream := configuration.GetUpstreamConfig()
	source, err := vod.NewVODClient(&vod.Config{
		BaseURL:   upstream.BaseURL,
		Timeout:   upstream.Timeout,
		UserAgent: upstream.UserAgent,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot create content API client")
		os.Exit(1)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"baseURL": upstream.BaseURL,
		"timeout": upstream.Timeout.String(),
	}).Info("Content API client initialized")

	items := cache.NewTTLCache[model.Video]("items", cache.ItemCacheCapacity, cache.ItemCacheTTL, time.Now)
	snapshot := InitiateSnapshotStore(ctx)

	hub := realtime.NewSnapshotHub()
	catalogUseCase := usecase.NewCatalogUseCase(source, items, snapshot, retry.NewExecutor(nil)).
		WithProgressivePages(configuration.C.Catalog.InitialPages, configuration.C.Catalog.MaxPages).
		WithSnapshotObserver(hub.BroadcastSnapshot)

	psqlDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PostgreSQL not available - continuing without warm store")
	}
	if psqlDb != nil {
		defer psqlDb.Close()
		if err := persistence.EnsureVideoCacheSchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring video cache schema")
		} else {
			store := persistence.NewVideoCacheRepository(psqlDb)
			catalogUseCase.WithVideoStore(store)
			g.Go(func() error {
				return purgeLoop(ctx, store, time.Duration(configuration.C.Catalog.PurgeIntervalMinutes)*time.Minute)
			})
		}
	}

	sessions := cache.NewTTLCache[*usecase.ScrollController]("scroll_sessions", scrollSessionCapacity, scrollSessionTTL, time.Now)
	router := server.InitiateRouter(
		httpHandler.NewCatalogHandler(catalogUseCase),
		httpHandler.NewScrollHandler(catalogUseCase, sessions),
		httpHandler.NewAdminHandler(catalogUseCase),
		hub,
		app.AllowOrigin,
		app.SecretKey,
	)

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	select {
	case <-catalogUseCase.Pager().Background():
	case <-shutdownCtx.Done():
		logger.GetLogger().Warn("Background page loading still running at shutdown")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateSnapshotStore uses Redis when enabled and reachable, otherwise process memory.
func InitiateSnapshotStore(ctx context.Context) repository.ISnapshotStore {
	redisCfg := configuration.C.RedisClient
	if !redisCfg.Enabled {
		return cache.NewMemorySnapshotStore(cache.SnapshotTTL, time.Now)
	}
	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", redisCfg.Host, redisCfg.Port),
		redisCfg.Username,
		redisCfg.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - keeping homepage snapshot in memory")
		return cache.NewMemorySnapshotStore(cache.SnapshotTTL, time.Now)
	}
	logger.GetLogger().Info("Redis client initialized successfully.")
	return cache.NewRedisSnapshotStore(redisClient, cache.SnapshotKey, cache.SnapshotTTL)
}

func InitiateDatabase() (*sql.DB, error) {
	if !configuration.C.Database.Enabled {
		return nil, nil
	}
	db, err := persistence.NewPostgreSQLDB(configuration.C.Database.Psql)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logger.GetLogger().WithField("host", configuration.C.Database.Psql.Host).Info("Database connected.")
	return db, nil
}

func purgeLoop(ctx context.Context, store repository.IVideoStore, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			purgeCtx, cancelPurge := context.WithTimeout(ctx, 30*time.Second)
			removed, err := store.PurgeExpired(purgeCtx)
			cancelPurge()
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("Failed to purge expired videos")
				continue
			}
			logger.GetLogger().WithField("removed", removed).Debug("Purged expired videos")
		}
	}
}
