package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasks_api/internal/config"
	"tasks_api/internal/db"
	httpServer "tasks_api/internal/http"
	"tasks_api/internal/logger"
	"tasks_api/internal/service"
	"tasks_api/internal/ws"

	redis "github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx := context.Background()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		client, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			if cfg.StoreBackend == config.BackendRedis {
				logger.Fatal("redis unavailable", "error", err)
			}
			// rate limiting falls back to the in-process limiter
			logger.Warn("redis unavailable, using in-process rate limiter", "error", err)
		} else {
			rdb = client
			defer rdb.Close()
		}
	}

	store, closeStore, err := openStore(ctx, cfg, rdb)
	if err != nil {
		logger.Fatal("failed to open task store", "backend", cfg.StoreBackend, "error", err)
	}
	defer closeStore()

	hub := ws.NewHub()
	tasks := service.NewTaskService(store, service.WithNotifier(hub))

	r := httpServer.NewRouter(httpServer.Deps{
		Tasks:           tasks,
		Identity:        service.NewIdentityExtractor(),
		Store:           store,
		Hub:             hub,
		Redis:           rdb,
		StoreBackend:    cfg.StoreBackend,
		Version:         cfg.AppVersion,
		AllowedOrigin:   cfg.AllowedOrigin,
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// hijacked websocket connections are not tracked by Shutdown
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
