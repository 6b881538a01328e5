package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"landmarket/config"
	"landmarket/db"
	"landmarket/favorite"
	"landmarket/httpapi"
	"landmarket/identity"
	"landmarket/inquiry"
	"landmarket/listing"
	"landmarket/logger"
	"landmarket/notify"
	"landmarket/savedsearch"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, flush := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer flush()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DB.URL)
	if err != nil {
		zlog.Fatal("bootstrap database pool", zap.Error(err))
	}
	defer pool.Close()

	notifier := notify.NewStore(pool)
	users := identity.NewService(identity.NewRepository(pool), cfg.JWT.Secret).
		WithTokenTTL(time.Duration(cfg.JWT.TokenTTLHrs) * time.Hour).
		WithNotifier(notifier)
	listings := listing.NewService(pool, listing.NewRepository(pool), users, notifier)
	inquiries := inquiry.NewService(pool, inquiry.NewRepository(pool), notifier)
	favorites := favorite.NewService(favorite.NewRepository(pool), notifier)
	searches := savedsearch.NewService(savedsearch.NewRepository(pool), listings)

	router := httpapi.New(zlog, httpapi.Services{
		Users:         users,
		Listings:      listings,
		Inquiries:     inquiries,
		Favorites:     favorites,
		SavedSearches: searches,
		Notifications: notifier,
	}, httpapi.Options{
		Env:            cfg.App.Env,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTP.IdleTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown", zap.Error(err))
	}
}
