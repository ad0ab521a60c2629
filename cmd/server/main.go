// Package main - Entry point for the social-insurance query server
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"social-insurance/api"
	"social-insurance/core/query"
	"social-insurance/db"
	"social-insurance/internal/config"
	"social-insurance/internal/logging"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "social-insurance.json", "Path to the config file")
	addr := flag.String("addr", "", "Listen address override")
	flag.Parse()

	// A local .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logging.Fatal("load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.ListenAddress = *addr
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		logging.Fatal("initialize logging", zap.Error(err))
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		logging.Fatal("open bracket store", zap.Error(err))
	}
	defer store.Close()

	server := api.NewServer(version, query.NewService(store), store, cfg.RequestTimeout())

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info("server listening",
			zap.String("addr", cfg.ListenAddress),
			zap.String("version", version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("shutdown", zap.Error(err))
	}
}
