package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/trattoria-andreas/menu-service/app/config"
	"github.com/trattoria-andreas/menu-service/app/database"
	"github.com/trattoria-andreas/menu-service/app/imagestore"
	"github.com/trattoria-andreas/menu-service/app/logger"
	"github.com/trattoria-andreas/menu-service/app/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer database.Close(db, log)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("Schema migration failed", zap.Error(err))
		}
	}

	images, err := imagestore.New(cfg.Images.Dir, cfg.Images.PublicPath, cfg.Images.MaxBytes)
	if err != nil {
		log.Fatal("Image store initialisation failed", zap.Error(err))
	}

	srv := server.New(cfg.HTTP.Addr, server.NewRouter(server.Dependencies{
		DB:     db,
		Images: images,
		Log:    log,
	}), log)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
}
