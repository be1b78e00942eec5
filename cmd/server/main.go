package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intel-server/internal/catalog"
	"intel-server/internal/feed/ogame"
	"intel-server/internal/feed/ogapi"
	"intel-server/internal/feed/ptre"
	"intel-server/internal/highscore"
	"intel-server/internal/intel"
	"intel-server/internal/middleware"
	"intel-server/internal/planet"
	"intel-server/internal/player"
	"intel-server/internal/report"
	"intel-server/internal/server"
	"intel-server/internal/shared/config"
	"intel-server/internal/shared/database"
	"intel-server/internal/shared/logger"
	sharedredis "intel-server/internal/shared/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	logger.Init()

	log := slog.With("component", "main")

	db, err := database.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := sharedredis.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis", "error", err)
		}
	}()

	feedsCfg := config.GlobalConfig.Feeds
	gameAPI := ogame.NewClient(feedsCfg, slog.Default())
	intelNetwork := ptre.NewClient(feedsCfg, slog.Default())
	reportAPI := ogapi.NewClient(feedsCfg, slog.Default())

	playerRepo := player.NewRepository(db, slog.Default())
	planetRepo := planet.NewRepository(db, slog.Default())
	reportRepo := report.NewRepository(db, slog.Default())
	highscoreRepo := highscore.NewRepository(db, slog.Default())

	playerService := player.NewService(playerRepo, gameAPI, slog.Default())
	planetService := planet.NewService(db, planetRepo, playerRepo, slog.Default())
	reportService := report.NewService(db, reportRepo, playerRepo, planetRepo, slog.Default())
	highscoreService := highscore.NewService(db, highscoreRepo, playerService, gameAPI, slog.Default())
	unitCatalog := catalog.New(gameAPI.FetchUnitNames, redisClient, slog.Default())
	intelService := intel.NewService(
		playerService,
		planetService,
		reportService,
		gameAPI,
		intelNetwork,
		reportAPI,
		slog.Default(),
	)

	routes := server.NewRoutes(
		db,
		playerService,
		planetService,
		reportService,
		highscoreService,
		intelService,
		unitCatalog,
		slog.Default(),
	)
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(config.GlobalConfig.RateLimit)
	corsMiddleware := middleware.NewCORS()
	handler := corsMiddleware.Middleware(rateLimiter.Middleware(mux))

	serverCfg := config.GlobalConfig.Server
	srv := &http.Server{
		Addr:         ":" + serverCfg.Port,
		Handler:      handler,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  serverCfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			"port", serverCfg.Port,
			"environment", serverCfg.Environment,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
