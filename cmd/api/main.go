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

	"example.com/runlog/internal/api"
	"example.com/runlog/internal/app"
	"example.com/runlog/internal/auth"
	"example.com/runlog/internal/config"
	"example.com/runlog/internal/logging"
	httptransport "example.com/runlog/internal/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("failed to initialise")
		os.Exit(1)
	}
	defer a.Close()

	if _, err := a.Repo.Migrate(ctx); err != nil {
		logging.Error().Err(err).Msg("failed to migrate run table")
		os.Exit(1)
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.JWTIssuer}, auth.PublicPaths)
	router := httptransport.NewRouter(authMiddleware.Wrap)
	api.NewHandler(a.Service).RegisterRoutes(router)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTP.Address,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, router)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logging.Info().Str("address", cfg.HTTP.Address).Msg("runlog api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("graceful shutdown failed")
	}
	logging.Info().Msg("runlog api stopped")
}
