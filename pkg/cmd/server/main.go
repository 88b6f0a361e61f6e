package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-partition-service/pkg/api"
	"github.com/gilchrisn/graph-partition-service/pkg/config"
	"github.com/gilchrisn/graph-partition-service/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Str("version", api.Version).Msg("Starting graph partition service")

	cfg := config.NewConfig()
	if *configPath != "" {
		if err := cfg.LoadFromFile(*configPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	settings, err := cfg.ServerSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := cfg.CreateLogger()
	log.Logger = logger

	logger.Info().
		Str("address", settings.Server.Address).
		Str("backend", settings.Detector.Backend).
		Str("distributor", settings.Partitioning.Distributor).
		Int64("max_upload_bytes", settings.Server.MaxUploadBytes).
		Msg("Configuration loaded")

	reg := metrics.DefaultRegistry()
	handlers := api.NewHandlers(settings, cfg.LouvainConfig(), reg)
	router := api.NewRouter(handlers, reg, settings.Server.AllowedOrigins, logger)

	server := &http.Server{
		Addr:         settings.Server.Address,
		Handler:      router,
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("address", settings.Server.Address).Msg("HTTP server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server shutdown complete")
}
