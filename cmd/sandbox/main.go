package main

import (
	"fmt"
	"os"

	"github.com/postmat-dev/postmat/internal/config"
	"github.com/postmat-dev/postmat/internal/logger"
	"github.com/postmat-dev/postmat/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sandbox server")
	}

	log.Info().
		Str("version", version).
		Str("database", cfg.Database.URL).
		Dur("session_ttl", cfg.Session.TTL).
		Msg("Starting postmat sandbox...")

	// Blocks until SIGINT or SIGTERM
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Sandbox server failed")
	}
}
