package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shellac/src/features/config"
	"shellac/src/features/hosting"
	"shellac/src/features/library"
	"shellac/src/features/logging"
	"shellac/src/features/metrics"
	"shellac/src/features/scanning"
	"shellac/src/infra/artwork"
	"shellac/src/infra/database"
	"shellac/src/infra/providers"
	"shellac/src/infra/tag"
)

func main() {
	// Load configuration
	cfgManager, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	// Open the catalog database
	store, err := database.NewSqliteCatalog(cfgManager.Get().Database.Path)
	if err != nil {
		log.Fatalf("failed to open catalog: %v", err)
	}
	defer store.Close()

	libraryService := library.NewService(store)
	metricsService := metrics.NewService(store)

	// Wire the scan pipeline
	var remote artwork.RemoteFetcher
	if cfgManager.Get().CoverArt.Remote.Enabled {
		remote = providers.NewCoverArtClient(cfgManager.Get().CoverArt.Remote)
		slog.Info("Remote cover art provider enabled", "baseURL", cfgManager.Get().CoverArt.Remote.BaseURL)
	}
	artService := artwork.NewService(cfgManager, remote)

	extractor := tag.NewExtractor()
	walker := scanning.NewWalker(logger)
	builder := scanning.NewBuilder(cfgManager, walker, extractor, artService, logger)

	scanService := scanning.NewService(cfgManager, store, builder, metricsService, logger)
	if err := scanService.Start(); err != nil {
		log.Fatalf("failed to start scan scheduler: %v", err)
	}
	defer scanService.Stop()

	// Create and start the HTTP server
	server := hosting.NewServer(cfgManager, libraryService, scanService, metricsService)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfgManager.Get().Server.Port)

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Server gracefully shut down.")
}
