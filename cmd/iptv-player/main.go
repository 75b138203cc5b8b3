package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/acampos/iptv-player/config"
	"github.com/acampos/iptv-player/handlers"
)

func main() {
	// Optional .env file for local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	cfg.Print()

	deps, err := handlers.InitDependencies(cfg)
	if err != nil {
		log.Fatalf("Initialization error: %v", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Read stored playlists and build the initial catalog. Startup
	// proceeds even when every source is down; the catalog recovers on
	// the next refresh.
	if err := deps.Engine.Start(ctx); err != nil {
		log.Fatalf("Failed to start player engine: %v", err)
	}

	// Background catalog refresh
	var scheduler *cron.Cron
	if cfg.Refresh.Cron != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.Refresh.Cron, func() {
			deps.Engine.Reload(context.Background())
		}); err != nil {
			log.Fatalf("Invalid refresh cron spec %q: %v", cfg.Refresh.Cron, err)
		}
		scheduler.Start()
		log.Printf("Background refresh scheduled: %s", cfg.Refresh.Cron)
	}
	if cfg.Refresh.SyncOnBoot {
		go deps.Engine.Reload(ctx)
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      handlers.SetupRoutes(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
}
