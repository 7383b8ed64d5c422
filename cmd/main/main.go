package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"kiosk/catalog/internal/config"
	"kiosk/catalog/internal/container"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default ./config.yaml)")
	flag.Parse()

	log.Info("Starting kiosk catalog...")

	// Load configuration using viper
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg.Logging)
	log.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	// Run the application
	if err := app.Run(ctx); err != nil {
		log.Errorf("Application exited with error: %v", err)
		app.Close()
		os.Exit(1)
	}

	log.Info("Application finished successfully")
}

func setupLogging(cfg config.LoggingConfig) {
	if level, err := log.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, keeping %s", cfg.Level, log.GetLevel())
	}

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
