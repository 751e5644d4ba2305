package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"warbler/internal/api"
	"warbler/internal/config"
	"warbler/internal/events"
)

func main() {
	cfg, err := config.Load(".env.dev", ".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	serviceName := cfg.ServiceName + "-worker"
	api.SetupGlobalHandler(serviceName, cfg.LogLevel)

	if cfg.NATSURL == "" {
		log.Fatal("NATS_URL environment variable is not set")
	}

	subscriber, err := events.NewActivitySubscriber(cfg.NATSURL, events.NotificationLogger(slog.Default()))
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer subscriber.Close()

	if err := subscriber.Start(); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	slog.Info("Activity worker started, waiting for events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down activity worker...")
}
