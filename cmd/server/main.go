package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"warbler/internal/api"
	"warbler/internal/config"
	"warbler/internal/events"
	"warbler/internal/repository"
	"warbler/internal/s3"
	"warbler/internal/service"
	"warbler/internal/tracing"
	_ "warbler/migrations"
)

func main() {
	cfg, err := config.Load(".env.dev", ".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	api.SetupGlobalHandler(cfg.ServiceName, cfg.LogLevel)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations(cfg)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("Error shutting down tracer provider", "error", err)
		}
	}()

	store, closeStore := openStore(cfg)
	defer closeStore()

	var publisher events.EventPublisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNatsPublisher(cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		slog.Info("Successfully connected to NATS.", "url", cfg.NATSURL)
	}

	deps := api.Dependencies{
		ServiceName: cfg.ServiceName,
		Auth:        service.NewAuthService(store, cfg.BcryptCost),
		Users:       service.NewUserService(store, publisher),
		Messages:    service.NewMessageService(store, publisher),
		Sessions:    api.NewSessions(cfg.SessionTTL, nil),
		Logger:      slog.Default(),
	}

	if cfg.S3.Enabled() {
		presigner, err := s3.NewFilePresigner(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3 presigner: %v", err)
		}
		deps.Presigner = presigner
		slog.Info("Successfully initialized S3 presigner.", "bucket", cfg.S3.Bucket)
	}

	app := api.NewApp(deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("Error shutting down server", "error", err)
		}
	}()

	slog.Info("Listening", "service", cfg.ServiceName, "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func openStore(cfg *config.Config) (repository.Store, func()) {
	if cfg.DBDriver == config.DriverMemory {
		slog.Warn("Using the in-memory store; data is lost on restart.")
		return repository.NewMemoryStore(), func() {}
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	slog.Info("Successfully connected to the database.", "host", cfg.DBHost, "name", cfg.DBName)

	return repository.NewPostgresStore(db), func() {
		if err := db.Close(); err != nil {
			slog.Error("Error closing database", "error", err)
		}
	}
}

func handleMigrations(cfg *config.Config) {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
