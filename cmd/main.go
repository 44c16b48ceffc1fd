package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	// Instrumentation
	"github.com/exaring/otelpgx"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Interne
	"github.com/blockfile/ffs/config"
	"github.com/blockfile/ffs/internal/adapters/primary/events"
	"github.com/blockfile/ffs/internal/adapters/primary/rest"
	"github.com/blockfile/ffs/internal/adapters/secondary/eventbroker"
	"github.com/blockfile/ffs/internal/adapters/secondary/repository"
	"github.com/blockfile/ffs/internal/adapters/secondary/security"
	"github.com/blockfile/ffs/internal/adapters/secondary/storage"
	"github.com/blockfile/ffs/internal/core/ports"
	"github.com/blockfile/ffs/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg := config.Load()
	initLogger(cfg)
	slog.Info("🚀 Starting ffs", "env", cfg.Env, "port", cfg.HTTPPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure : Postgres
	dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		slog.Error("Unable to parse DB config", "error", err)
		os.Exit(1)
	}
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	slog.Info("✅ Connected to Postgres")

	// 4. Infrastructure : NATS
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	slog.Info("✅ Connected to NATS")

	// 5. Infrastructure : Redis (timelines)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		slog.Error("Failed to instrument redis", "error", err)
	}
	defer rdb.Close()

	// 6. Adapters Driven
	userRepo := repository.NewPostgresUserRepo(dbPool)
	postRepo := repository.NewPostgresPostRepo(dbPool)
	feedRepo := repository.NewRedisFeedRepo(rdb)
	eventPub := eventbroker.NewNatsPublisher(nc)
	tokens := security.NewJWTProvider(cfg.JWTSecret, cfg.TokenTTL)

	if err := userRepo.EnsureSchema(ctx); err != nil {
		slog.Error("Unable to ensure users schema", "error", err)
		os.Exit(1)
	}
	if err := postRepo.EnsureSchema(ctx); err != nil {
		slog.Error("Unable to ensure posts schema", "error", err)
		os.Exit(1)
	}

	mediaStore, uploadsDir, err := buildStorage(cfg)
	if err != nil {
		slog.Error("Unable to init media storage", "error", err)
		os.Exit(1)
	}

	// 7. Core (Domain Logic)
	directorySvc := services.NewDirectoryService(userRepo, mediaStore, tokens, eventPub)
	postSvc := services.NewPostService(postRepo, userRepo, mediaStore, eventPub)
	engagementSvc := services.NewEngagementService(userRepo, postRepo, eventPub)
	feedSvc := services.NewFeedService(feedRepo, userRepo)

	// 8. Adapters Driving
	handler := events.NewEventHandler(feedSvc)
	sub, err := handler.Subscribe(nc)
	if err != nil {
		slog.Error("Unable to subscribe to post.created", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sub.Unsubscribe() }()

	server := rest.NewServer(directorySvc, postSvc, engagementSvc, feedSvc, tokens, uploadsDir)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 9. Démarrage + Graceful Shutdown
	go func() {
		slog.Info("📡 HTTP server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	slog.Info("👋 Server exited")
}

// --- Helpers ---

func buildStorage(cfg config.Config) (ports.MediaStorage, string, error) {
	if cfg.StorageDriver == "s3" {
		store, err := storage.NewS3Storage(cfg.S3Region, cfg.S3Bucket)
		// uploadsDir vide : pas de serving statique, S3 sert les URLs
		return store, "", err
	}
	store, err := storage.NewLocalStorage(cfg.UploadsDir, cfg.PublicBaseURL)
	return store, cfg.UploadsDir, err
}

func initLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("ffs"),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
