package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/umar/messagely/internal/auth"
	"github.com/umar/messagely/internal/config"
	"github.com/umar/messagely/internal/database"
	"github.com/umar/messagely/internal/events"
	"github.com/umar/messagely/internal/messages"
	"github.com/umar/messagely/internal/middleware"
	redisc "github.com/umar/messagely/internal/redis"
	"github.com/umar/messagely/internal/server"
	"github.com/umar/messagely/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	slog.Info("starting messagely", "env", cfg.Mode, "database", cfg.DatabaseName())

	ctx := context.Background()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.Mode)
	if err != nil {
		slog.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.InitDB(ctx, cfg.DatabaseURL())
	if err != nil {
		slog.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations complete")

	store := database.NewStore(db)

	// Redis backs the shared send limiter and, without Kafka, event fan-out.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redisc.InitRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to init Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to Redis")
	}

	var (
		publisher messages.EventPublisher = events.Nop{}
		kafkaPub  *events.KafkaPublisher
	)
	switch {
	case len(cfg.KafkaBrokers) > 0:
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPub
		slog.Info("publishing message events to Kafka", "topic", cfg.KafkaTopic)
	case redisClient != nil:
		publisher = redisc.NewPublisher(redisClient)
		slog.Info("publishing message events to Redis")
	}

	var sendLimiter middleware.Limiter
	if redisClient != nil {
		sendLimiter = redisc.NewWindowLimiter(redisClient, "send", cfg.SendLimit, cfg.SendWindow)
	} else {
		perSecond := float64(cfg.SendLimit) / cfg.SendWindow.Seconds()
		sendLimiter = middleware.NewLocalLimiter(perSecond, int(cfg.SendLimit))
	}

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	router := server.NewRouter(server.Deps{
		DB:             store,
		Accounts:       store,
		Directory:      store,
		Messages:       messages.NewService(store, publisher),
		SendLimiter:    sendLimiter,
		AuthLimiter:    middleware.NewLocalLimiter(cfg.LoginRate, cfg.LoginBurst),
		TrustedProxies: trustedProxies,
		Auth: auth.Options{
			JWTSecret:  cfg.JWTSecret,
			TokenTTL:   cfg.TokenTTL,
			BcryptCost: cfg.BcryptCost,
		},
	})

	var handler http.Handler = middleware.CORS(cfg.CORSOrigins)(router)
	if cfg.OTLPEndpoint != "" {
		handler = otelhttp.NewHandler(handler, "messagely")
	}

	// HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			slog.Error("failed to close kafka writer", "error", err)
		}
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if err := db.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("failed to flush traces", "error", err)
	}

	slog.Info("server stopped gracefully")
}
