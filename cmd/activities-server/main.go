// cmd/activities-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"activities-service/internal/activities"
	"activities-service/internal/api"
	"activities-service/internal/audit"
	awsclients "activities-service/internal/common/aws"
	"activities-service/internal/common/config"
	"activities-service/internal/common/database"
	"activities-service/internal/common/logger"
	"activities-service/internal/common/observability"
	"activities-service/internal/notify"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

var newPostgres = database.NewPostgres

// connectPostgres opens one pool and pings it until the server answers. The
// pool is closed when every attempt fails.
func connectPostgres(ctx context.Context, cfg config.PostgresConfig, maxRetries int, delay time.Duration, log *zap.Logger) (*database.PostgresClient, error) {
	pg, err := newPostgres(cfg)
	if err != nil {
		return nil, err
	}

	err = retryWithBackoff(func() error {
		return pg.Ping(ctx)
	}, maxRetries, delay, log, "PostgreSQL connection")
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).With(
		zap.String("service", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting activities server...", zap.String("store", cfg.Registry.Store))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed, err := activities.LoadSeed(cfg.Registry.SeedPath)
	if err != nil {
		zapLog.Fatal("seed load failed", zap.Error(err))
	}
	zapLog.Info("Activity seed loaded", zap.Int("activities", len(seed)), zap.String("seedPath", cfg.Registry.SeedPath))

	opts := activities.Options{EnforceCapacity: cfg.Registry.EnforceCapacity}

	// --- Init registry store ---
	var store activities.Store
	switch cfg.Registry.Store {
	case config.StoreRedis:
		rdb := database.NewRedis(cfg.Database.Redis)
		defer rdb.Close()

		err = retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}

		redisStore := activities.NewRedisStore(rdb.Client, cfg.Registry.RedisKeyPrefix, opts)
		if cfg.Registry.ReseedOnStart {
			if err := redisStore.Seed(ctx, seed); err != nil {
				zapLog.Fatal("redis seed failed", zap.Error(err))
			}
			zapLog.Warn("Redis registry reseeded", zap.String("prefix", cfg.Registry.RedisKeyPrefix))
		} else {
			seeded, err := redisStore.Init(ctx, seed)
			if err != nil {
				zapLog.Fatal("redis registry init failed", zap.Error(err))
			}
			zapLog.Info("Redis registry ready",
				zap.String("prefix", cfg.Registry.RedisKeyPrefix),
				zap.Bool("seeded", seeded),
			)
		}
		store = redisStore
	default:
		store = activities.NewMemoryStore(seed, opts)
	}

	// --- Init event sinks ---
	var sinks []activities.EventSink

	if cfg.Audit.Enabled {
		pg, err := connectPostgres(ctx, cfg.Database.Postgres, 15, 2*time.Second, zapLog)
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		recorder := audit.NewRecorder(pg.DB, config.GetDuration(cfg.Audit.Timeout))
		if err := recorder.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("audit schema setup failed", zap.Error(err))
		}
		sinks = append(sinks, recorder)
		zapLog.Info("Audit trail enabled")
	}

	if cfg.Notifications.Enabled() {
		awsCfg, err := awsclients.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		timeout := config.GetDuration(cfg.Notifications.Timeout)

		if cfg.Notifications.Email.Enabled {
			sinks = append(sinks, notify.NewEmailNotifier(
				awsclients.NewSESClient(awsCfg), cfg.Notifications.Email.FromEmail, timeout,
			))
			zapLog.Info("Email notifications enabled", zap.String("from", cfg.Notifications.Email.FromEmail))
		}
		if cfg.Notifications.Events.Enabled {
			sinks = append(sinks, notify.NewEventPublisher(
				awsclients.NewSNSClient(awsCfg), cfg.Notifications.Events.TopicARN, timeout,
			))
			zapLog.Info("Event publishing enabled", zap.String("topic", cfg.Notifications.Events.TopicARN))
		}
	}

	service := activities.NewService(store, log, sinks...)
	handler := api.NewHandler(service, log)

	router := api.NewRouter(handler, obs, log, map[string]http.Handler{
		"GET /metrics": promhttp.Handler(),
	})

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: config.GetDuration(cfg.Server.ReadHeaderTimeout),
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, draining requests...")
	case err := <-serverErr:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Activities server stopped gracefully")
}
