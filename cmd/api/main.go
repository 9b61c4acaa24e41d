package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"rentline/internal/api"
	"rentline/internal/client"
	"rentline/internal/config"
	"rentline/internal/database"
	"rentline/internal/domain"
	"rentline/internal/events"
	"rentline/internal/export"
	"rentline/internal/health"
	"rentline/internal/logging"
	"rentline/internal/metrics"
	"rentline/internal/queue"
	"rentline/internal/repository"
	"rentline/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger("api")
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg); err != nil {
		logger.Error().Err(err).Msg("prepare directories")
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, store := initStore(ctx, cfg, logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	upstream := client.New(cfg.Upstream, logger)
	upstream.UseCache(store, time.Duration(cfg.Upstream.CacheTTLSeconds)*time.Second)

	bus := events.NewEventBus(logger)
	producer := queue.NewProducer(redisClient, db, logger)
	service.NewJobDispatcher(producer, logger).Register(bus)

	bookings := service.NewBookingService(upstream, store, bus, cfg.Booking.MaxRentalDays, logger)
	exporter := export.NewExporter(cfg.Exports.Path, logger)

	checker := health.NewChecker()
	checker.Register("database", true, db.PingContext)
	if redisClient != nil {
		checker.Register("cache", true, func(ctx context.Context) error {
			return repository.Ping(ctx, redisClient)
		})
	}
	checker.Register("upstream", false, upstream.Ping)

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go servePrometheus(cfg.Monitoring.PrometheusPort, logger)
	}

	server := api.NewHTTPServer(cfg.Server, upstream, bookings, exporter, checker, store, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger(component string) (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", component).Logger()
	return cfg, &logger, closer, nil
}

func prepareDirectories(cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(cfg.Exports.PDFOutputDir, 0o755)
}

// initStore wires the cache/rate-limit store: Redis with an in-memory
// fallback when configured, plain in-memory otherwise.
func initStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.Store) {
	memory := repository.NewMemoryStore()
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-memory store")
		return nil, memory
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}
	return redisClient, repository.NewFailoverStore(repository.NewRedisStore(redisClient), memory, logger)
}

func servePrometheus(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := ":" + strconv.Itoa(port)
	logger.Info().Str("addr", addr).Msg("prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
