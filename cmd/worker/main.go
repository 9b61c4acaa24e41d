package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"rentline/internal/client"
	"rentline/internal/config"
	"rentline/internal/database"
	"rentline/internal/logging"
	"rentline/internal/metrics"
	"rentline/internal/models"
	"rentline/internal/queue"
	"rentline/internal/repository"
	"rentline/internal/service"
	"rentline/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger("worker")
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, consuming from journal only")
	} else {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable")
		}
		defer repository.Close(redisClient)
	}

	upstream := client.New(cfg.Upstream, logger)
	processors := buildProcessors(cfg, db, upstream, logger)
	metrics.Register()

	opts := queue.OptionsFromConfig(cfg.Queues, cfg.Worker)

	var wg sync.WaitGroup
	for queueName, handler := range processors.Handlers() {
		consumer := queue.NewConsumer(queueName, redisClient, db, opts, handler, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(ctx)
		}()
	}

	scheduler, err := startScheduler(ctx, cfg, redisClient, db, logger)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler init")
		stop()
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	wg.Wait()

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

// buildProcessors selects real or stub providers per the config.
func buildProcessors(cfg *config.Config, db *database.DB, upstream *client.Client, logger *zerolog.Logger) *worker.Processors {
	const stubDelay = 500 * time.Millisecond

	var email worker.EmailSender = &worker.StubEmailSender{Delay: stubDelay, Logger: logger}
	if cfg.Email.Provider == "sendgrid" {
		email = worker.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.FromAddress, cfg.Email.FromName)
	}

	var pdf worker.PDFRenderer = &worker.StubPDFRenderer{Delay: stubDelay, Logger: logger}
	if cfg.Exports.PDFProvider == "gofpdf" {
		pdf = worker.NewAgreementRenderer(cfg.Exports.PDFOutputDir, cfg.Exports.CompanyName, cfg.Exports.CompanyFooterURL)
	}

	var notify worker.Notifier = &worker.StubNotifier{Delay: stubDelay, Logger: logger}
	if cfg.Notify.Provider == "telegram" {
		tg, err := worker.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			logger.Error().Err(err).Msg("telegram init failed, falling back to stub notifier")
		} else {
			notify = tg
		}
	}

	cleaner := worker.NewCleaner(
		db,
		[]string{cfg.Exports.Path, cfg.Exports.PDFOutputDir},
		cfg.Exports.RetentionDays,
		cfg.Queues.KeepCompleted,
		cfg.Queues.KeepFailed,
		logger,
	)

	return worker.NewProcessors(email, pdf, notify, &statusUpdater{upstream}, cleaner, logger)
}

// statusUpdater narrows the upstream client to the status transition the
// booking-processing queue needs.
type statusUpdater struct {
	client *client.Client
}

func (u *statusUpdater) UpdateBookingStatus(ctx context.Context, bookingID, status string) error {
	_, err := u.client.UpdateBookingStatus(ctx, bookingID, status)
	return err
}

// startScheduler enqueues the nightly housekeeping jobs on the cleanup queue.
func startScheduler(ctx context.Context, cfg *config.Config, redisClient *redis.Client, db *database.DB, logger *zerolog.Logger) (*cron.Cron, error) {
	producer := queue.NewProducer(redisClient, db, logger)

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Worker.CleanupSchedule, func() {
		if err := producer.Enqueue(ctx, models.QueueCleanup, service.JobPurgeJobHistory, nil); err != nil {
			logger.Error().Err(err).Msg("enqueue purge-job-history")
		}
		if err := producer.Enqueue(ctx, models.QueueCleanup, service.JobPurgeExports, service.CleanupJob{
			OlderThanDays: cfg.Exports.RetentionDays,
		}); err != nil {
			logger.Error().Err(err).Msg("enqueue purge-exports")
		}
	})
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	logger.Info().Str("schedule", cfg.Worker.CleanupSchedule).Msg("cleanup scheduler started")
	return scheduler, nil
}
