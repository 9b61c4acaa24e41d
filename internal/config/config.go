package config

import (
	"errors"
	"fmt"
	"os"

	"rentline/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`
	Queues     QueueConfig      `yaml:"queues"`
	Booking    BookingConfig    `yaml:"booking"`
	Worker     WorkerConfig     `yaml:"worker"`
	Email      EmailConfig      `yaml:"email"`
	Notify     NotifyConfig     `yaml:"notify"`
	Exports    ExportConfig     `yaml:"exports"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// UpstreamConfig points at the booking backend this service fronts.
type UpstreamConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// QueueConfig carries the default retry/backoff/retention policy shared by
// every named queue.
type QueueConfig struct {
	MaxAttempts   int `yaml:"max_attempts"`
	BackoffBaseMS int `yaml:"backoff_base_ms"`
	BackoffMaxMS  int `yaml:"backoff_max_ms"`
	KeepCompleted int `yaml:"keep_completed"`
	KeepFailed    int `yaml:"keep_failed"`
}

type BookingConfig struct {
	MaxRentalDays int `yaml:"max_rental_days"`
}

type WorkerConfig struct {
	PollIntervalMS  int    `yaml:"poll_interval_ms"`
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

type EmailConfig struct {
	Provider       string `yaml:"provider"` // stub or sendgrid
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
}

type NotifyConfig struct {
	Provider       string `yaml:"provider"` // stub or telegram
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

type ExportConfig struct {
	Path             string `yaml:"path"`
	RetentionDays    int    `yaml:"retention_days"`
	PDFProvider      string `yaml:"pdf_provider"` // stub or gofpdf
	PDFOutputDir     string `yaml:"pdf_output_dir"`
	CompanyName      string `yaml:"company_name"`
	CompanyFooterURL string `yaml:"company_footer_url"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment may come from the orchestrator.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream base_url is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Email.Provider == "sendgrid" && c.Email.SendGridAPIKey == "" {
		return errors.New("email.sendgrid_api_key is required when email.provider is sendgrid")
	}

	if c.Notify.Provider == "telegram" && (c.Notify.TelegramToken == "" || c.Notify.TelegramChatID == 0) {
		return errors.New("notify.telegram_token and notify.telegram_chat_id are required when notify.provider is telegram")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit.Requests == 0 {
		c.Server.RateLimit.Requests = models.RateLimitRequests
	}
	if c.Server.RateLimit.WindowSeconds == 0 {
		c.Server.RateLimit.WindowSeconds = models.RateLimitWindow
	}

	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 10
	}
	if c.Upstream.CacheTTLSeconds == 0 {
		c.Upstream.CacheTTLSeconds = models.DefaultCacheTTL
	}

	if c.Queues.MaxAttempts == 0 {
		c.Queues.MaxAttempts = models.DefaultMaxAttempts
	}
	if c.Queues.BackoffBaseMS == 0 {
		c.Queues.BackoffBaseMS = models.DefaultBackoffBaseMS
	}
	if c.Queues.BackoffMaxMS == 0 {
		c.Queues.BackoffMaxMS = 60_000
	}
	if c.Queues.KeepCompleted == 0 {
		c.Queues.KeepCompleted = models.KeepCompletedJobs
	}
	if c.Queues.KeepFailed == 0 {
		c.Queues.KeepFailed = models.KeepFailedJobs
	}

	if c.Booking.MaxRentalDays == 0 {
		c.Booking.MaxRentalDays = models.DefaultMaxRentalDays
	}

	if c.Worker.PollIntervalMS == 0 {
		c.Worker.PollIntervalMS = 2000
	}
	if c.Worker.CleanupSchedule == "" {
		c.Worker.CleanupSchedule = "0 3 * * *"
	}

	if c.Email.Provider == "" {
		c.Email.Provider = "stub"
	}
	if c.Notify.Provider == "" {
		c.Notify.Provider = "stub"
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Exports.RetentionDays == 0 {
		c.Exports.RetentionDays = 30
	}
	if c.Exports.PDFProvider == "" {
		c.Exports.PDFProvider = "stub"
	}
	if c.Exports.PDFOutputDir == "" {
		c.Exports.PDFOutputDir = c.Exports.Path
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}
