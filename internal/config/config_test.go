package config

import (
	"os"
	"path/filepath"
	"testing"

	"rentline/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "rentline"
  environment: "test"
upstream:
  base_url: "http://localhost:4000"
  api_key: "test_key"
database:
  path: "test.db"
redis:
  address: "localhost:6379"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Upstream.BaseURL != "http://localhost:4000" {
		t.Errorf("expected base_url http://localhost:4000, got %s", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.APIKey != "test_key" {
		t.Errorf("expected api_key test_key, got %s", cfg.Upstream.APIKey)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("RENTLINE_TEST_API_KEY", "from-env")

	yamlContent := `
upstream:
  base_url: "http://localhost:4000"
  api_key: "${RENTLINE_TEST_API_KEY}"
database:
  path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Upstream.APIKey != "from-env" {
		t.Errorf("expected api_key from-env, got %s", cfg.Upstream.APIKey)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Upstream: UpstreamConfig{BaseURL: "http://localhost:4000"},
				Database: DatabaseConfig{Path: "rentline.db"},
			},
			wantErr: false,
		},
		{
			name: "missing upstream",
			cfg: Config{
				Database: DatabaseConfig{Path: "rentline.db"},
			},
			wantErr: true,
		},
		{
			name: "missing database path",
			cfg: Config{
				Upstream: UpstreamConfig{BaseURL: "http://localhost:4000"},
			},
			wantErr: true,
		},
		{
			name: "sendgrid without key",
			cfg: Config{
				Upstream: UpstreamConfig{BaseURL: "http://localhost:4000"},
				Database: DatabaseConfig{Path: "rentline.db"},
				Email:    EmailConfig{Provider: "sendgrid"},
			},
			wantErr: true,
		},
		{
			name: "telegram without chat id",
			cfg: Config{
				Upstream: UpstreamConfig{BaseURL: "http://localhost:4000"},
				Database: DatabaseConfig{Path: "rentline.db"},
				Notify:   NotifyConfig{Provider: "telegram", TelegramToken: "token"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		Upstream: UpstreamConfig{BaseURL: "http://localhost:4000"},
		Database: DatabaseConfig{Path: "rentline.db"},
	}
	cfg.applyDefaults()

	if cfg.Queues.MaxAttempts != models.DefaultMaxAttempts {
		t.Errorf("expected %d max attempts, got %d", models.DefaultMaxAttempts, cfg.Queues.MaxAttempts)
	}
	if cfg.Queues.BackoffBaseMS != models.DefaultBackoffBaseMS {
		t.Errorf("expected %dms backoff base, got %d", models.DefaultBackoffBaseMS, cfg.Queues.BackoffBaseMS)
	}
	if cfg.Queues.KeepCompleted != models.KeepCompletedJobs || cfg.Queues.KeepFailed != models.KeepFailedJobs {
		t.Errorf("unexpected retention defaults: %d/%d", cfg.Queues.KeepCompleted, cfg.Queues.KeepFailed)
	}
	if cfg.Booking.MaxRentalDays != models.DefaultMaxRentalDays {
		t.Errorf("expected %d max rental days, got %d", models.DefaultMaxRentalDays, cfg.Booking.MaxRentalDays)
	}
	if cfg.Email.Provider != "stub" || cfg.Notify.Provider != "stub" {
		t.Errorf("expected stub providers by default")
	}
	if cfg.Upstream.TimeoutSeconds != 10 {
		t.Errorf("expected 10s upstream timeout, got %d", cfg.Upstream.TimeoutSeconds)
	}
}
