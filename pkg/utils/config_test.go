package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.App.Port)
	}
	if cfg.Payment.MinorUnitFactor != 100 {
		t.Errorf("minor unit factor = %d, want 100", cfg.Payment.MinorUnitFactor)
	}
	if cfg.Broker.Queue != "booking.events" {
		t.Errorf("broker queue = %q", cfg.Broker.Queue)
	}
	if cfg.RateLimit.RefillInterval != 2*time.Second {
		t.Errorf("refill interval = %s", cfg.RateLimit.RefillInterval)
	}
}

func TestRateLimitForWebhook(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}

	webhook := cfg.RateLimit.ForWebhook()
	if webhook.Prefix == cfg.RateLimit.Prefix {
		t.Errorf("webhook shares bucket prefix %q with customer routes", webhook.Prefix)
	}
	if webhook.Capacity <= cfg.RateLimit.Capacity || webhook.RefillTokens <= cfg.RateLimit.RefillTokens {
		t.Errorf("webhook bucket %d/%d not larger than customer bucket %d/%d",
			webhook.Capacity, webhook.RefillTokens, cfg.RateLimit.Capacity, cfg.RateLimit.RefillTokens)
	}
	if webhook.RefillInterval != cfg.RateLimit.RefillInterval || webhook.Enabled != cfg.RateLimit.Enabled {
		t.Errorf("webhook bucket = %+v", webhook)
	}

	t.Setenv("WEBHOOK_RATE_LIMIT_CAPACITY", "1")
	cfg, err = LoadConfigFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}
	if got := cfg.RateLimit.ForWebhook().Capacity; got != cfg.RateLimit.Capacity {
		t.Errorf("webhook capacity = %d, want raised to customer capacity %d", got, cfg.RateLimit.Capacity)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	content := "PORT=9090\nDB_HOST=db.internal\nSTRIPE_WEBHOOK_SECRET=whsec_test\nPAYMENT_MINOR_UNIT_FACTOR=0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}

	if cfg.App.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.App.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("db host = %q", cfg.Database.Host)
	}
	if cfg.Payment.WebhookSecret != "whsec_test" {
		t.Errorf("webhook secret = %q", cfg.Payment.WebhookSecret)
	}
	if cfg.Payment.MinorUnitFactor != 1 {
		t.Errorf("minor unit factor = %d, want clamped to 1", cfg.Payment.MinorUnitFactor)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	if err := os.WriteFile(path, []byte("PORT=9090\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("PORT", "7070")

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}
	if cfg.App.Port != "7070" {
		t.Errorf("port = %q, want env value 7070", cfg.App.Port)
	}
}
