package config_test

import (
	"testing"
	"time"

	"github.com/ivankudzin/tagbot/internal/config"
)

func TestDefaultDeliverySettings(t *testing.T) {
	cfg := config.Default()

	if cfg.Delivery.MaxConcurrent != 3 {
		t.Fatalf("max concurrent got=%d want=3", cfg.Delivery.MaxConcurrent)
	}
	if cfg.Delivery.Timeout != 15*time.Second {
		t.Fatalf("timeout got=%v want=15s", cfg.Delivery.Timeout)
	}
	if cfg.Delivery.FallbackEmoji != "❤️" {
		t.Fatalf("fallback emoji got=%q want=❤️", cfg.Delivery.FallbackEmoji)
	}
	if cfg.Delivery.DrainInterval != 5*time.Second {
		t.Fatalf("drain interval got=%v want=5s", cfg.Delivery.DrainInterval)
	}
	if cfg.Delivery.DrainBatch != 5 {
		t.Fatalf("drain batch got=%d want=5", cfg.Delivery.DrainBatch)
	}
	if cfg.Delivery.MaxAttempts != 10 {
		t.Fatalf("max attempts got=%d want=10", cfg.Delivery.MaxAttempts)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("ADMIN_TOKEN", "supersecret")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_URL", "https://example.com/hook")
	t.Setenv("WEBHOOK_SECRET", "hooksecret")
	t.Setenv("DELIVERY_MAX_CONCURRENT", "7")
	t.Setenv("DELIVERY_TIMEOUT", "20s")
	t.Setenv("DELIVERY_FALLBACK_EMOJI", "👍")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Addr != ":9999" {
		t.Fatalf("http addr got=%q want=:9999", cfg.HTTP.Addr)
	}
	if cfg.Admin.Token != "supersecret" {
		t.Fatalf("admin token got=%q", cfg.Admin.Token)
	}
	if cfg.Bot.Token != "123:abc" {
		t.Fatalf("bot token got=%q", cfg.Bot.Token)
	}
	if cfg.Webhook.URL != "https://example.com/hook" || cfg.Webhook.Secret != "hooksecret" {
		t.Fatalf("webhook config got=%+v", cfg.Webhook)
	}
	if cfg.Delivery.MaxConcurrent != 7 {
		t.Fatalf("max concurrent got=%d want=7", cfg.Delivery.MaxConcurrent)
	}
	if cfg.Delivery.Timeout != 20*time.Second {
		t.Fatalf("timeout got=%v want=20s", cfg.Delivery.Timeout)
	}
	if cfg.Delivery.FallbackEmoji != "👍" {
		t.Fatalf("fallback emoji got=%q want=👍", cfg.Delivery.FallbackEmoji)
	}
}

func TestLoadRejectsMalformedOverrides(t *testing.T) {
	t.Setenv("DELIVERY_TIMEOUT", "soon")

	if _, err := config.Load(""); err == nil {
		t.Fatal("expected an error for a malformed duration")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("does/not/exist.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("http addr got=%q want default", cfg.HTTP.Addr)
	}
}
