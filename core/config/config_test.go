package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.AccessOpen() || !cfg.AccessClosed() {
		t.Fatal("expected closed access without allow-list")
	}
	cfg.Access.Open = true
	if !cfg.AccessOpen() || cfg.AccessClosed() {
		t.Fatal("expected open access with access.open")
	}
}

func TestNormalizeRejectsMissingToken(t *testing.T) {
	if err := Normalize(&Config{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook without url")
	}
}

func TestNormalizeRateLimitWindowDefault(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{WindowRequests: 10, ExcludeUpdates: []string{" Callback "}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.WindowSeconds != 60 {
		t.Fatalf("window seconds = %d, want 60", cfg.RateLimit.WindowSeconds)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclude = %q, want %q", cfg.RateLimit.ExcludeUpdates[0], UpdateCallback)
	}
}

func TestNormalizeAllowedUsersDedup(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t"},
		Access:   AccessConfig{AllowedUserIDs: []int64{7, 7, 9}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(cfg.Access.AllowedUserIDs) != 2 {
		t.Fatalf("allowed ids = %v, want two entries", cfg.Access.AllowedUserIDs)
	}
	if cfg.AccessOpen() || cfg.AccessClosed() {
		t.Fatal("expected restricted access")
	}

	cfg.Access.AllowedUserIDs = []int64{-1}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for negative user id")
	}
}

func TestLoadOverlaysEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "telegram:\n  token: from-file\n  run_mode: polling\nhttp:\n  listen: \":8080\"\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("ALLOWED_USER_IDS", "1,2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want alias resolved", cfg.Telegram.RunMode)
	}
	if cfg.HTTP.Listen != ":8080" {
		t.Fatalf("http listen = %q", cfg.HTTP.Listen)
	}
	if len(cfg.Access.AllowedUserIDs) != 2 {
		t.Fatalf("allowed ids = %v", cfg.Access.AllowedUserIDs)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-only")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-only" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}
