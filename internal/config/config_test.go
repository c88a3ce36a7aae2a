package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "soundify-service" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if got := cfg.App.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("App.Addr() = %q", got)
	}
	if cfg.Auth.Issuer != "soundify" || cfg.Auth.Audience != "soundify-clients" {
		t.Errorf("Auth defaults = %q / %q", cfg.Auth.Issuer, cfg.Auth.Audience)
	}
	if cfg.Auth.PBKDF2Iterations != 10000 {
		t.Errorf("Auth.PBKDF2Iterations = %d", cfg.Auth.PBKDF2Iterations)
	}
	if got := cfg.Auth.TokenTTL(); got != time.Hour {
		t.Errorf("Auth.TokenTTL() = %v", got)
	}
	if got := cfg.Auth.LoginAttemptWindow(); got != time.Minute {
		t.Errorf("Auth.LoginAttemptWindow() = %v", got)
	}
	if cfg.Media.Root != "media" {
		t.Errorf("Media.Root = %q", cfg.Media.Root)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_TOKEN_TTL_HOURS", "24")
	t.Setenv("AUTH_PBKDF2_ITERATIONS", "20000")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Port != "9090" {
		t.Errorf("App.Port = %q", cfg.App.Port)
	}
	if got := cfg.Auth.TokenTTL(); got != 24*time.Hour {
		t.Errorf("Auth.TokenTTL() = %v", got)
	}
	if cfg.Auth.PBKDF2Iterations != 20000 {
		t.Errorf("Auth.PBKDF2Iterations = %d", cfg.Auth.PBKDF2Iterations)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("Redis.DB = %d", cfg.Redis.DB)
	}
	if cfg.Postgres.RunMigrations {
		t.Error("Postgres.RunMigrations = true, want false")
	}
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}

func TestMalformedIntFallsBack(t *testing.T) {
	t.Setenv("AUTH_TOKEN_TTL_HOURS", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.TokenTTLHours != 1 {
		t.Errorf("Auth.TokenTTLHours = %d, want fallback 1", cfg.Auth.TokenTTLHours)
	}
}
