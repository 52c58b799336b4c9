package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("PORT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("SESSION_DURATION", "")

	cfg := Load()

	if cfg.DatabasePath != "inventaris.db" {
		t.Errorf("Expected default database path, got %s", cfg.DatabasePath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.IsDevelopment() {
		t.Error("Expected production environment by default")
	}
	if cfg.SessionDuration != 7*24*time.Hour {
		t.Errorf("Expected 7 day sessions, got %s", cfg.SessionDuration)
	}
}

func TestSessionDurationParsing(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"12h", 12 * time.Hour},
		{"3d", 72 * time.Hour},
		{"garbage", 7 * 24 * time.Hour},
		{"-5m", 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Setenv("SESSION_DURATION", tt.value)
		if got := Load().SessionDuration; got != tt.want {
			t.Errorf("SESSION_DURATION=%q: expected %s, got %s", tt.value, tt.want, got)
		}
	}
}

func TestDevelopmentMode(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Development")
	cfg := Load()
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode")
	}
	if cfg.SecureCookies() {
		t.Error("Expected insecure cookies in development")
	}
}

func TestBoolAndIntParsing(t *testing.T) {
	t.Setenv("SEED_DEMO_DATA", "off")
	t.Setenv("MINIO_USE_SSL", "yes")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	if cfg.SeedDemoData {
		t.Error("Expected seeding disabled")
	}
	if !cfg.MinioUseSSL {
		t.Error("Expected MinIO SSL enabled")
	}
	if cfg.RedisDB != 3 {
		t.Errorf("Expected redis db 3, got %d", cfg.RedisDB)
	}
}
