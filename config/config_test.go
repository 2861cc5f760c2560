package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Fatalf("unexpected token ttl: %v", cfg.TokenTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.BcryptCost)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:8000" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("expected redis to be disabled by default, got %q", cfg.RedisURL)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRES", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestParseRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	if _, err := Parse(); err == nil {
		t.Fatal("expected error without JWT_SECRET_KEY")
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"zero ttl":       {"JWT_ACCESS_TOKEN_EXPIRES", "0s"},
		"low cost":       {"BCRYPT_COST", "1"},
		"log format":     {"LOG_FORMAT", "xml"},
		"negative cache": {"TASKS_CACHE_TTL", "-1s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "secret")
			t.Setenv(kv[0], kv[1])
			_, err := Parse()
			if err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
			if !strings.Contains(err.Error(), kv[0]) {
				t.Fatalf("expected error to name %s, got %v", kv[0], err)
			}
		})
	}
}
