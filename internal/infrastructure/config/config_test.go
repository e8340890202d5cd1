package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": testSecret,
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected default port 9090, got %q", cfg.Port)
	}
	if cfg.Store != StoreMongo {
		t.Fatalf("expected mongo store, got %q", cfg.Store)
	}
	if cfg.Auth.JWTTTL != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", cfg.Auth.JWTTTL)
	}
	if cfg.Auth.LoginMaxAttempts != 5 || cfg.Auth.LoginLockoutWindow != 15*time.Minute {
		t.Fatalf("unexpected limiter defaults: %+v", cfg.Auth)
	}
	if cfg.DefaultAdmin.Username != "admin" || cfg.DefaultAdmin.Password != "" {
		t.Fatalf("unexpected default admin: %+v", cfg.DefaultAdmin)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("redis should be disabled by default, got %q", cfg.Redis.Addr)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": testSecret,
		"JWT_TTL":    "1h",
		"STORE":      "memory",
		"REDIS_ADDR": "localhost:6379",
		"PORT":       "8081",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Auth.JWTTTL != time.Hour || cfg.Store != StoreMemory || cfg.Port != "8081" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis addr not applied: %q", cfg.Redis.Addr)
	}
}

func TestLoadWith_MissingSecret(t *testing.T) {
	if _, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error for missing JWT_SECRET")
	}
}

func TestLoadWith_ShortSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "short",
	}))
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoadWith_UnknownStore(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": testSecret,
		"STORE":      "postgres",
	}))
	if err == nil || !strings.Contains(err.Error(), "STORE") {
		t.Fatalf("expected STORE error, got %v", err)
	}
}

func TestLoadWith_ProductionRejectsMemoryStore(t *testing.T) {
	env := map[string]string{
		"JWT_SECRET": testSecret,
		"ENV":        "production",
		"STORE":      StoreMemory,
	}
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err == nil || !strings.Contains(err.Error(), "production") {
		t.Fatalf("expected production STORE error, got %v", err)
	}

	env["STORE"] = StoreMongo
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatalf("ENV=production should report IsProduction")
	}
}
