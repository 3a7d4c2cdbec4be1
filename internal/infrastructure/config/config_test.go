package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no .env file is picked up.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DataFile != "data.json" {
		t.Errorf("data file = %q, want data.json", cfg.Storage.DataFile)
	}
	if cfg.Storage.AtomicWrite {
		t.Error("atomic write should default to false")
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Security.RateLimitWindow != time.Minute {
		t.Errorf("rate limit window = %v, want 1m", cfg.Security.RateLimitWindow)
	}
	if !cfg.App.IsDevelopment() {
		t.Errorf("environment = %q, want development", cfg.App.Environment)
	}
	if cfg.JWT.ExpiresIn != 24*time.Hour {
		t.Errorf("jwt expiry = %v, want 24h", cfg.JWT.ExpiresIn)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for default JWT secret in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JWT.Secret != "a-real-secret" {
		t.Errorf("jwt secret = %q", cfg.JWT.Secret)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATA_FILE", "/tmp/reviews.json")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STORAGE_ATOMIC_WRITE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DataFile != "/tmp/reviews.json" {
		t.Errorf("data file = %q", cfg.Storage.DataFile)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if !cfg.Storage.AtomicWrite {
		t.Error("atomic write should be enabled from env")
	}
	if got := cfg.Server.GetAddr(); got != "0.0.0.0:9000" {
		t.Errorf("addr = %q", got)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"empty data file", func(c *Config) { c.Storage.DataFile = "" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero upload size", func(c *Config) { c.Storage.MaxUploadBytes = 0 }, true},
		{"zero rate limit", func(c *Config) { c.Security.RateLimitRequests = 0 }, true},
		{"empty jwt secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"zero jwt expiry", func(c *Config) { c.JWT.ExpiresIn = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:   ServerConfig{Port: 5000},
				Storage:  StorageConfig{DataFile: "data.json", MaxUploadBytes: 1024},
				JWT:      JWTConfig{Secret: "secret", ExpiresIn: time.Hour},
				Security: SecurityConfig{RateLimitRequests: 10},
			}
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
