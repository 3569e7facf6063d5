package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_PATH", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "CORS_ORIGINS", "PAGE_SIZE", "MAX_PAGE_SIZE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBPath != "./data/hostel.db" {
		t.Errorf("unexpected addresses: %+v", cfg)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.RefreshTokenTTL != 24*time.Hour {
		t.Errorf("unexpected token lifetimes: %v %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.PageSize != 10 || cfg.MaxPageSize != 100 {
		t.Errorf("unexpected page sizes: %d %d", cfg.PageSize, cfg.MaxPageSize)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("unexpected origins: %v", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PAGE_SIZE=25\nJWT_SECRET=from-file\nCORS_ORIGINS=ignored\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// godotenv does not override variables that are already set, even if
	// empty, so clear the ones the file should provide.
	os.Unsetenv("PAGE_SIZE")
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PageSize != 25 || cfg.JWTSecret != "from-file" {
		t.Errorf("expected values from .env, got %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("environment must win over .env, got %v", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"ACCESS_TOKEN_TTL": "soon",
		"PAGE_SIZE":        "ten",
		"MAX_PAGE_SIZE":    "1",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("expected error for %s=%q", k, v)
			}
		})
	}
}
