// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting.
type Config struct {
	HTTPAddr        string
	DBPath          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CORSOrigins     []string
	PageSize        int
	MaxPageSize     int
	LogLevel        string
}

// ErrMissingSecret is returned by Validate when JWT_SECRET is unset.
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// Load reads an optional .env file, then the environment.
// Variables already set in the environment win over .env.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...) // ok if missing

	cfg := Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DBPath:      getenv("DB_PATH", "./data/hostel.db"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "*")),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PageSize, err = intEnv("PAGE_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.MaxPageSize, err = intEnv("MAX_PAGE_SIZE", 100); err != nil {
		return Config{}, err
	}
	if cfg.PageSize < 1 || cfg.MaxPageSize < cfg.PageSize {
		return Config{}, fmt.Errorf("invalid page sizes: PAGE_SIZE=%d MAX_PAGE_SIZE=%d", cfg.PageSize, cfg.MaxPageSize)
	}
	return cfg, nil
}

// Validate checks settings needed to serve requests.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return d, nil
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
