package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env       string
	Port      string
	RedisAddr string
	RedisPass string
	RedisDB   int
	JWTSecret string

	// Abandoned sessions older than SessionTimeout are swept into the lose
	// path every SweepInterval.
	SessionTimeout time.Duration
	SweepInterval  time.Duration

	// Demo credit granted to a wallet on first login, in smallest units.
	StarterBalance uint64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:            envDefault("APP_ENV", "development"),
		Port:           envDefault("PORT", "8080"),
		RedisAddr:      envDefault("REDIS_ADDR", "localhost:6379"),
		RedisPass:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envIntDefault("REDIS_DB", 0),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionTimeout: envDurationDefault("SESSION_TIMEOUT", time.Hour),
		SweepInterval:  envDurationDefault("SWEEP_INTERVAL", 5*time.Minute),
		StarterBalance: envUintDefault("STARTER_BALANCE", 1_000_000_000),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}

	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envUintDefault(key string, fallback uint64) uint64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
