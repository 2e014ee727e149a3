package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the api and worker binaries read from the environment.
type Config struct {
	DatabaseURL   string
	JWTSecret     string
	SessionSecret string

	GuestCartTable   string
	GuestCartTTL     time.Duration
	IdempotencyTable string
	IdempotencyTTL   time.Duration
	OrderEventsQueue string
	MetricsNamespace string

	CORSOrigins []string
	Port        string
	RunLocal    bool
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, using process environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		DatabaseURL:      getenv("DATABASE_URL"),
		JWTSecret:        getenv("JWT_SECRET"),
		SessionSecret:    getenv("SESSION_SECRET"),
		GuestCartTable:   getenv("GUEST_CART_TABLE"),
		IdempotencyTable: getenv("IDEMPOTENCY_TABLE"),
		OrderEventsQueue: getenv("ORDER_EVENTS_QUEUE_URL"),
		MetricsNamespace: getenv("METRICS_NAMESPACE"),
		Port:             getenv("PORT"),
		RunLocal:         getenv("RUN_LOCAL") == "true",
		GuestCartTTL:     30 * 24 * time.Hour,
		IdempotencyTTL:   48 * time.Hour,
	}

	if cfg.DatabaseURL == "" {
		host := getenv("DB_HOST")
		if host == "" {
			return cfg, fmt.Errorf("DATABASE_URL or DB_HOST must be set")
		}
		port := getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		cfg.DatabaseURL = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			host, getenv("DB_USER"), getenv("DB_PASSWORD"), getenv("DB_NAME"), port)
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.JWTSecret
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.MetricsNamespace == "" {
		cfg.MetricsNamespace = "Storefront"
	}

	var err error
	if cfg.GuestCartTTL, err = durationOr(getenv("GUEST_CART_TTL"), cfg.GuestCartTTL); err != nil {
		return cfg, fmt.Errorf("GUEST_CART_TTL: %w", err)
	}
	if cfg.IdempotencyTTL, err = durationOr(getenv("IDEMPOTENCY_TTL"), cfg.IdempotencyTTL); err != nil {
		return cfg, fmt.Errorf("IDEMPOTENCY_TTL: %w", err)
	}

	if origins := getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg, nil
}

// RequireSecrets fails unless the token signing secret is set. Only the api needs it.
func (c Config) RequireSecrets() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	return nil
}

func durationOr(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}
