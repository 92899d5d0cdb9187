package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort               = "8080"
	defaultDatabaseURL        = "spacerental.db"
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultJWTTTL             = "24h"
	defaultStatusTickInterval = "60s"
	defaultAllowedOrigins     = "*"
	defaultRedisDB            = "0"
	defaultRateLimitEnabled   = "true"
	defaultRateLimitCapacity  = "120"
	defaultRateLimitRefill    = "500ms"
	defaultRateLimitTTL       = "10m"
	defaultBookingEventsQueue = "booking.events"
)

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillInterval time.Duration
	TTL            time.Duration
}

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	// BookingsFile keeps bookings in a JSON file instead of the bookings table.
	// Rooms are always read from DATABASE_URL.
	BookingsFile string
	LogLevel     string

	JWTSecret string
	JWTTTL    time.Duration

	StatusTickInterval time.Duration
	AllowedOrigins     []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RateLimit     RateLimitConfig

	AMQPURL            string
	BookingEventsQueue string
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.BookingsFile = strings.TrimSpace(os.Getenv("BOOKINGS_FILE"))
	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", defaultAllowedOrigins))

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))
	cfg.BookingEventsQueue = strings.TrimSpace(getEnv("BOOKING_EVENTS_QUEUE", defaultBookingEventsQueue))

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	cfg.StatusTickInterval, err = parseDurationEnv("STATUS_TICK_INTERVAL", defaultStatusTickInterval)
	if err != nil {
		return nil, err
	}

	cfg.RedisDB, err = parseIntEnv("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, err
	}

	cfg.RateLimit.Enabled = parseBoolEnv("RATE_LIMIT_ENABLED", defaultRateLimitEnabled)
	cfg.RateLimit.Capacity, err = parseIntEnv("RATE_LIMIT_CAPACITY", defaultRateLimitCapacity)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit.RefillInterval, err = parseDurationEnv("RATE_LIMIT_REFILL_INTERVAL", defaultRateLimitRefill)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit.TTL, err = parseDurationEnv("RATE_LIMIT_TTL", defaultRateLimitTTL)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.StatusTickInterval <= 0 {
		return fmt.Errorf("STATUS_TICK_INTERVAL must be > 0")
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Capacity <= 0 {
			return fmt.Errorf("RATE_LIMIT_CAPACITY must be > 0")
		}
		if cfg.RateLimit.RefillInterval <= 0 {
			return fmt.Errorf("RATE_LIMIT_REFILL_INTERVAL must be > 0")
		}
	}
	if cfg.BookingEventsQueue == "" {
		return fmt.Errorf("BOOKING_EVENTS_QUEUE must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
