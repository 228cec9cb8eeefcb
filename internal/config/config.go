package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	AdminToken         string
	CORSAllowedOrigins []string
	OSRMBaseURL        string
	OSRMTimeout        time.Duration
	TariffConfigTTL    time.Duration
	CityCacheTTL       time.Duration
	IdempotencyTTL     time.Duration
	WarmInterval       time.Duration
	LogFormat          string
	LogLevel           string
	MetricsBucketsCSV  string
	PprofUser          string
	PprofPass          string
}

// Load reads configuration from environment variables and an optional .env
// file. DATABASE_URL and REDIS_URL are optional: without them the service
// prices from the embedded grid and skips Redis caching.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		AdminToken:         strings.TrimSpace(k.String("ADMIN_TOKEN")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		OSRMBaseURL:        strings.TrimSpace(k.String("OSRM_BASE_URL")),
		OSRMTimeout:        parseDuration(k.String("OSRM_TIMEOUT"), "5s"),
		TariffConfigTTL:    parseDuration(k.String("TARIFF_CONFIG_TTL"), "5m"),
		CityCacheTTL:       parseDuration(k.String("CITY_CACHE_TTL"), "1h"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "2m"),
		WarmInterval:       parseDuration(k.String("CACHE_WARM_INTERVAL"), "15m"),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsBucketsCSV:  k.String("METRICS_BUCKETS_MS"),
		PprofUser:          k.String("PPROF_USER"),
		PprofPass:          k.String("PPROF_PASS"),
	}

	if cfg.AppEnv == "production" && cfg.AdminToken == "" {
		return nil, errors.New("ADMIN_TOKEN is required in production")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
