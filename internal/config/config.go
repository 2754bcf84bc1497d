package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	DBDriver    string
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ListingCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	TrashRetention       time.Duration
	TrashSweepInterval   time.Duration
	TokenCleanupInterval time.Duration

	LogLevel  string
	LogFormat string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// Keys lists every environment variable Parse reads.
var Keys = []string{
	"SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "REQUEST_TIMEOUT",
	"DB_DRIVER", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SECRET", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL",
	"CORS_ORIGINS", "RATE_LIMIT_RPM", "AUTH_RATE_LIMIT_RPM",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "LISTING_CACHE_TTL",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"TRASH_RETENTION", "TRASH_SWEEP_INTERVAL", "TOKEN_CLEANUP_INTERVAL",
	"LOG_LEVEL", "LOG_FORMAT",
	"BOOTSTRAP_ADMIN_EMAIL", "BOOTSTRAP_ADMIN_PASSWORD",
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Parse(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse builds a Config from a key lookup, applying defaults for empty or
// malformed values. It does not validate.
func Parse(lookup func(key string) string) *Config {
	env := source(lookup)

	return &Config{
		ServerPort:         env.str("SERVER_PORT", "8080"),
		ServerReadTimeout:  env.duration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: env.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  env.duration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     env.duration("REQUEST_TIMEOUT", 30*time.Second),

		DBDriver:    strings.ToLower(env.str("DB_DRIVER", DriverSQLite)),
		DatabaseURL: env.str("DATABASE_URL", "./state/backoffice.db"),
		DBMaxConns:  int32(env.integer("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(env.integer("DB_MIN_CONNS", 2)),

		JWTSecret:     env.str("JWT_SECRET", ""),
		JWTAccessTTL:  env.duration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL: env.duration("JWT_REFRESH_TTL", 168*time.Hour),

		CORSOrigins:      splitCSV(env.str("CORS_ORIGINS", "*")),
		RateLimitRPM:     env.integer("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM: env.integer("AUTH_RATE_LIMIT_RPM", 10),

		RedisAddr:       env.str("REDIS_ADDR", ""),
		RedisPassword:   env.str("REDIS_PASSWORD", ""),
		RedisDB:         env.integer("REDIS_DB", 0),
		ListingCacheTTL: env.duration("LISTING_CACHE_TTL", 30*time.Second),

		KafkaBrokers: splitCSV(env.str("KAFKA_BROKERS", "")),
		KafkaTopic:   env.str("KAFKA_TOPIC", "backoffice.trash"),

		TrashRetention:       env.duration("TRASH_RETENTION", 30*24*time.Hour),
		TrashSweepInterval:   env.duration("TRASH_SWEEP_INTERVAL", time.Hour),
		TokenCleanupInterval: env.duration("TOKEN_CLEANUP_INTERVAL", time.Hour),

		LogLevel:  strings.ToLower(env.str("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(env.str("LOG_FORMAT", "pretty")),

		BootstrapAdminEmail:    env.str("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: env.str("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d)", c.DBMaxConns)
	}

	if c.ListingCacheTTL <= 0 {
		return fmt.Errorf("LISTING_CACHE_TTL must be positive")
	}

	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaTopic) == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	if c.TrashRetention < 0 || c.TrashSweepInterval < 0 {
		return fmt.Errorf("TRASH_RETENTION and TRASH_SWEEP_INTERVAL cannot be negative")
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be \"pretty\" or \"json\", got %q", c.LogFormat)
	}

	if (c.BootstrapAdminEmail == "") != (c.BootstrapAdminPassword == "") {
		return fmt.Errorf("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}

	return nil
}

func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", raw)
}

type source func(key string) string

func (s source) str(key string, fallback string) string {
	v := strings.TrimSpace(s(key))
	if v == "" {
		return fallback
	}

	return v
}

func (s source) integer(key string, fallback int) int {
	raw := strings.TrimSpace(s(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func (s source) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(s(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
