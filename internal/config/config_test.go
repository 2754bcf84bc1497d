package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParse_Defaults(t *testing.T) {
	cfg := Parse(lookup(map[string]string{"JWT_SECRET": "s3cret"}))

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.ListingCacheTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.TrashRetention)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "pretty", cfg.LogFormat)
}

func TestParse_Overrides(t *testing.T) {
	cfg := Parse(lookup(map[string]string{
		"JWT_SECRET":        "s3cret",
		"DB_DRIVER":         "POSTGRES",
		"DATABASE_URL":      "postgres://localhost/backoffice",
		"KAFKA_BROKERS":     "k1:9092, k2:9092,",
		"REDIS_DB":          "3",
		"TRASH_RETENTION":   "72h",
		"RATE_LIMIT_RPM":    "not-a-number",
		"LISTING_CACHE_TTL": "5s",
		"LOG_FORMAT":        "JSON",
	}))

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 72*time.Hour, cfg.TrashRetention)
	assert.Equal(t, 100, cfg.RateLimitRPM)
	assert.Equal(t, 5*time.Second, cfg.ListingCacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	base := map[string]string{"JWT_SECRET": "s3cret"}

	cases := map[string]map[string]string{
		"missing secret":      {"JWT_SECRET": ""},
		"unknown driver":      {"DB_DRIVER": "mysql"},
		"bad log level":       {"LOG_LEVEL": "verbose"},
		"bad log format":      {"LOG_FORMAT": "xml"},
		"half bootstrap":      {"BOOTSTRAP_ADMIN_EMAIL": "owner@example.com"},
		"min above max conns": {"DB_MAX_CONNS": "2", "DB_MIN_CONNS": "5"},
		"negative retention":  {"TRASH_RETENTION": "-1h"},
	}

	for name, override := range cases {
		t.Run(name, func(t *testing.T) {
			values := map[string]string{}
			for k, v := range base {
				values[k] = v
			}
			for k, v := range override {
				values[k] = v
			}
			assert.Error(t, Parse(lookup(values)).Validate())
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
