package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	HTTPPort     string
	AppMode      string
	FiberPrefork bool

	ClickHouseAddr     []string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string
	ClickHouseDriver   string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBDialTimeout     time.Duration

	QueryTimeout      time.Duration
	BatchConcurrency  int
	BatchMaxQueries   int
	QueryDefaultLimit int
	QueryMaxLimit     int
	QueryCacheTTL     time.Duration
	QueryCacheMaxCost int64
	FunnelWindow      time.Duration

	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	OTLPEndpoint  string
}

// Supported values of CLICKHOUSE_DRIVER.
const (
	DriverNative = "native"
	DriverSQL    = "sql"
)

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", ":8080"),
		AppMode:      strings.ToLower(getEnv("APP_MODE", "dev")),
		FiberPrefork: parseBoolEnv("FIBER_PREFORK", false),

		ClickHouseAddr:     parseListEnv("CLICKHOUSE_ADDR"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "analytics"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: os.Getenv("CLICKHOUSE_PASSWORD"),
		ClickHouseDriver:   strings.ToLower(getEnv("CLICKHOUSE_DRIVER", DriverNative)),

		DBMaxOpenConns:    parseIntEnv("DB_MAX_OPEN_CONNS", 50),
		DBMaxIdleConns:    parseIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBDialTimeout:     parseDurationEnv("DB_DIAL_TIMEOUT", 10*time.Second),

		QueryTimeout:      parseDurationEnv("QUERY_TIMEOUT", 30*time.Second),
		BatchConcurrency:  parseIntEnv("BATCH_CONCURRENCY", 8),
		BatchMaxQueries:   parseIntEnv("BATCH_MAX_QUERIES", 50),
		QueryDefaultLimit: parseIntEnv("QUERY_DEFAULT_LIMIT", 100),
		QueryMaxLimit:     parseIntEnv("QUERY_MAX_LIMIT", 1000),
		QueryCacheTTL:     parseDurationEnv("QUERY_CACHE_TTL", 0),
		QueryCacheMaxCost: int64(parseIntEnv("QUERY_CACHE_MAX_COST", 64<<20)),
		FunnelWindow:      parseDurationEnv("FUNNEL_WINDOW", time.Hour),

		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:       os.Getenv("LOG_FILE"),
		LogMaxSizeMB:  parseIntEnv("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: parseIntEnv("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: parseIntEnv("LOG_MAX_AGE_DAYS", 14),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	defaultFormat := "console"
	if cfg.AppMode == "prod" {
		defaultFormat = "json"
	}
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", defaultFormat))

	if len(cfg.ClickHouseAddr) == 0 {
		return nil, fmt.Errorf("CLICKHOUSE_ADDR is required")
	}
	if cfg.ClickHouseDriver != DriverNative && cfg.ClickHouseDriver != DriverSQL {
		return nil, fmt.Errorf("CLICKHOUSE_DRIVER must be %q or %q, got %q", DriverNative, DriverSQL, cfg.ClickHouseDriver)
	}
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 1
	}
	if cfg.QueryDefaultLimit < 1 {
		cfg.QueryDefaultLimit = 100
	}
	if cfg.QueryMaxLimit < cfg.QueryDefaultLimit {
		cfg.QueryMaxLimit = cfg.QueryDefaultLimit
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseBoolEnv(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseIntEnv(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// parseListEnv splits a comma separated value, dropping blanks.
func parseListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
