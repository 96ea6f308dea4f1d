package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"analytics-query-service/internal/config"
)

// Options builds clickhouse connection options from configuration.
func Options(cfg *config.Config) *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: cfg.ClickHouseAddr,
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		},
		DialTimeout:     cfg.DBDialTimeout,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	}
	if secs := int(cfg.QueryTimeout / time.Second); secs > 0 {
		opts.Settings = clickhouse.Settings{"max_execution_time": secs}
	}
	return opts
}

// NewConnection opens a native protocol connection and verifies it with a ping.
func NewConnection(ctx context.Context, cfg *config.Config, logger *zap.Logger) (clickhouse.Conn, error) {
	conn, err := clickhouse.Open(Options(cfg))
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DBDialTimeout)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	if cfg.AppMode == "benchmark" {
		logger.Info("clickhouse pool configured",
			zap.Strings("addr", cfg.ClickHouseAddr),
			zap.Int("max_open_conns", cfg.DBMaxOpenConns),
			zap.Int("max_idle_conns", cfg.DBMaxIdleConns),
			zap.Duration("conn_max_lifetime", cfg.DBConnMaxLifetime),
		)
	}
	return conn, nil
}

// NewSQLDB opens a database/sql handle over the clickhouse driver.
func NewSQLDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db := clickhouse.OpenDB(Options(cfg))
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, cfg.DBDialTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return db, nil
}
