package db

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events
(
	id                UUID,
	client_id         String,
	event_name        LowCardinality(String),
	anonymous_id      String,
	session_id        String,
	time              DateTime64(3, 'UTC'),
	path              String,
	title             String,
	referrer          String,
	utm_source        String,
	utm_medium        String,
	utm_campaign      String,
	browser_name      LowCardinality(String),
	os_name           LowCardinality(String),
	device_type       LowCardinality(String),
	screen_resolution String,
	country           LowCardinality(String),
	region            String,
	city              String,
	time_on_page      Float64,
	is_bounce         UInt8,
	load_time         Float64,
	ttfb              Float64,
	fcp               Float64,
	lcp               Float64,
	cls               Float64,
	error_message     String,
	error_type        String,
	error_stack       String,
	filename          String,
	lineno            Int32,
	properties        String DEFAULT '{}',
	ingested_at       DateTime DEFAULT now()
)
ENGINE = MergeTree
PARTITION BY toYYYYMM(time)
ORDER BY (client_id, event_name, time, session_id)
SETTINGS index_granularity = 8192
`

// RunMigrations ensures required tables exist. This keeps the service
// self-contained without an external migration step.
func RunMigrations(ctx context.Context, conn clickhouse.Conn) error {
	if err := conn.Exec(ctx, createEventsTable); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
