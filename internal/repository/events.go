package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"analytics-query-service/internal/model"
)

// EventWriter appends events to the events table. Only the seed command and
// integration tests write; the query path is read-only.
type EventWriter interface {
	// CreateBatch inserts events in a single ClickHouse batch.
	CreateBatch(ctx context.Context, events []model.Event) error
}

type eventWriter struct {
	conn clickhouse.Conn
}

// NewEventWriter creates an EventWriter backed by ClickHouse.
func NewEventWriter(conn clickhouse.Conn) EventWriter {
	return &eventWriter{conn: conn}
}

const insertEventsQuery = `INSERT INTO events (
	id, client_id, event_name, anonymous_id, session_id, time, path, title, referrer,
	utm_source, utm_medium, utm_campaign, browser_name, os_name, device_type, screen_resolution,
	country, region, city, time_on_page, is_bounce, load_time, ttfb, fcp, lcp, cls,
	error_message, error_type, error_stack, filename, lineno, properties
)`

func (w *eventWriter) CreateBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, insertEventsQuery)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, event := range events {
		properties, err := marshalProperties(event.Properties)
		if err != nil {
			_ = batch.Abort()
			return err
		}

		id, err := eventID(event.ID)
		if err != nil {
			_ = batch.Abort()
			return err
		}

		if err := batch.Append(
			id,
			event.ClientID,
			event.EventName,
			event.AnonymousID,
			event.SessionID,
			event.Time,
			event.Path,
			event.Title,
			event.Referrer,
			event.UTMSource,
			event.UTMMedium,
			event.UTMCampaign,
			event.BrowserName,
			event.OSName,
			event.DeviceType,
			event.ScreenResolution,
			event.Country,
			event.Region,
			event.City,
			event.TimeOnPage,
			boolToUInt8(event.IsBounce),
			event.LoadTime,
			event.TTFB,
			event.FCP,
			event.LCP,
			event.CLS,
			event.ErrorMessage,
			event.ErrorType,
			event.ErrorStack,
			event.Filename,
			event.Lineno,
			properties,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append event: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("batch execution error: %w", err)
	}
	return nil
}

func eventID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.New(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid event id %q: %w", id, err)
	}
	return parsed, nil
}

func marshalProperties(properties map[string]interface{}) (string, error) {
	if len(properties) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(properties)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(b), nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
