package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"analytics-query-service/internal/builders"
	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
	"analytics-query-service/internal/repository"
	"analytics-query-service/internal/telemetry"
)

// Dispatcher resolves parameter names to builders and runs the compiled
// queries against the store.
type Dispatcher interface {
	// Execute builds the named parameter query and runs it.
	Execute(ctx context.Context, name, websiteID string, dates model.DateRange, filters []model.Filter, limit, offset int) ([]model.Row, error)

	// Run executes an already compiled query. name is used for logs,
	// metrics and the cache key.
	Run(ctx context.Context, name, websiteID string, q query.Query) ([]model.Row, error)
}

type dispatcher struct {
	registry *builders.Registry
	store    repository.QueryStore
	tracer   trace.Tracer
	options
}

// NewDispatcher constructs a Dispatcher over registry and store.
func NewDispatcher(registry *builders.Registry, store repository.QueryStore, opts ...Option) Dispatcher {
	return &dispatcher{
		registry: registry,
		store:    store,
		tracer:   telemetry.Tracer(),
		options:  buildOptions(opts),
	}
}

func (d *dispatcher) Execute(ctx context.Context, name, websiteID string, dates model.DateRange, filters []model.Filter, limit, offset int) ([]model.Row, error) {
	ctx, span := d.tracer.Start(ctx, "dispatcher.execute", trace.WithAttributes(
		attribute.String("parameter", name),
		attribute.String("website_id", websiteID),
		attribute.Int("filters", len(filters)),
	))
	defer span.End()

	build, ok := d.registry.Lookup(name)
	if !ok {
		err := &BuilderNotFoundError{Name: name}
		d.logger.Warn("unknown parameter", zap.String("query", name), zap.String("website_id", websiteID))
		d.metrics.Queries.WithLabelValues(name, telemetry.StatusNotFound).Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	limit, offset = d.limits.Clamp(limit, offset)
	q, err := build(websiteID, dates, filters, limit, offset)
	if err != nil {
		err = asValidation(err)
		d.logger.Warn("invalid parameter query", zap.String("query", name), zap.String("website_id", websiteID), zap.Error(err))
		d.metrics.Queries.WithLabelValues(name, telemetry.StatusInvalid).Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return d.Run(ctx, name, websiteID, q)
}

func (d *dispatcher) Run(ctx context.Context, name, websiteID string, q query.Query) ([]model.Row, error) {
	var key string
	if d.cache != nil {
		key = cacheKey(name, q)
		if cached, ok := d.cache.Get(key); ok {
			d.metrics.Queries.WithLabelValues(name, telemetry.StatusCached).Inc()
			return cached.([]model.Row), nil
		}
	}

	start := time.Now()
	rows, err := d.store.Query(ctx, q)
	d.metrics.QueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		d.logger.Error("query execution failed",
			zap.String("query", name),
			zap.String("website_id", websiteID),
			zap.Error(err),
		)
		d.metrics.Queries.WithLabelValues(name, telemetry.StatusError).Inc()
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrQueryExecution.Error())
		return nil, ErrQueryExecution
	}

	d.metrics.Queries.WithLabelValues(name, telemetry.StatusOK).Inc()
	if d.cache != nil {
		d.cache.SetWithTTL(key, rows, rowsCost(rows), d.cacheTTL)
	}
	return rows, nil
}

// cacheKey identifies a compiled query. The SQL carries limit and offset and
// the params carry tenant, date range and filter values.
func cacheKey(name string, q query.Query) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('|')
	b.WriteString(q.SQL)
	for _, p := range q.Params.Names() {
		fmt.Fprintf(&b, "|%s=%v", p, q.Params[p])
	}
	return b.String()
}

// rowsCost roughly estimates the memory held by rows in bytes.
func rowsCost(rows []model.Row) int64 {
	cost := int64(64)
	for _, row := range rows {
		cost += int64(len(row)) * 48
		for _, v := range row {
			if s, ok := v.(string); ok {
				cost += int64(len(s))
			}
		}
	}
	return cost
}
