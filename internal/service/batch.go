package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"analytics-query-service/internal/builders"
	"analytics-query-service/internal/model"
	"analytics-query-service/internal/telemetry"
)

// BatchService runs many parameter requests with independent outcomes.
type BatchService interface {
	ExecuteBatch(ctx context.Context, websiteID string, dates model.DateRange, requests []model.ParameterQueryRequest) (model.BatchResponse, error)
}

type batchService struct {
	dispatcher Dispatcher
	registry   *builders.Registry
	tracer     trace.Tracer
	options
}

// NewBatchService constructs a BatchService. registry is used to expand
// parameter groups before dispatch.
func NewBatchService(dispatcher Dispatcher, registry *builders.Registry, opts ...Option) BatchService {
	return &batchService{
		dispatcher: dispatcher,
		registry:   registry,
		tracer:     telemetry.Tracer(),
		options:    buildOptions(opts),
	}
}

type outcome struct {
	rows []model.Row
	err  error
}

// ExecuteBatch fans every (request, parameter) pair out to the Dispatcher,
// at most concurrency at a time. A failing parameter marks its own request
// as failed and never affects the others. The only error returned is for a
// batch that is rejected as a whole.
func (s *batchService) ExecuteBatch(ctx context.Context, websiteID string, dates model.DateRange, requests []model.ParameterQueryRequest) (model.BatchResponse, error) {
	if websiteID == "" {
		return model.BatchResponse{}, &ValidationError{Message: "website_id is required"}
	}
	if len(requests) > s.maxQueries {
		return model.BatchResponse{}, &ValidationError{Message: fmt.Sprintf("batch exceeds %d queries", s.maxQueries)}
	}

	ctx, span := s.tracer.Start(ctx, "batch.execute", trace.WithAttributes(
		attribute.String("website_id", websiteID),
		attribute.Int("queries", len(requests)),
	))
	defer span.End()

	start := time.Now()
	s.metrics.BatchQueries.Observe(float64(len(requests)))

	parameters := make([][]string, len(requests))
	outcomes := make([][]outcome, len(requests))
	for i, req := range requests {
		parameters[i] = s.registry.Expand(req.Parameters)
		outcomes[i] = make([]outcome, len(parameters[i]))
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, req := range requests {
		limit, offset := s.limits.Clamp(req.Limit, req.Offset)
		for j, name := range parameters[i] {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					outcomes[i][j] = outcome{err: err}
					return nil
				}
				rows, err := s.dispatcher.Execute(ctx, name, websiteID, dates, req.Filters, limit, offset)
				outcomes[i][j] = outcome{rows: rows, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()

	resp := model.BatchResponse{
		Success: true,
		Batch:   true,
		Results: make([]model.BatchQueryResult, len(requests)),
	}
	for i, req := range requests {
		resp.Results[i] = assemble(req, parameters[i], outcomes[i], s.limits)
	}

	s.logger.Debug("batch executed",
		zap.String("website_id", websiteID),
		zap.Int("total_queries", resp.TotalQueries()),
		zap.Int("failed_queries", resp.FailedQueries()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func assemble(req model.ParameterQueryRequest, parameters []string, outcomes []outcome, limits Limits) model.BatchQueryResult {
	limit, offset := limits.Clamp(req.Limit, req.Offset)

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	result := model.BatchQueryResult{
		Success: true,
		QueryID: id,
		Data:    make(map[string][]model.Row, len(parameters)),
		Meta: model.BatchQueryMeta{
			Parameters:      parameters,
			TotalParameters: len(parameters),
			Page:            offset/limit + 1,
			Limit:           limit,
			FiltersApplied:  len(req.Filters),
		},
	}

	if len(parameters) == 0 {
		result.Success = false
		result.Errors = map[string]string{"parameters": "at least one parameter is required"}
		return result
	}

	for j, name := range parameters {
		o := outcomes[j]
		if o.err != nil {
			result.Success = false
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[name] = publicMessage(o.err)
			continue
		}
		rows := o.rows
		if rows == nil {
			rows = []model.Row{}
		}
		result.Data[name] = rows
	}
	return result
}

// publicMessage is the text a caller may see for err. Store details never
// leave the service.
func publicMessage(err error) string {
	var validationErr *ValidationError
	var notFoundErr *BuilderNotFoundError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &notFoundErr):
		return err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request cancelled"
	default:
		return ErrQueryExecution.Error()
	}
}
