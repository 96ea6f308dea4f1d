package mockservice

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
	"analytics-query-service/internal/service"
)

// Dispatcher is a testify mock of service.Dispatcher.
type Dispatcher struct {
	mock.Mock
}

var _ service.Dispatcher = &Dispatcher{}

func (m *Dispatcher) Execute(ctx context.Context, name, websiteID string, dates model.DateRange, filters []model.Filter, limit, offset int) ([]model.Row, error) {
	args := m.Called(ctx, name, websiteID, dates, filters, limit, offset)
	rows, _ := args.Get(0).([]model.Row)
	return rows, args.Error(1)
}

func (m *Dispatcher) Run(ctx context.Context, name, websiteID string, q query.Query) ([]model.Row, error) {
	args := m.Called(ctx, name, websiteID, q)
	rows, _ := args.Get(0).([]model.Row)
	return rows, args.Error(1)
}

// BatchService is a testify mock of service.BatchService.
type BatchService struct {
	mock.Mock
}

var _ service.BatchService = &BatchService{}

func (m *BatchService) ExecuteBatch(ctx context.Context, websiteID string, dates model.DateRange, requests []model.ParameterQueryRequest) (model.BatchResponse, error) {
	args := m.Called(ctx, websiteID, dates, requests)
	return args.Get(0).(model.BatchResponse), args.Error(1)
}

// FunnelService is a testify mock of service.FunnelService.
type FunnelService struct {
	mock.Mock
}

var _ service.FunnelService = &FunnelService{}

func (m *FunnelService) Analyze(ctx context.Context, websiteID string, dates model.DateRange, steps []model.FunnelStep, window time.Duration, filters []model.Filter) (model.FunnelPerformanceMetrics, error) {
	args := m.Called(ctx, websiteID, dates, steps, window, filters)
	return args.Get(0).(model.FunnelPerformanceMetrics), args.Error(1)
}
