package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
	"analytics-query-service/internal/repository"
)

// Store is a testify mock of repository.QueryStore.
type Store struct {
	mock.Mock
}

// Interface compliance check
var _ repository.QueryStore = &Store{}

func (m *Store) Query(ctx context.Context, q query.Query) ([]model.Row, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]model.Row)
	return rows, args.Error(1)
}

// EventWriter is a testify mock of repository.EventWriter.
type EventWriter struct {
	mock.Mock
}

var _ repository.EventWriter = &EventWriter{}

func (m *EventWriter) CreateBatch(ctx context.Context, events []model.Event) error {
	return m.Called(ctx, events).Error(0)
}
