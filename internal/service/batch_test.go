package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"analytics-query-service/internal/builders"
	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
	"analytics-query-service/internal/testdata/mockstore"
)

type BatchServiceTestSuite struct {
	suite.Suite

	store   *mockstore.Store
	service BatchService
}

func TestBatchServiceSuite(t *testing.T) {
	suite.Run(t, new(BatchServiceTestSuite))
}

func (s *BatchServiceTestSuite) SetupTest() {
	s.store = &mockstore.Store{}
	s.service = s.newService()
}

func (s *BatchServiceTestSuite) newService(opts ...Option) BatchService {
	registry := builders.Default()
	return NewBatchService(NewDispatcher(registry, s.store), registry, opts...)
}

func (s *BatchServiceTestSuite) TearDownTest() {
	s.store.AssertExpectations(s.T())
}

// fromClause matches queries by a fragment unique to one builder.
func fromClause(fragment string) interface{} {
	return mock.MatchedBy(func(q query.Query) bool { return strings.Contains(q.SQL, fragment) })
}

func (s *BatchServiceTestSuite) TestExecuteBatch_UnknownParameterFailsOnlyItsRequest() {
	pages := []model.Row{{"path": "/", "pageviews": uint64(10), "visitors": uint64(4)}}
	errorTypes := []model.Row{{"error_type": "TypeError", "total": uint64(3)}}
	s.store.On("Query", mock.Anything, fromClause("path AS path, count(*) AS pageviews")).Return(pages, nil).Once()
	s.store.On("Query", mock.Anything, fromClause("error_type AS error_type, count(*) AS total")).Return(errorTypes, nil).Once()

	resp, err := s.service.ExecuteBatch(context.Background(), "w1", januaryRange(), []model.ParameterQueryRequest{
		{ID: "a", Parameters: []string{"pages"}},
		{ID: "b", Parameters: []string{"error_types", "bogus_param"}},
	})

	s.Require().NoError(err)
	s.True(resp.Success)
	s.True(resp.Batch)
	s.Require().Len(resp.Results, 2)
	s.Equal(2, resp.TotalQueries())
	s.Equal(1, resp.SuccessfulQueries())
	s.Equal(1, resp.FailedQueries())

	a := resp.Results[0]
	s.Equal("a", a.QueryID)
	s.True(a.Success)
	s.Equal(pages, a.Data["pages"])
	s.Empty(a.Errors)

	b := resp.Results[1]
	s.Equal("b", b.QueryID)
	s.False(b.Success)
	s.Equal(errorTypes, b.Data["error_types"])
	s.NotContains(b.Data, "bogus_param")
	s.Equal("builder not found: bogus_param", b.Errors["bogus_param"])
	s.Equal(2, b.Meta.TotalParameters)
}

func (s *BatchServiceTestSuite) TestExecuteBatch_Independence() {
	s.store.On("Query", mock.Anything, mock.Anything).Return([]model.Row{}, nil)

	requests := make([]model.ParameterQueryRequest, 6)
	for i := range requests {
		requests[i] = model.ParameterQueryRequest{ID: string(rune('a' + i)), Parameters: []string{"pages", "countries"}}
	}
	requests[3].Parameters = []string{"pages", "nonexistent"}

	resp, err := s.service.ExecuteBatch(context.Background(), "w1", januaryRange(), requests)

	s.Require().NoError(err)
	s.Len(resp.Results, len(requests))
	s.Equal(1, resp.FailedQueries())
	for i, r := range resp.Results {
		s.Equal(requests[i].ID, r.QueryID)
		s.Equal(i != 3, r.Success)
	}
}

func (s *BatchServiceTestSuite) TestExecuteBatch_StoreFailureIsOpaque() {
	s.store.On("Query", mock.Anything, fromClause("browser_name AS browser_name")).Return(nil, errors.New("Code: 241. Memory limit exceeded")).Once()
	s.store.On("Query", mock.Anything, mock.Anything).Return([]model.Row{}, nil)

	resp, err := s.service.ExecuteBatch(context.Background(), "w1", januaryRange(), []model.ParameterQueryRequest{
		{ID: "devices", Parameters: []string{"devices"}},
	})

	s.Require().NoError(err)
	r := resp.Results[0]
	s.False(r.Success)
	s.Equal([]string{"browsers", "operating_systems", "device_types"}, r.Meta.Parameters)
	s.Equal(3, r.Meta.TotalParameters)
	s.Equal(map[string]string{"browsers": "query execution failed"}, r.Errors)
	s.Contains(r.Data, "operating_systems")
	s.Contains(r.Data, "device_types")
}

func (s *BatchServiceTestSuite) TestExecuteBatch_MetaAndFilters() {
	s.store.On("Query", mock.Anything, mock.MatchedBy(func(q query.Query) bool {
		return strings.Contains(q.SQL, "client_id = @client_id") &&
			strings.Contains(q.SQL, "time >= @date_from AND time <= @date_to") &&
			strings.Contains(q.SQL, "error_type = @f0") &&
			strings.HasSuffix(q.SQL, "LIMIT 20 OFFSET 40") &&
			q.Params["f0"] == "TypeError" &&
			q.Params["client_id"] == "w1"
	})).Return([]model.Row{}, nil).Once()

	resp, err := s.service.ExecuteBatch(context.Background(), "w1", januaryRange(), []model.ParameterQueryRequest{{
		ID:         "errors",
		Parameters: []string{"error_types"},
		Limit:      20,
		Offset:     40,
		Filters:    []model.Filter{{Field: "error_type", Operator: model.OpEq, Value: model.Scalar("TypeError")}},
	}})

	s.Require().NoError(err)
	r := resp.Results[0]
	s.True(r.Success)
	s.Equal([]model.Row{}, r.Data["error_types"])
	s.Equal(model.BatchQueryMeta{
		Parameters:      []string{"error_types"},
		TotalParameters: 1,
		Page:            3,
		Limit:           20,
		FiltersApplied:  1,
	}, r.Meta)
}

func (s *BatchServiceTestSuite) TestExecuteBatch_DefaultsAndGeneratedID() {
	s.store.On("Query", mock.Anything, mock.Anything).Return(nil, nil).Once()

	resp, err := s.service.ExecuteBatch(context.Background(), "w1", januaryRange(), []model.ParameterQueryRequest{
		{Parameters: []string{"summary_metrics"}, Limit: -1, Offset: -10},
	})

	s.Require().NoError(err)
	r := resp.Results[0]
	_, parseErr := uuid.Parse(r.QueryID)
	s.NoError(parseErr)
	s.Equal(100, r.Meta.Limit)
	s.Equal(1, r.Meta.Page)
	s.NotNil(r.Data["summary_metrics"])
}

func (s *BatchServiceTestSuite) TestExecuteBatch_EmptyParameters() {
	resp, err := s.service.ExecuteBatch(context.Background(), "w1", januaryRange(), []model.ParameterQueryRequest{{ID: "empty"}})

	s.Require().NoError(err)
	s.False(resp.Results[0].Success)
	s.Contains(resp.Results[0].Errors, "parameters")
}

func (s *BatchServiceTestSuite) TestExecuteBatch_ValidationErrors() {
	svc := s.newService(WithMaxQueries(2))
	requests := []model.ParameterQueryRequest{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	_, err := svc.ExecuteBatch(context.Background(), "w1", januaryRange(), requests)
	var validation *ValidationError
	s.Require().ErrorAs(err, &validation)
	s.Equal("batch exceeds 2 queries", err.Error())

	_, err = svc.ExecuteBatch(context.Background(), "", januaryRange(), nil)
	s.Require().ErrorAs(err, &validation)
}

func (s *BatchServiceTestSuite) TestExecuteBatch_EmptyBatch() {
	resp, err := s.service.ExecuteBatch(context.Background(), "w1", januaryRange(), nil)

	s.Require().NoError(err)
	s.True(resp.Success)
	s.Empty(resp.Results)
	s.Equal(0, resp.TotalQueries())
}

func (s *BatchServiceTestSuite) TestExecuteBatch_CancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := s.service.ExecuteBatch(ctx, "w1", januaryRange(), []model.ParameterQueryRequest{
		{ID: "a", Parameters: []string{"pages"}},
	})

	s.Require().NoError(err)
	s.False(resp.Results[0].Success)
	s.Equal("request cancelled", resp.Results[0].Errors["pages"])
	s.store.AssertNotCalled(s.T(), "Query", mock.Anything, mock.Anything)
}

func (s *BatchServiceTestSuite) TestExecuteBatch_BoundedConcurrency() {
	var inflight, peak atomic.Int32
	s.store.On("Query", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inflight.Add(-1)
	}).Return([]model.Row{}, nil)

	svc := s.newService(WithConcurrency(2))
	resp, err := svc.ExecuteBatch(context.Background(), "w1", januaryRange(), []model.ParameterQueryRequest{
		{ID: "traffic", Parameters: []string{"traffic"}},
		{ID: "geo", Parameters: []string{"geo"}},
	})

	s.Require().NoError(err)
	s.Equal(0, resp.FailedQueries())
	s.LessOrEqual(peak.Load(), int32(2))
	s.store.AssertNumberOfCalls(s.T(), "Query", 7)
}
