// Package builders holds one query builder per analytics parameter family.
//
// A builder is a pure function of (website, date range, filters, limit,
// offset). Builders never see the store; they only emit query.Query values
// that route tenant scoping through query.BuildWhere.
package builders

import (
	"fmt"

	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
)

// EventsTable is the table every builder reads from.
const EventsTable = "events"

// DefaultLimit applies when a caller passes a non-positive limit.
const DefaultLimit = 100

// Builder compiles one parameter family into a parameterized query.
type Builder func(websiteID string, dates model.DateRange, filters []model.Filter, limit, offset int) (query.Query, error)

// UnknownFieldError is returned when a filter names a field outside the
// builder's allow-list.
type UnknownFieldError struct {
	Builder string
	Field   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s: filtering on field %q is not allowed", e.Builder, e.Field)
}

// Family declares a grouped aggregation over the events table. Every
// dimension is grouped on, so the projection and the GROUP BY cannot drift.
type Family struct {
	Name       string
	Extra      []string
	Dimensions []query.Column
	Metrics    []query.Column
	Fields     map[string]string
	OrderBy    []string
}

// Build implements Builder for the family.
func (f Family) Build(websiteID string, dates model.DateRange, filters []model.Filter, limit, offset int) (query.Query, error) {
	compiled, err := compileFilters(f.Name, f.Fields, filters)
	if err != nil {
		return query.Query{}, err
	}

	where := query.BuildWhere(websiteID, dates, f.Extra, compiled)
	limit, offset = pagination(limit, offset)

	columns := make([]query.Column, 0, len(f.Dimensions)+len(f.Metrics))
	columns = append(columns, f.Dimensions...)
	columns = append(columns, f.Metrics...)

	sql := query.Join(
		query.BuildSelect(columns),
		"FROM "+EventsTable,
		where.SQL,
		query.BuildGroupBy(groupExprs(f.Dimensions)...),
		query.BuildOrderBy(f.OrderBy...),
		query.BuildLimit(limit, offset),
	)
	return query.Query{SQL: sql, Params: where.Params}, nil
}

func groupExprs(dimensions []query.Column) []string {
	exprs := make([]string, len(dimensions))
	for i, d := range dimensions {
		exprs[i] = d.Expr
	}
	return exprs
}

// compileFilters maps user-facing field names through the allow-list before
// handing them to the compiler. A field outside the list fails the whole call.
func compileFilters(builder string, fields map[string]string, filters []model.Filter) (*query.Clause, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	resolved := make([]model.Filter, len(filters))
	for i, f := range filters {
		column, ok := fields[f.Field]
		if !ok {
			return nil, &UnknownFieldError{Builder: builder, Field: f.Field}
		}
		resolved[i] = model.Filter{Field: column, Operator: f.Operator, Value: f.Value}
	}
	return query.CompileFilters(resolved)
}

func pagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
