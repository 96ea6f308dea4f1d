package builders

import (
	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
)

var pagesFamily = Family{
	Name:       "pages",
	Extra:      []string{pageViewPredicate},
	Dimensions: []query.Column{{Alias: "path", Expr: "path"}},
	Metrics: []query.Column{
		{Alias: "pageviews", Expr: "count(*)"},
		{Alias: "visitors", Expr: "uniq(anonymous_id)"},
		{Alias: "sessions", Expr: "uniq(session_id)"},
		{Alias: "avg_time_on_page", Expr: "round(avgIf(time_on_page, time_on_page > 0), 2)"},
		{Alias: "bounce_rate", Expr: "round(countIf(is_bounce = 1) / count(*), 4)"},
	},
	Fields:  visitFields,
	OrderBy: []string{"pageviews DESC", "path ASC"},
}

// Timing columns use zero or negative values as "not measured", so every
// average skips them.
var pagePerformanceFamily = Family{
	Name:       "page_performance",
	Extra:      []string{pageViewPredicate},
	Dimensions: []query.Column{{Alias: "path", Expr: "path"}},
	Metrics: []query.Column{
		{Alias: "pageviews", Expr: "count(*)"},
		{Alias: "avg_load_time", Expr: "round(avgIf(load_time, load_time > 0), 2)"},
		{Alias: "avg_ttfb", Expr: "round(avgIf(ttfb, ttfb > 0), 2)"},
		{Alias: "avg_fcp", Expr: "round(avgIf(fcp, fcp > 0), 2)"},
		{Alias: "avg_lcp", Expr: "round(avgIf(lcp, lcp > 0), 2)"},
		{Alias: "avg_cls", Expr: "round(avgIf(cls, cls > 0), 4)"},
		{Alias: "p75_load_time", Expr: "round(quantileIf(0.75)(load_time, load_time > 0), 2)"},
	},
	Fields:  visitFields,
	OrderBy: []string{"pageviews DESC", "path ASC"},
}

// PageBuilders returns the page level families.
func PageBuilders() map[string]Builder {
	return map[string]Builder{
		pagesFamily.Name:           pagesFamily.Build,
		pagePerformanceFamily.Name: pagePerformanceFamily.Build,
		"entry_pages":              sessionEdgePages("entry_pages", "argMin"),
		"exit_pages":               sessionEdgePages("exit_pages", "argMax"),
	}
}

// sessionEdgePages builds the first (argMin) or last (argMax) page of each
// session and counts how often each path is that edge.
func sessionEdgePages(name, pick string) Builder {
	return func(websiteID string, dates model.DateRange, filters []model.Filter, limit, offset int) (query.Query, error) {
		compiled, err := compileFilters(name, visitFields, filters)
		if err != nil {
			return query.Query{}, err
		}

		where := query.BuildWhere(websiteID, dates, []string{pageViewPredicate}, compiled)
		limit, offset = pagination(limit, offset)

		inner := query.Join(
			query.BuildSelect([]query.Column{
				{Alias: "sid", Expr: "session_id"},
				{Alias: "visitor_id", Expr: "any(anonymous_id)"},
				{Alias: "edge_path", Expr: pick + "(path, time)"},
			}),
			"FROM "+EventsTable,
			where.SQL,
			query.BuildGroupBy("session_id"),
		)

		sql := query.Join(
			query.BuildSelect([]query.Column{
				{Alias: "path", Expr: "edge_path"},
				{Alias: "sessions", Expr: "count(*)"},
				{Alias: "visitors", Expr: "uniq(visitor_id)"},
			}),
			"FROM ("+inner+")",
			query.BuildGroupBy("edge_path"),
			query.BuildOrderBy("sessions DESC", "path ASC"),
			query.BuildLimit(limit, offset),
		)
		return query.Query{SQL: sql, Params: where.Params}, nil
	}
}
