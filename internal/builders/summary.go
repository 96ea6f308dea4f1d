package builders

import (
	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
)

const pageViews = "countIf(" + pageViewPredicate + ")"

var summaryMetricsFamily = Family{
	Name: "summary_metrics",
	Metrics: []query.Column{
		{Alias: "pageviews", Expr: pageViews},
		{Alias: "visitors", Expr: "uniq(anonymous_id)"},
		{Alias: "sessions", Expr: "uniq(session_id)"},
		{Alias: "bounce_rate", Expr: "round(countIf(" + pageViewPredicate + " AND is_bounce = 1) / greatest(" + pageViews + ", 1), 4)"},
		{Alias: "avg_time_on_page", Expr: "round(avgIf(time_on_page, " + pageViewPredicate + " AND time_on_page > 0), 2)"},
		{Alias: "errors", Expr: "countIf(" + errorPredicate + ")"},
	},
	Fields: eventFields,
}

var eventsByDateFamily = Family{
	Name:       "events_by_date",
	Dimensions: []query.Column{{Alias: "date", Expr: "toDate(time)"}},
	Metrics: []query.Column{
		{Alias: "pageviews", Expr: pageViews},
		{Alias: "visitors", Expr: "uniq(anonymous_id)"},
		{Alias: "sessions", Expr: "uniq(session_id)"},
		{Alias: "events", Expr: "count(*)"},
	},
	Fields:  eventFields,
	OrderBy: []string{"date ASC"},
}

var customEventsFamily = Family{
	Name:       "custom_events",
	Extra:      []string{"event_name NOT IN ('" + model.EventPageView + "', '" + model.EventError + "')"},
	Dimensions: []query.Column{{Alias: "event_name", Expr: "event_name"}},
	Metrics: []query.Column{
		{Alias: "total", Expr: "count(*)"},
		{Alias: "users", Expr: "uniq(anonymous_id)"},
		{Alias: "last_seen", Expr: "max(time)"},
	},
	Fields:  eventFields,
	OrderBy: []string{"total DESC", "event_name ASC"},
}

// SummaryBuilders returns the site wide families.
func SummaryBuilders() map[string]Builder {
	return familyBuilders(summaryMetricsFamily, eventsByDateFamily, customEventsFamily)
}
