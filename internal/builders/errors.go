package builders

import "analytics-query-service/internal/query"

var errorTypesFamily = Family{
	Name:       "error_types",
	Extra:      []string{errorPredicate},
	Dimensions: []query.Column{{Alias: "error_type", Expr: "error_type"}},
	Metrics: []query.Column{
		{Alias: "total", Expr: "count(*)"},
		{Alias: "users", Expr: "uniq(anonymous_id)"},
		{Alias: "last_seen", Expr: "max(time)"},
	},
	Fields:  errorFields,
	OrderBy: []string{"total DESC", "error_type ASC"},
}

var errorDetailsFamily = Family{
	Name:  "error_details",
	Extra: []string{errorPredicate},
	Dimensions: []query.Column{
		{Alias: "error_message", Expr: "error_message"},
		{Alias: "error_type", Expr: "error_type"},
		{Alias: "filename", Expr: "filename"},
	},
	Metrics: []query.Column{
		{Alias: "total", Expr: "count(*)"},
		{Alias: "users", Expr: "uniq(anonymous_id)"},
		{Alias: "first_seen", Expr: "min(time)"},
		{Alias: "last_seen", Expr: "max(time)"},
		{Alias: "sample_stack", Expr: "any(error_stack)"},
		{Alias: "sample_lineno", Expr: "any(lineno)"},
		{Alias: "sample_path", Expr: "any(path)"},
	},
	Fields:  errorFields,
	OrderBy: []string{"last_seen DESC", "total DESC", "error_message ASC"},
}

var errorTrendsFamily = Family{
	Name:       "error_trends",
	Extra:      []string{errorPredicate},
	Dimensions: []query.Column{{Alias: "date", Expr: "toDate(time)"}},
	Metrics: []query.Column{
		{Alias: "errors", Expr: "count(*)"},
		{Alias: "users", Expr: "uniq(anonymous_id)"},
	},
	Fields:  errorFields,
	OrderBy: []string{"date ASC"},
}

// ErrorBuilders returns the error families.
func ErrorBuilders() map[string]Builder {
	return familyBuilders(errorTypesFamily, errorDetailsFamily, errorTrendsFamily)
}

func familyBuilders(families ...Family) map[string]Builder {
	out := make(map[string]Builder, len(families))
	for _, f := range families {
		out[f.Name] = f.Build
	}
	return out
}
