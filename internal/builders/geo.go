package builders

import "analytics-query-service/internal/query"

var countriesFamily = dimensionFamily("countries", "country", "country")

var regionsFamily = Family{
	Name:  "regions",
	Extra: []string{pageViewPredicate, "region != ''"},
	Dimensions: []query.Column{
		{Alias: "country", Expr: "country"},
		{Alias: "region", Expr: "region"},
	},
	Metrics: []query.Column{
		{Alias: "visitors", Expr: "uniq(anonymous_id)"},
		{Alias: "pageviews", Expr: "count(*)"},
	},
	Fields:  visitFields,
	OrderBy: []string{"visitors DESC", "country ASC", "region ASC"},
}

var citiesFamily = Family{
	Name:  "cities",
	Extra: []string{pageViewPredicate, "city != ''"},
	Dimensions: []query.Column{
		{Alias: "country", Expr: "country"},
		{Alias: "region", Expr: "region"},
		{Alias: "city", Expr: "city"},
	},
	Metrics: []query.Column{
		{Alias: "visitors", Expr: "uniq(anonymous_id)"},
		{Alias: "pageviews", Expr: "count(*)"},
	},
	Fields:  visitFields,
	OrderBy: []string{"visitors DESC", "country ASC", "region ASC", "city ASC"},
}

// GeoBuilders returns the location families.
func GeoBuilders() map[string]Builder {
	return familyBuilders(countriesFamily, regionsFamily, citiesFamily)
}
