package builders

import "analytics-query-service/internal/query"

// dimensionFamily counts visitors and pageviews per value of one column,
// ignoring rows where the column is empty.
func dimensionFamily(name, alias, column string) Family {
	return Family{
		Name:       name,
		Extra:      []string{pageViewPredicate, column + " != ''"},
		Dimensions: []query.Column{{Alias: alias, Expr: column}},
		Metrics: []query.Column{
			{Alias: "visitors", Expr: "uniq(anonymous_id)"},
			{Alias: "pageviews", Expr: "count(*)"},
			{Alias: "sessions", Expr: "uniq(session_id)"},
		},
		Fields:  visitFields,
		OrderBy: []string{"visitors DESC", alias + " ASC"},
	}
}

var (
	referrersFamily    = dimensionFamily("referrers", "referrer", "referrer")
	utmSourcesFamily   = dimensionFamily("utm_sources", "utm_source", "utm_source")
	utmMediumsFamily   = dimensionFamily("utm_mediums", "utm_medium", "utm_medium")
	utmCampaignsFamily = dimensionFamily("utm_campaigns", "utm_campaign", "utm_campaign")
)

// TrafficBuilders returns the acquisition families.
func TrafficBuilders() map[string]Builder {
	return familyBuilders(referrersFamily, utmSourcesFamily, utmMediumsFamily, utmCampaignsFamily)
}
