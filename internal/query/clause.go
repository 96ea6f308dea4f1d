package query

import (
	"fmt"
	"strings"

	"analytics-query-service/internal/model"
)

// Names of the parameters bound by BuildWhere.
const (
	ParamClientID = "client_id"
	ParamDateFrom = "date_from"
	ParamDateTo   = "date_to"
)

// TenantPredicate is the single predicate that scopes a query to one website.
const TenantPredicate = "client_id = " + "@" + ParamClientID

// Column is a projected expression and its alias.
type Column struct {
	Alias string
	Expr  string
}

// BuildSelect joins "expr AS alias" pairs in the given order.
func BuildSelect(columns []Column) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s AS %s", c.Expr, c.Alias)
	}
	return "SELECT " + strings.Join(parts, ", ")
}

// BuildWhere returns the tenant and date bounded WHERE clause. Extra
// predicates are trusted SQL written by builders; filters comes from
// CompileFilters and may be nil.
func BuildWhere(clientID string, dates model.DateRange, extra []string, filters *Clause) Clause {
	predicates := []string{
		TenantPredicate,
		"time >= " + placeholder(ParamDateFrom),
		"time <= " + placeholder(ParamDateTo),
	}
	predicates = append(predicates, extra...)

	params := Params{
		ParamClientID: clientID,
		ParamDateFrom: dates.From,
		ParamDateTo:   dates.To,
	}
	if filters != nil && filters.SQL != "" {
		predicates = append(predicates, "("+filters.SQL+")")
		params.Merge(filters.Params)
	}

	return Clause{SQL: "WHERE " + strings.Join(predicates, " AND "), Params: params}
}

// BuildGroupBy returns an empty string when there is nothing to group by.
func BuildGroupBy(columns ...string) string {
	if len(columns) == 0 {
		return ""
	}
	return "GROUP BY " + strings.Join(columns, ", ")
}

// BuildOrderBy takes entries of the form "column DIRECTION".
func BuildOrderBy(entries ...string) string {
	if len(entries) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(entries, ", ")
}

// BuildLimit renders numeric pagination. Both values are integers so they are
// written inline.
func BuildLimit(limit, offset int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}
