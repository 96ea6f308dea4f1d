package query

import (
	"fmt"
	"strconv"
	"strings"

	"analytics-query-service/internal/model"
)

// FilterError reports a filter whose value does not fit its operator.
type FilterError struct {
	Field    string
	Operator model.Operator
	Reason   string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter on %q with operator %q: %s", e.Field, e.Operator, e.Reason)
}

var comparisons = map[model.Operator]string{
	model.OpEq:   "=",
	model.OpNe:   "!=",
	model.OpLike: "LIKE",
	model.OpGt:   ">",
	model.OpGte:  ">=",
	model.OpLt:   "<",
	model.OpLte:  "<=",
}

// likeEscaper makes LIKE wildcards in user values match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ValidateFilter checks the value shape against the operator. It returns a
// *FilterError for shape mismatches and panics on an unknown operator.
func ValidateFilter(f model.Filter) error {
	if !f.Operator.Valid() {
		panic(fmt.Sprintf("query: unknown filter operator %q", f.Operator))
	}
	switch {
	case f.Operator.IsList() && !f.Value.IsList:
		return &FilterError{Field: f.Field, Operator: f.Operator, Reason: "operator requires an array value"}
	case f.Operator.IsList() && len(f.Value.List) == 0:
		return &FilterError{Field: f.Field, Operator: f.Operator, Reason: "array value must not be empty"}
	case !f.Operator.IsList() && f.Value.IsList:
		return &FilterError{Field: f.Field, Operator: f.Operator, Reason: "operator requires a scalar value"}
	}
	return nil
}

// CompileFilters renders filters as an AND-joined predicate. Each Field must
// already be a trusted column expression; callers map user-facing field names
// through their allow-list first. It returns nil when filters is empty.
func CompileFilters(filters []model.Filter) (*Clause, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	params := Params{}
	predicates := make([]string, 0, len(filters))
	for i, f := range filters {
		if err := ValidateFilter(f); err != nil {
			return nil, err
		}

		name := "f" + strconv.Itoa(i)
		if f.Operator.IsList() {
			holders := make([]string, len(f.Value.List))
			for j, v := range f.Value.List {
				itemName := name + "_" + strconv.Itoa(j)
				params[itemName] = v
				holders[j] = placeholder(itemName)
			}
			keyword := "IN"
			if f.Operator == model.OpNotIn {
				keyword = "NOT IN"
			}
			predicates = append(predicates, fmt.Sprintf("%s %s (%s)", f.Field, keyword, strings.Join(holders, ", ")))
			continue
		}

		value := f.Value.Scalar
		if f.Operator == model.OpLike {
			value = "%" + likeEscaper.Replace(value) + "%"
		}
		params[name] = value
		predicates = append(predicates, fmt.Sprintf("%s %s %s", f.Field, comparisons[f.Operator], placeholder(name)))
	}

	return &Clause{SQL: strings.Join(predicates, " AND "), Params: params}, nil
}
