package builders

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"analytics-query-service/internal/model"
	"analytics-query-service/internal/query"
)

// FunnelStepsName labels the funnel step-count query in logs and metrics.
const FunnelStepsName = "funnel_steps"

// DefaultFunnelWindow bounds how far apart the first and last step may be.
const DefaultFunnelWindow = time.Hour

// FunnelUsersColumn and FunnelSecondsColumn name the columns produced for
// step n (1-based) by FunnelSteps.
func FunnelUsersColumn(n int) string   { return "step_" + strconv.Itoa(n) + "_users" }
func FunnelSecondsColumn(n int) string { return "step_" + strconv.Itoa(n) + "_avg_seconds" }

// FunnelSteps compiles the per-step counts of an ordered funnel.
//
// Each session is reduced with windowFunnel, which reports the deepest step
// reached in order within the window. A visitor counts towards step n when any
// of their sessions reached it, so step n users never exceed step n-1 users.
//
// Step timing follows the earliest ordered chain in the session: t_1 is the
// first match of step 1 and t_n the first match of step n at or after
// t_{n-1}. Gaps are therefore never negative, even when a step is revisited
// out of order.
func FunnelSteps(websiteID string, dates model.DateRange, steps []model.FunnelStep, window time.Duration, filters []model.Filter) (query.Query, error) {
	if len(steps) == 0 {
		return query.Query{}, errors.New(FunnelStepsName + ": at least one step is required")
	}
	if window <= 0 {
		window = DefaultFunnelWindow
	}

	compiled, err := compileFilters(FunnelStepsName, visitFields, filters)
	if err != nil {
		return query.Query{}, err
	}
	where := query.BuildWhere(websiteID, dates, nil, compiled)

	conditions := make([]string, len(steps))
	for i, step := range steps {
		cond, params, err := stepCondition(i+1, step)
		if err != nil {
			return query.Query{}, err
		}
		conditions[i] = cond
		where.Params.Merge(params)
	}

	innerColumns := []query.Column{
		{Alias: "visitor_id", Expr: "any(anonymous_id)"},
		{Alias: "level", Expr: fmt.Sprintf("windowFunnel(%d)(toDateTime(time), %s)", int64(window.Seconds()), strings.Join(conditions, ", "))},
	}
	for i, cond := range conditions {
		n := i + 1
		expr := "minIf(time, " + cond + ")"
		if n > 1 {
			expr = fmt.Sprintf("arrayMin(arrayFilter(x -> x >= %s, groupArrayIf(time, %s)))", stepTime(n-1), cond)
		}
		innerColumns = append(innerColumns, query.Column{Alias: stepTime(n), Expr: expr})
	}

	outerColumns := make([]query.Column, 0, 2*len(steps))
	for n := 1; n <= len(steps); n++ {
		outerColumns = append(outerColumns, query.Column{
			Alias: FunnelUsersColumn(n),
			Expr:  fmt.Sprintf("uniqExactIf(visitor_id, level >= %d)", n),
		})
		if n > 1 {
			outerColumns = append(outerColumns, query.Column{
				Alias: FunnelSecondsColumn(n),
				Expr:  fmt.Sprintf("round(avgIf(dateDiff('second', %s, %s), level >= %d), 2)", stepTime(n-1), stepTime(n), n),
			})
		}
	}

	inner := query.Join(
		query.BuildSelect(innerColumns),
		"FROM "+EventsTable,
		where.SQL,
		query.BuildGroupBy("session_id"),
	)
	sql := query.Join(
		query.BuildSelect(outerColumns),
		"FROM ("+inner+")",
	)
	return query.Query{SQL: sql, Params: where.Params}, nil
}

func stepTime(n int) string {
	return "t_" + strconv.Itoa(n)
}

// stepCondition renders the boolean expression matching step n. Condition
// keys are sorted so the generated SQL is stable.
func stepCondition(n int, step model.FunnelStep) (string, query.Params, error) {
	if strings.TrimSpace(step.Target) == "" {
		return "", nil, fmt.Errorf("%s: step %d has an empty target", FunnelStepsName, n)
	}

	prefix := "s" + strconv.Itoa(n)
	params := query.Params{prefix: step.Target}

	var parts []string
	switch step.Type {
	case model.StepPageView:
		parts = append(parts, pageViewPredicate, "path = @"+prefix)
	case model.StepEvent, model.StepCustom:
		parts = append(parts, "event_name = @"+prefix)
	default:
		return "", nil, fmt.Errorf("%s: step %d has unsupported type %q", FunnelStepsName, n, step.Type)
	}

	keys := make([]string, 0, len(step.Conditions))
	for k := range step.Conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for j, k := range keys {
		column, ok := visitFields[k]
		if !ok {
			return "", nil, &UnknownFieldError{Builder: FunnelStepsName, Field: k}
		}
		name := prefix + "_c" + strconv.Itoa(j)
		params[name] = step.Conditions[k]
		parts = append(parts, column+" = @"+name)
	}

	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}
