package query

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"analytics-query-service/internal/model"
)

var placeholderRe = regexp.MustCompile(`@[a-zA-Z0-9_]+`)

func TestCompileFilters_Empty(t *testing.T) {
	t.Parallel()

	clause, err := CompileFilters(nil)
	require.NoError(t, err)
	require.Nil(t, clause)

	clause, err = CompileFilters([]model.Filter{})
	require.NoError(t, err)
	require.Nil(t, clause)
}

func TestCompileFilters_ScalarOperators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op   model.Operator
		want string
	}{
		{model.OpEq, "path = @f0"},
		{model.OpNe, "path != @f0"},
		{model.OpGt, "path > @f0"},
		{model.OpGte, "path >= @f0"},
		{model.OpLt, "path < @f0"},
		{model.OpLte, "path <= @f0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			t.Parallel()

			value := "'; DROP TABLE events; --"
			clause, err := CompileFilters([]model.Filter{
				{Field: "path", Operator: tt.op, Value: model.Scalar(value)},
			})
			require.NoError(t, err)
			require.Equal(t, tt.want, clause.SQL)
			require.Equal(t, Params{"f0": value}, clause.Params)
			require.NotContains(t, clause.SQL, value)
		})
	}
}

func TestCompileFilters_Like(t *testing.T) {
	t.Parallel()

	clause, err := CompileFilters([]model.Filter{
		{Field: "path", Operator: model.OpLike, Value: model.Scalar("/docs")},
	})
	require.NoError(t, err)
	require.Equal(t, "path LIKE @f0", clause.SQL)
	require.Equal(t, "%/docs%", clause.Params["f0"])
}

func TestCompileFilters_LikeEscapesWildcards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "50%", want: `%50\%%`},
		{in: "utm_source", want: `%utm\_source%`},
		{in: `C:\temp`, want: `%C:\\temp%`},
		{in: "plain", want: "%plain%"},
	}
	for _, tt := range tests {
		clause, err := CompileFilters([]model.Filter{
			{Field: "path", Operator: model.OpLike, Value: model.Scalar(tt.in)},
		})
		require.NoError(t, err)
		require.Equal(t, tt.want, clause.Params["f0"], tt.in)
	}
}

func TestCompileFilters_ListOperators(t *testing.T) {
	t.Parallel()

	values := []string{"Chrome", "Firefox", "Safari"}
	clause, err := CompileFilters([]model.Filter{
		{Field: "browser_name", Operator: model.OpIn, Value: model.List(values...)},
		{Field: "country", Operator: model.OpNotIn, Value: model.List("US")},
	})
	require.NoError(t, err)
	require.Equal(t,
		"browser_name IN (@f0_0, @f0_1, @f0_2) AND country NOT IN (@f1_0)",
		clause.SQL)
	require.Equal(t, Params{
		"f0_0": "Chrome",
		"f0_1": "Firefox",
		"f0_2": "Safari",
		"f1_0": "US",
	}, clause.Params)
}

func TestCompileFilters_BoundParameterCountMatchesValues(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 20; n++ {
		values := make([]string, n)
		for i := range values {
			values[i] = string(rune('a' + i))
		}
		clause, err := CompileFilters([]model.Filter{
			{Field: "path", Operator: model.OpIn, Value: model.List(values...)},
		})
		require.NoError(t, err)
		require.Len(t, clause.Params, n)
		require.Len(t, placeholderRe.FindAllString(clause.SQL, -1), n)
	}
}

func TestCompileFilters_ShapeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter model.Filter
	}{
		{"in with scalar", model.Filter{Field: "path", Operator: model.OpIn, Value: model.Scalar("/")}},
		{"notIn with scalar", model.Filter{Field: "path", Operator: model.OpNotIn, Value: model.Scalar("/")}},
		{"in with empty list", model.Filter{Field: "path", Operator: model.OpIn, Value: model.List()}},
		{"eq with list", model.Filter{Field: "path", Operator: model.OpEq, Value: model.List("/")}},
		{"gt with list", model.Filter{Field: "path", Operator: model.OpGt, Value: model.List("1", "2")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clause, err := CompileFilters([]model.Filter{tt.filter})
			require.Nil(t, clause)

			var filterErr *FilterError
			require.ErrorAs(t, err, &filterErr)
			require.Equal(t, "path", filterErr.Field)
			require.Equal(t, tt.filter.Operator, filterErr.Operator)
		})
	}
}

func TestCompileFilters_UnknownOperatorPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_, _ = CompileFilters([]model.Filter{
			{Field: "path", Operator: model.Operator("OR 1=1"), Value: model.Scalar("x")},
		})
	})
}
