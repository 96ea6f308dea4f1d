package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateRange is an inclusive [From, To] window.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Operator is the closed set of comparisons a Filter may use.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNe    Operator = "ne"
	OpLike  Operator = "like"
	OpIn    Operator = "in"
	OpNotIn Operator = "notIn"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
)

// Operators lists every known operator in declaration order.
var Operators = []Operator{OpEq, OpNe, OpLike, OpIn, OpNotIn, OpGt, OpGte, OpLt, OpLte}

// Valid reports whether op is one of the known operators.
func (op Operator) Valid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// IsList reports whether op takes an array value.
func (op Operator) IsList() bool {
	return op == OpIn || op == OpNotIn
}

func (op *Operator) UnmarshalText(text []byte) error {
	candidate := Operator(text)
	if !candidate.Valid() {
		return fmt.Errorf("unsupported operator %q", string(text))
	}
	*op = candidate
	return nil
}

// FilterValue holds either a scalar or a list of strings.
type FilterValue struct {
	Scalar string
	List   []string
	IsList bool
}

// Scalar builds a single-valued FilterValue.
func Scalar(v string) FilterValue {
	return FilterValue{Scalar: v}
}

// List builds an array-valued FilterValue.
func List(vs ...string) FilterValue {
	return FilterValue{List: vs, IsList: true}
}

func (v FilterValue) MarshalJSON() ([]byte, error) {
	if v.IsList {
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Scalar)
}

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return fmt.Errorf("filter value must not be null")
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, err := scalarString(item)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		*v = FilterValue{List: out, IsList: true}
		return nil
	}
	s, err := scalarString(data)
	if err != nil {
		return err
	}
	*v = FilterValue{Scalar: s}
	return nil
}

// scalarString accepts JSON strings, numbers and booleans and returns their
// textual form. Objects and nulls are rejected.
func scalarString(raw json.RawMessage) (string, error) {
	if strings.TrimSpace(string(raw)) == "null" {
		return "", fmt.Errorf("filter value must not be null")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true", nil
		}
		return "false", nil
	}
	return "", fmt.Errorf("filter value must be a string, number, boolean or array of those")
}

// Filter is a single field comparison supplied by a caller.
type Filter struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    FilterValue `json:"value"`
}
