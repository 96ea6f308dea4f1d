// Package query compiles structured analytics requests into parameterized
// ClickHouse SQL. Every value supplied by a caller travels as a named bind
// parameter (@name); the only text this package writes into a statement is
// column expressions chosen by the builders and fixed keywords.
package query

import (
	"fmt"
	"sort"
	"strings"
)

// Params are named bind values keyed without the leading '@'.
type Params map[string]interface{}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge copies other into p. A name bound twice is a builder bug.
func (p Params) Merge(other Params) {
	for name, value := range other {
		if _, exists := p[name]; exists {
			panic(fmt.Sprintf("query: parameter %q bound twice", name))
		}
		p[name] = value
	}
}

// Query is a compiled statement with its bind parameters.
type Query struct {
	SQL    string
	Params Params
}

// Clause is a fragment of SQL together with the parameters it references.
type Clause struct {
	SQL    string
	Params Params
}

func placeholder(name string) string {
	return "@" + name
}

// Join assembles statement parts, skipping empty ones.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n")
}
