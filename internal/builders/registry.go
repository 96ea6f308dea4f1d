package builders

import (
	"fmt"
	"sort"
)

// Registry maps parameter names to builders. It is assembled once at start
// up and never mutated afterwards, so concurrent lookups need no locking.
type Registry struct {
	builders   map[string]Builder
	expansions map[string][]string
}

// NewRegistry merges builder groups. Registering a name twice, or an
// expansion that points at an unknown builder, panics.
func NewRegistry(expansions map[string][]string, groups ...map[string]Builder) *Registry {
	r := &Registry{
		builders:   make(map[string]Builder),
		expansions: make(map[string][]string, len(expansions)),
	}
	for _, group := range groups {
		for name, b := range group {
			if _, exists := r.builders[name]; exists {
				panic(fmt.Sprintf("builders: %q registered twice", name))
			}
			r.builders[name] = b
		}
	}
	for alias, names := range expansions {
		if _, clash := r.builders[alias]; clash {
			panic(fmt.Sprintf("builders: expansion %q shadows a builder", alias))
		}
		for _, name := range names {
			if _, ok := r.builders[name]; !ok {
				panic(fmt.Sprintf("builders: expansion %q references unknown builder %q", alias, name))
			}
		}
		r.expansions[alias] = append([]string(nil), names...)
	}
	return r
}

// DefaultExpansions are parameter names that fan out to several builders.
var DefaultExpansions = map[string][]string{
	"devices": {"browsers", "operating_systems", "device_types"},
	"geo":     {"countries", "regions", "cities"},
	"errors":  {"error_types", "error_details", "error_trends"},
	"traffic": {"referrers", "utm_sources", "utm_mediums", "utm_campaigns"},
}

// Default returns the registry with every built-in family.
func Default() *Registry {
	return NewRegistry(DefaultExpansions,
		PageBuilders(),
		ErrorBuilders(),
		TrafficBuilders(),
		DeviceBuilders(),
		GeoBuilders(),
		SummaryBuilders(),
	)
}

// Lookup returns the builder registered under name.
func (r *Registry) Lookup(name string) (Builder, bool) {
	b, ok := r.builders[name]
	return b, ok
}

// Names returns every registered builder name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expansions returns a copy of the expansion table.
func (r *Registry) Expansions() map[string][]string {
	out := make(map[string][]string, len(r.expansions))
	for alias, names := range r.expansions {
		out[alias] = append([]string(nil), names...)
	}
	return out
}

// Expand replaces expansion aliases with their builder names and drops
// duplicates, keeping first-seen order. Unknown names pass through so the
// caller can report them.
func (r *Registry) Expand(parameters []string) []string {
	seen := make(map[string]struct{}, len(parameters))
	out := make([]string, 0, len(parameters))
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, p := range parameters {
		if names, ok := r.expansions[p]; ok {
			for _, name := range names {
				add(name)
			}
			continue
		}
		add(p)
	}
	return out
}
