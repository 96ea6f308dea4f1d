package service

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"analytics-query-service/internal/builders"
	"analytics-query-service/internal/telemetry"
)

// Limits bounds pagination of parameter queries.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits are used when no WithLimits option is given.
var DefaultLimits = Limits{Default: builders.DefaultLimit, Max: 1000}

// Clamp normalizes caller supplied pagination: a non-positive limit becomes
// the default, a limit above the max becomes the max and a negative offset
// becomes 0.
func (l Limits) Clamp(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = l.Default
	}
	if l.Max > 0 && limit > l.Max {
		limit = l.Max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type options struct {
	logger       *zap.Logger
	metrics      *telemetry.Metrics
	cache        *ristretto.Cache
	cacheTTL     time.Duration
	limits       Limits
	concurrency  int
	maxQueries   int
	funnelWindow time.Duration
}

// Option configures the services in this package.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the prometheus collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithCache enables result caching for ttl. A nil cache or non-positive ttl
// leaves caching off.
func WithCache(cache *ristretto.Cache, ttl time.Duration) Option {
	return func(o *options) {
		if cache != nil && ttl > 0 {
			o.cache = cache
			o.cacheTTL = ttl
		}
	}
}

// WithLimits sets the pagination defaults.
func WithLimits(l Limits) Option {
	return func(o *options) {
		if l.Default > 0 {
			o.limits = l
		}
	}
}

// WithConcurrency bounds how many parameter queries a batch runs at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxQueries caps the number of logical requests in a batch.
func WithMaxQueries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxQueries = n
		}
	}
}

// WithFunnelWindow sets the default funnel conversion window.
func WithFunnelWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.funnelWindow = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:       zap.NewNop(),
		limits:       DefaultLimits,
		concurrency:  8,
		maxQueries:   50,
		funnelWindow: builders.DefaultFunnelWindow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = telemetry.NewMetrics(nil)
	}
	return o
}

// NewCache creates the result cache used with WithCache. maxCost is an
// approximate byte budget.
func NewCache(maxCost int64) (*ristretto.Cache, error) {
	return ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
}
