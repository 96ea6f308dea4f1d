package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"analytics-query-service/internal/builders"
	"analytics-query-service/internal/model"
	"analytics-query-service/internal/telemetry"
)

// MaxFunnelSteps caps the length of a funnel definition.
const MaxFunnelSteps = 10

// FunnelService runs the funnel step-count query and derives its analytics.
type FunnelService interface {
	Analyze(ctx context.Context, websiteID string, dates model.DateRange, steps []model.FunnelStep, window time.Duration, filters []model.Filter) (model.FunnelPerformanceMetrics, error)
}

type funnelService struct {
	dispatcher Dispatcher
	tracer     trace.Tracer
	options
}

// NewFunnelService constructs a FunnelService.
func NewFunnelService(dispatcher Dispatcher, opts ...Option) FunnelService {
	return &funnelService{
		dispatcher: dispatcher,
		tracer:     telemetry.Tracer(),
		options:    buildOptions(opts),
	}
}

func (s *funnelService) Analyze(ctx context.Context, websiteID string, dates model.DateRange, steps []model.FunnelStep, window time.Duration, filters []model.Filter) (model.FunnelPerformanceMetrics, error) {
	if websiteID == "" {
		return model.FunnelPerformanceMetrics{}, &ValidationError{Message: "website_id is required"}
	}
	if len(steps) == 0 || len(steps) > MaxFunnelSteps {
		return model.FunnelPerformanceMetrics{}, &ValidationError{Message: fmt.Sprintf("funnel must have between 1 and %d steps", MaxFunnelSteps)}
	}
	if window <= 0 {
		window = s.funnelWindow
	}

	ctx, span := s.tracer.Start(ctx, "funnel.analyze", trace.WithAttributes(
		attribute.String("website_id", websiteID),
		attribute.Int("steps", len(steps)),
	))
	defer span.End()

	q, err := builders.FunnelSteps(websiteID, dates, steps, window, filters)
	if err != nil {
		return model.FunnelPerformanceMetrics{}, &ValidationError{Message: err.Error()}
	}

	rows, err := s.dispatcher.Run(ctx, builders.FunnelStepsName, websiteID, q)
	if err != nil {
		return model.FunnelPerformanceMetrics{}, err
	}

	var row model.Row
	if len(rows) > 0 {
		row = rows[0]
	}
	return ComputeFunnelAnalytics(stepCounts(steps, row)), nil
}

// stepCounts maps the single row of the step-count query onto the steps.
// Timing is only kept for steps after the first that some user reached.
func stepCounts(steps []model.FunnelStep, row model.Row) []model.StepCount {
	counts := make([]model.StepCount, len(steps))
	for i, step := range steps {
		n := i + 1
		name := step.Name
		if name == "" {
			name = step.Target
		}
		counts[i] = model.StepCount{
			StepNumber: n,
			StepName:   name,
			Users:      toUint64(row[builders.FunnelUsersColumn(n)]),
		}
		if n == 1 || counts[i].Users == 0 {
			continue
		}
		if secs, ok := toFloat64(row[builders.FunnelSecondsColumn(n)]); ok {
			counts[i].StepCompletionTime = &secs
		}
	}
	return counts
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case int64:
		if n > 0 {
			return uint64(n)
		}
	case int:
		if n > 0 {
			return uint64(n)
		}
	case float64:
		if n > 0 {
			return uint64(n)
		}
	case string:
		parsed, err := strconv.ParseUint(n, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return 0
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	}
	return 0, false
}

// ComputeFunnelAnalytics derives conversion, drop-off and timing metrics from
// ordered step counts. counts must be sorted by step number; they are not
// re-sorted. Non-monotonic input is clamped: a step with more users than its
// predecessor reports 0 drop-offs and a 0 drop-off rate. Rates fall back to 0
// instead of dividing by zero.
func ComputeFunnelAnalytics(counts []model.StepCount) model.FunnelPerformanceMetrics {
	metrics := model.FunnelPerformanceMetrics{
		StepsAnalytics: make([]model.FunnelAnalytics, len(counts)),
	}
	if len(counts) == 0 {
		return metrics
	}

	entered := counts[0].Users
	completed := counts[len(counts)-1].Users
	metrics.TotalUsersEntered = entered
	metrics.TotalUsersCompleted = completed
	metrics.OverallConversionRate = ratio(completed, entered)

	var timeSum float64
	var timed int
	best := -1

	for i, c := range counts {
		step := model.FunnelAnalytics{
			StepNumber:     c.StepNumber,
			StepName:       c.StepName,
			Users:          c.Users,
			TotalUsers:     entered,
			ConversionRate: ratio(c.Users, entered),
		}
		if c.StepCompletionTime != nil {
			t := *c.StepCompletionTime
			step.AvgTimeToComplete = &t
			timeSum += t
			timed++
		}
		if i > 0 {
			prev := counts[i-1].Users
			if prev > c.Users {
				step.Dropoffs = prev - c.Users
			}
			step.DropoffRate = ratio(step.Dropoffs, prev)
			if best < 0 || step.DropoffRate > metrics.StepsAnalytics[best].DropoffRate {
				best = i
			}
		}
		metrics.StepsAnalytics[i] = step
	}

	if best > 0 {
		n := metrics.StepsAnalytics[best].StepNumber
		metrics.BiggestDropoffStep = &n
		metrics.BiggestDropoffRate = metrics.StepsAnalytics[best].DropoffRate
	}
	if timed > 0 {
		avg := timeSum / float64(timed)
		metrics.AvgCompletionTime = &avg
	}
	return metrics
}

func ratio(num, den uint64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
