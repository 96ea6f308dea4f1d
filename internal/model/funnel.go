package model

import "fmt"

// FunnelStepType is the kind of event a funnel step matches.
type FunnelStepType string

const (
	StepPageView FunnelStepType = "PAGE_VIEW"
	StepEvent    FunnelStepType = "EVENT"
	StepCustom   FunnelStepType = "CUSTOM"
)

func (t *FunnelStepType) UnmarshalText(text []byte) error {
	switch FunnelStepType(text) {
	case StepPageView, StepEvent, StepCustom:
		*t = FunnelStepType(text)
		return nil
	default:
		return fmt.Errorf("unsupported funnel step type %q", string(text))
	}
}

// FunnelStep is one ordered step of a funnel definition.
type FunnelStep struct {
	Type       FunnelStepType    `json:"type"`
	Target     string            `json:"target"`
	Name       string            `json:"name"`
	Conditions map[string]string `json:"conditions,omitempty"`
}

// StepCount is the raw per-step input of the funnel calculator.
// StepCompletionTime is the average number of seconds from the previous step,
// nil when no timing is known.
type StepCount struct {
	StepNumber         int      `json:"step_number"`
	StepName           string   `json:"step_name"`
	Users              uint64   `json:"users"`
	StepCompletionTime *float64 `json:"step_completion_time,omitempty"`
}

// FunnelAnalytics holds the derived metrics of one step.
type FunnelAnalytics struct {
	StepNumber        int      `json:"step_number"`
	StepName          string   `json:"step_name"`
	Users             uint64   `json:"users"`
	TotalUsers        uint64   `json:"total_users"`
	ConversionRate    float64  `json:"conversion_rate"`
	Dropoffs          uint64   `json:"dropoffs"`
	DropoffRate       float64  `json:"dropoff_rate"`
	AvgTimeToComplete *float64 `json:"avg_time_to_complete,omitempty"`
}

// FunnelPerformanceMetrics is the aggregate view of a funnel.
type FunnelPerformanceMetrics struct {
	OverallConversionRate float64           `json:"overall_conversion_rate"`
	TotalUsersEntered     uint64            `json:"total_users_entered"`
	TotalUsersCompleted   uint64            `json:"total_users_completed"`
	AvgCompletionTime     *float64          `json:"avg_completion_time,omitempty"`
	BiggestDropoffStep    *int              `json:"biggest_dropoff_step,omitempty"`
	BiggestDropoffRate    float64           `json:"biggest_dropoff_rate"`
	StepsAnalytics        []FunnelAnalytics `json:"steps_analytics"`
}
