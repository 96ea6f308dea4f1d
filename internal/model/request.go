package model

// QueryRequest is the body of a single parameter query.
type QueryRequest struct {
	WebsiteID string   `json:"website_id"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Filters   []Filter `json:"filters,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Offset    int      `json:"offset,omitempty"`
}

// QueryResponse wraps the rows of a single parameter query.
type QueryResponse struct {
	Success bool  `json:"success"`
	Data    []Row `json:"data"`
}

// BatchRequest is the body of a batch of parameter queries sharing one
// website and date range.
type BatchRequest struct {
	WebsiteID string                  `json:"website_id"`
	StartDate string                  `json:"start_date"`
	EndDate   string                  `json:"end_date"`
	Queries   []ParameterQueryRequest `json:"queries"`
}

// FunnelRequest is the body of a funnel analysis. WindowSeconds of 0 uses
// the configured default window.
type FunnelRequest struct {
	WebsiteID     string       `json:"website_id"`
	StartDate     string       `json:"start_date"`
	EndDate       string       `json:"end_date"`
	Steps         []FunnelStep `json:"steps"`
	WindowSeconds int          `json:"window_seconds,omitempty"`
	Filters       []Filter     `json:"filters,omitempty"`
}

// ParametersResponse lists the registered parameter names and group
// expansions.
type ParametersResponse struct {
	Parameters []string            `json:"parameters"`
	Expansions map[string][]string `json:"expansions"`
}
