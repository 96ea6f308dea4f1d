package model

import "encoding/json"

// Row is one result row keyed by the column aliases a builder selects.
type Row map[string]interface{}

// ParameterQueryRequest is one logical query inside a batch.
type ParameterQueryRequest struct {
	ID         string   `json:"id"`
	Parameters []string `json:"parameters"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
	Filters    []Filter `json:"filters,omitempty"`
}

// BatchQueryMeta describes how a request was executed.
type BatchQueryMeta struct {
	Parameters      []string `json:"parameters"`
	TotalParameters int      `json:"total_parameters"`
	Page            int      `json:"page"`
	Limit           int      `json:"limit"`
	FiltersApplied  int      `json:"filters_applied"`
}

// BatchQueryResult is the outcome of one ParameterQueryRequest. Success is
// false when any of its parameters failed; the parameters that did succeed
// are still present in Data.
type BatchQueryResult struct {
	Success bool              `json:"success"`
	QueryID string            `json:"queryId"`
	Data    map[string][]Row  `json:"data"`
	Errors  map[string]string `json:"errors,omitempty"`
	Meta    BatchQueryMeta    `json:"meta"`
}

// BatchResponse wraps every result of a batch. The aggregate counts are
// derived from Results on marshal and never stored.
type BatchResponse struct {
	Success bool               `json:"success"`
	Batch   bool               `json:"batch"`
	Results []BatchQueryResult `json:"results"`
}

// TotalQueries is the number of logical requests in the batch.
func (r BatchResponse) TotalQueries() int {
	return len(r.Results)
}

// SuccessfulQueries counts results flagged as successful.
func (r BatchResponse) SuccessfulQueries() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// FailedQueries counts results flagged as failed.
func (r BatchResponse) FailedQueries() int {
	return r.TotalQueries() - r.SuccessfulQueries()
}

type batchResponseJSON struct {
	Success           bool               `json:"success"`
	Batch             bool               `json:"batch"`
	Results           []BatchQueryResult `json:"results"`
	TotalQueries      int                `json:"total_queries"`
	SuccessfulQueries int                `json:"successful_queries"`
	FailedQueries     int                `json:"failed_queries"`
}

func (r BatchResponse) MarshalJSON() ([]byte, error) {
	results := r.Results
	if results == nil {
		results = []BatchQueryResult{}
	}
	return json.Marshal(batchResponseJSON{
		Success:           r.Success,
		Batch:             r.Batch,
		Results:           results,
		TotalQueries:      r.TotalQueries(),
		SuccessfulQueries: r.SuccessfulQueries(),
		FailedQueries:     r.FailedQueries(),
	})
}
