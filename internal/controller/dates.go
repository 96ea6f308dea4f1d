package controller

import (
	"strings"
	"time"

	"analytics-query-service/internal/model"
	"analytics-query-service/internal/service"
)

const dateOnly = "2006-01-02"

// parseDateRange accepts YYYY-MM-DD or RFC3339. A date-only end is
// inclusive of that whole day.
func parseDateRange(start, end string) (model.DateRange, error) {
	from, _, err := parseDate("start_date", start)
	if err != nil {
		return model.DateRange{}, err
	}
	to, dayOnly, err := parseDate("end_date", end)
	if err != nil {
		return model.DateRange{}, err
	}
	if dayOnly {
		to = to.Add(24*time.Hour - time.Millisecond)
	}
	if to.Before(from) {
		return model.DateRange{}, &service.ValidationError{Message: "end_date must not be before start_date"}
	}
	return model.DateRange{From: from, To: to}, nil
}

func parseDate(field, raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, &service.ValidationError{Message: field + " is required"}
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, &service.ValidationError{Message: "invalid " + field}
	}
	return t.UTC(), false, nil
}
