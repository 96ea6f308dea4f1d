package builders

import "analytics-query-service/internal/model"

const (
	pageViewPredicate = "event_name = '" + model.EventPageView + "'"
	errorPredicate    = "event_name = '" + model.EventError + "'"
)

// visitFields is the filter allow-list shared by visit level families.
// Keys are the names callers send, values the columns they map to.
var visitFields = map[string]string{
	"path":              "path",
	"title":             "title",
	"referrer":          "referrer",
	"utm_source":        "utm_source",
	"utm_medium":        "utm_medium",
	"utm_campaign":      "utm_campaign",
	"browser":           "browser_name",
	"browser_name":      "browser_name",
	"os":                "os_name",
	"os_name":           "os_name",
	"device":            "device_type",
	"device_type":       "device_type",
	"screen_resolution": "screen_resolution",
	"country":           "country",
	"region":            "region",
	"city":              "city",
}

var errorFields = withFields(visitFields, map[string]string{
	"error_type":    "error_type",
	"error_message": "error_message",
	"filename":      "filename",
})

var eventFields = withFields(visitFields, map[string]string{
	"event_name": "event_name",
})

func withFields(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
