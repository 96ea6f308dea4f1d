package model

import (
	"time"
)

// Event is a single tracked row in the events table. The service only reads
// these; the shape exists so the seed command and integration tests can write
// fixture data.
type Event struct {
	ID               string
	ClientID         string
	EventName        string
	AnonymousID      string
	SessionID        string
	Time             time.Time
	Path             string
	Title            string
	Referrer         string
	UTMSource        string
	UTMMedium        string
	UTMCampaign      string
	BrowserName      string
	OSName           string
	DeviceType       string
	ScreenResolution string
	Country          string
	Region           string
	City             string
	TimeOnPage       float64
	IsBounce         bool
	LoadTime         float64
	TTFB             float64
	FCP              float64
	LCP              float64
	CLS              float64
	ErrorMessage     string
	ErrorType        string
	ErrorStack       string
	Filename         string
	Lineno           int32
	Properties       map[string]interface{}
}

// Event names with special meaning to the query builders.
const (
	EventPageView = "page_view"
	EventError    = "error"
)
