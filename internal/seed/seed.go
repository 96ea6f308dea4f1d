package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"analytics-query-service/internal/model"
	"analytics-query-service/internal/repository"
)

// Options controls synthetic data generation.
type Options struct {
	WebsiteID string
	Sessions  int
	From      time.Time
	To        time.Time
	// Seed makes generation reproducible. Zero picks a time based seed.
	Seed int64
}

var (
	browsers    = []string{"Chrome", "Firefox", "Safari", "Edge"}
	systems     = []string{"Windows", "macOS", "Linux", "iOS", "Android"}
	devices     = []string{"desktop", "mobile", "tablet"}
	resolutions = []string{"1920x1080", "1440x900", "390x844", "768x1024"}
	countries   = []struct{ country, region, city string }{
		{"DE", "Bavaria", "Munich"},
		{"US", "California", "San Francisco"},
		{"FR", "Ile-de-France", "Paris"},
		{"BR", "Sao Paulo", "Sao Paulo"},
	}
	referrers = []string{"", "https://www.google.com/", "https://news.ycombinator.com/", "https://twitter.com/"}
	sources   = []string{"", "newsletter", "google", "twitter"}
	failures  = []struct{ kind, message, file string }{
		{"TypeError", "Cannot read properties of undefined (reading 'id')", "app.js"},
		{"ReferenceError", "gtag is not defined", "analytics.js"},
		{"NetworkError", "Failed to fetch", "api.js"},
	}
)

// returningShare is the fraction of sessions opened by an earlier visitor.
const returningShare = 0.3

// Generate builds events for opts.Sessions visitor sessions, some of them
// opened by returning visitors. Each session starts on the landing page and
// walks a pricing, signup and purchase funnel with decreasing probability, so
// step counts are non-increasing.
func Generate(opts Options) []model.Event {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	span := opts.To.Sub(opts.From)
	if span <= 0 {
		span = 24 * time.Hour
	}

	events := make([]model.Event, 0, opts.Sessions*4)
	var visitors []string
	for i := 0; i < opts.Sessions; i++ {
		start := opts.From.Add(time.Duration(rng.Int63n(int64(span))))
		var visitor string
		if len(visitors) > 0 && rng.Float64() < returningShare {
			visitor = visitors[rng.Intn(len(visitors))]
		} else {
			visitor = newID(rng)
			visitors = append(visitors, visitor)
		}
		events = append(events, session(rng, opts.WebsiteID, visitor, start)...)
	}
	return events
}

func session(rng *rand.Rand, websiteID, visitor string, start time.Time) []model.Event {
	sessionID := newID(rng)
	geo := countries[rng.Intn(len(countries))]
	base := model.Event{
		ClientID:         websiteID,
		AnonymousID:      visitor,
		SessionID:        sessionID,
		Referrer:         referrers[rng.Intn(len(referrers))],
		UTMSource:        sources[rng.Intn(len(sources))],
		BrowserName:      browsers[rng.Intn(len(browsers))],
		OSName:           systems[rng.Intn(len(systems))],
		DeviceType:       devices[rng.Intn(len(devices))],
		ScreenResolution: resolutions[rng.Intn(len(resolutions))],
		Country:          geo.country,
		Region:           geo.region,
		City:             geo.city,
	}
	if base.UTMSource != "" {
		base.UTMMedium = "referral"
		base.UTMCampaign = "launch"
	}

	journey := []string{"/"}
	if rng.Float64() < 0.6 {
		journey = append(journey, "/pricing")
		if rng.Float64() < 0.5 {
			journey = append(journey, "/signup")
		}
	}

	var out []model.Event
	at := start
	for i, path := range journey {
		ev := base
		ev.ID = newID(rng)
		ev.EventName = model.EventPageView
		ev.Time = at
		ev.Path = path
		ev.Title = titleFor(path)
		ev.TimeOnPage = float64(5 + rng.Intn(120))
		ev.IsBounce = len(journey) == 1
		ev.LoadTime = 200 + rng.Float64()*1800
		ev.TTFB = 20 + rng.Float64()*300
		ev.FCP = 100 + rng.Float64()*900
		ev.LCP = ev.FCP + rng.Float64()*1500
		ev.CLS = rng.Float64() * 0.3
		if i > 0 {
			ev.Referrer = ""
		}
		out = append(out, ev)
		at = at.Add(time.Duration(ev.TimeOnPage) * time.Second)
	}

	if journey[len(journey)-1] == "/signup" && rng.Float64() < 0.5 {
		ev := base
		ev.ID = newID(rng)
		ev.EventName = "signup"
		ev.Time = at
		ev.Path = "/signup"
		ev.Properties = map[string]interface{}{"plan": "trial"}
		out = append(out, ev)
		at = at.Add(time.Duration(30+rng.Intn(300)) * time.Second)

		if rng.Float64() < 0.4 {
			ev := base
			ev.ID = newID(rng)
			ev.EventName = "purchase"
			ev.Time = at
			ev.Path = "/checkout"
			ev.Properties = map[string]interface{}{"plan": "pro", "amount": 49}
			out = append(out, ev)
		}
	}

	if rng.Float64() < 0.1 {
		e := failures[rng.Intn(len(failures))]
		ev := base
		ev.ID = newID(rng)
		ev.EventName = model.EventError
		ev.Time = start.Add(time.Duration(rng.Intn(10)) * time.Second)
		ev.Path = journey[0]
		ev.ErrorType = e.kind
		ev.ErrorMessage = e.message
		ev.ErrorStack = fmt.Sprintf("%s: %s\n    at %s:%d", e.kind, e.message, e.file, 10+rng.Intn(200))
		ev.Filename = e.file
		ev.Lineno = int32(10 + rng.Intn(200))
		out = append(out, ev)
	}

	return out
}

func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func titleFor(path string) string {
	switch path {
	case "/":
		return "Home"
	case "/pricing":
		return "Pricing"
	case "/signup":
		return "Sign up"
	default:
		return path
	}
}

// Run generates events for opts and writes them in batches of batchSize.
// It returns the number of events written.
func Run(ctx context.Context, writer repository.EventWriter, opts Options, batchSize int, logger *zap.Logger) (int, error) {
	if opts.WebsiteID == "" {
		return 0, fmt.Errorf("website id is required")
	}
	if batchSize <= 0 {
		batchSize = 10_000
	}

	events := Generate(opts)
	written := 0
	for start := 0; start < len(events); start += batchSize {
		end := min(start+batchSize, len(events))
		if err := writer.CreateBatch(ctx, events[start:end]); err != nil {
			return written, fmt.Errorf("write batch: %w", err)
		}
		written = end
		logger.Debug("seed batch written", zap.Int("events", end-start), zap.Int("total", written))
	}
	return written, nil
}
