package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type options struct {
	endpoint      string
	website       string
	days          int
	total         int
	rate          int
	workers       int
	repeatPercent int
}

func parseOptions() options {
	var o options
	flag.StringVar(&o.endpoint, "endpoint", "", "batch endpoint, e.g. http://localhost:8080/v1/batch (required)")
	flag.StringVar(&o.website, "website", "demo", "website id to query")
	flag.IntVar(&o.days, "days", 30, "query window in days")
	flag.IntVar(&o.total, "total", 1000, "number of batch requests")
	flag.IntVar(&o.rate, "rate", 50, "batch requests per second")
	flag.IntVar(&o.workers, "workers", 16, "concurrent senders")
	flag.IntVar(&o.repeatPercent, "repeat-percent", 0, "share of requests replaying an earlier body, for cache hits")
	flag.Parse()

	if o.endpoint == "" {
		flag.Usage()
		os.Exit(2)
	}
	o.rate = max(o.rate, 1)
	o.workers = max(o.workers, 1)
	o.repeatPercent = min(max(o.repeatPercent, 0), 100)
	return o
}

// recorder collects per-request latencies for the final report.
type recorder struct {
	failed    atomic.Uint64
	mu        sync.Mutex
	latencies []time.Duration
}

func (r *recorder) ok(d time.Duration) {
	r.mu.Lock()
	r.latencies = append(r.latencies, d)
	r.mu.Unlock()
}

func (r *recorder) report(elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sort.Slice(r.latencies, func(i, j int) bool { return r.latencies[i] < r.latencies[j] })
	pct := func(p float64) time.Duration {
		if len(r.latencies) == 0 {
			return 0
		}
		return r.latencies[int(p*float64(len(r.latencies)-1))]
	}
	log.Printf("done in %s: ok=%d failed=%d p50=%s p95=%s p99=%s",
		elapsed.Round(time.Millisecond), len(r.latencies), r.failed.Load(), pct(0.50), pct(0.95), pct(0.99))
}

func main() {
	opts := parseOptions()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: &http.Transport{MaxIdleConnsPerHost: opts.workers},
	}
	gen := newGenerator(opts, time.Now().UnixNano())
	rec := &recorder{}

	bodies := make(chan []byte)
	var wg sync.WaitGroup
	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for body := range bodies {
				start := time.Now()
				if err := post(ctx, client, opts.endpoint, body); err != nil {
					rec.failed.Add(1)
					continue
				}
				rec.ok(time.Since(start))
			}
		}()
	}

	log.Printf("sending %d batches to %s at %d/s with %d workers", opts.total, opts.endpoint, opts.rate, opts.workers)
	began := time.Now()
	tick := time.NewTicker(time.Second / time.Duration(opts.rate))
	defer tick.Stop()

send:
	for i := 0; i < opts.total; i++ {
		select {
		case <-ctx.Done():
			break send
		case <-tick.C:
			bodies <- gen.next()
		}
	}
	close(bodies)
	wg.Wait()

	rec.report(time.Since(began))
}

func post(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

var (
	parameters = []string{
		"summary_metrics", "events_by_date", "pages", "page_performance",
		"entry_pages", "exit_pages", "custom_events", "traffic", "devices",
		"geo", "errors",
	}
	filterValues = map[string][]string{
		"country": {"US", "DE", "FR", "BR"},
		"device":  {"desktop", "mobile", "tablet"},
		"browser": {"Chrome", "Safari", "Firefox"},
		"path":    {"/", "/pricing", "/signup"},
	}
	filterFields = []string{"country", "device", "browser", "path"}
)

// generator builds batch bodies. It is only used from the send loop.
type generator struct {
	opts    options
	rng     *rand.Rand
	history [][]byte
}

func newGenerator(opts options, seed int64) *generator {
	return &generator{opts: opts, rng: rand.New(rand.NewSource(seed))}
}

func (g *generator) next() []byte {
	if len(g.history) > 0 && g.rng.Intn(100) < g.opts.repeatPercent {
		return g.history[g.rng.Intn(len(g.history))]
	}
	body, _ := json.Marshal(g.batch())
	if len(g.history) < 1000 {
		g.history = append(g.history, body)
	}
	return body
}

func (g *generator) batch() map[string]any {
	end := time.Now().UTC()
	queries := make([]map[string]any, 1+g.rng.Intn(4))
	for i := range queries {
		params := make([]string, 1+g.rng.Intn(3))
		for j := range params {
			params[j] = parameters[g.rng.Intn(len(parameters))]
		}
		q := map[string]any{
			"id":         fmt.Sprintf("q%d", i+1),
			"parameters": params,
			"limit":      10 + g.rng.Intn(90),
		}
		if g.rng.Intn(2) == 0 {
			field := filterFields[g.rng.Intn(len(filterFields))]
			values := filterValues[field]
			q["filters"] = []map[string]any{{
				"field":    field,
				"operator": "eq",
				"value":    values[g.rng.Intn(len(values))],
			}}
		}
		queries[i] = q
	}
	return map[string]any{
		"website_id": g.opts.website,
		"start_date": end.AddDate(0, 0, -g.opts.days).Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
		"queries":    queries,
	}
}
