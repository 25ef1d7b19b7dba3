// Package netmon records outgoing HTTP requests and reports failed or slow
// ones through the application logger.
package netmon

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Defaults for the request log.
const (
	DefaultMaxRecords    = 50
	DefaultSlowThreshold = time.Second
)

// sensitiveParams are query parameters masked before a URL is recorded.
var sensitiveParams = []string{"token", "access_token", "refresh_token", "apikey", "api_key", "key"}

// Record is one observed request.
type Record struct {
	ID         string
	Method     string
	URL        string
	Start      time.Time
	Duration   time.Duration
	Status     int
	StatusText string

	// Size is the Content-Length of the response, or -1 if unknown.
	Size int64
	Err  error
}

// Failed reports whether the request errored or returned a 4xx/5xx status.
func (r Record) Failed() bool {
	if r.Status != 0 {
		return r.Status >= 400
	}
	return r.Err != nil
}

// Monitor keeps a bounded log of recent requests. It records nothing until
// Init is called and stops again after Shutdown.
type Monitor struct {
	logger *zap.Logger
	clock  clockwork.Clock
	slow   time.Duration
	max    int

	mu      sync.Mutex
	enabled bool
	records []Record
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSlowThreshold sets the duration above which requests are reported as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.slow = d
		}
	}
}

// WithMaxRecords bounds the request log.
func WithMaxRecords(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.max = n
		}
	}
}

// WithClock sets the clock used to time requests.
func WithClock(c clockwork.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// New creates a disabled Monitor.
func New(logger *zap.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		logger: logger.Named("netmon"),
		clock:  clockwork.NewRealClock(),
		slow:   DefaultSlowThreshold,
		max:    DefaultMaxRecords,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init starts recording.
func (m *Monitor) Init() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

// Shutdown stops recording, logs a summary and drops the request log.
func (m *Monitor) Shutdown() {
	m.mu.Lock()
	records := m.records
	m.records = nil
	m.enabled = false
	m.mu.Unlock()

	var failed, slow int
	for _, r := range records {
		if r.Failed() {
			failed++
		} else if r.Duration > m.slow {
			slow++
		}
	}
	m.logger.Debug("network monitor stopped",
		zap.Int("requests", len(records)),
		zap.Int("failed", failed),
		zap.Int("slow", slow),
	)
}

// Enabled reports whether the monitor is recording.
func (m *Monitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Records returns the recorded requests, oldest first.
func (m *Monitor) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// Client returns an HTTP client whose transport reports to m.
func (m *Monitor) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: m.Transport(nil),
	}
}

// Transport wraps base (http.DefaultTransport when nil) so every round trip
// is recorded.
func (m *Monitor) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, monitor: m}
}

type transport struct {
	base    http.RoundTripper
	monitor *Monitor
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.monitor.Enabled() {
		return t.base.RoundTrip(req)
	}

	start := t.monitor.clock.Now()
	resp, err := t.base.RoundTrip(req)

	rec := Record{
		ID:       uuid.New().String(),
		Method:   strings.ToUpper(req.Method),
		URL:      SanitizeURL(req.URL.String()),
		Start:    start,
		Duration: t.monitor.clock.Now().Sub(start),
		Size:     -1,
		Err:      err,
	}
	if resp != nil {
		rec.Status = resp.StatusCode
		rec.StatusText = http.StatusText(resp.StatusCode)
		rec.Size = resp.ContentLength
	}
	t.monitor.record(rec)

	return resp, err
}

func (m *Monitor) record(r Record) {
	m.mu.Lock()
	m.records = append(m.records, r)
	if over := len(m.records) - m.max; over > 0 {
		m.records = append([]Record(nil), m.records[over:]...)
	}
	m.mu.Unlock()

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("url", r.URL),
		zap.Int("status", r.Status),
		zap.Duration("duration", r.Duration),
	}
	if r.Size >= 0 {
		fields = append(fields, zap.Int64("size", r.Size))
	}

	switch {
	case r.Failed():
		if r.Err != nil {
			fields = append(fields, zap.Error(r.Err))
		}
		m.logger.Error(fmt.Sprintf("API error: %s %s (%d)", r.Method, r.URL, r.Status), fields...)
	case r.Duration > m.slow:
		m.logger.Warn(fmt.Sprintf("slow API request: %s %s (%dms)", r.Method, r.URL, r.Duration.Milliseconds()), fields...)
	default:
		m.logger.Debug("request", fields...)
	}
}

// SanitizeURL masks credentials in raw: user info is dropped, sensitive
// query parameters are replaced by "***" and analytics URLs lose their query.
// Unparseable input is returned unchanged.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.User = nil
	if strings.Contains(u.Path, "analytics") {
		u.RawQuery = ""
		return u.String()
	}

	q := u.Query()
	changed := false
	for _, p := range sensitiveParams {
		if q.Has(p) {
			q.Set(p, "***")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
