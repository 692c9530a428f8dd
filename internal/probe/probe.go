// Package probe performs one HTTP health check against a monitored site.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/sync/semaphore"

	"webmon/internal/models"
)

// Sentinel status codes recorded when the probe never received a real
// HTTP response.
const (
	// StatusTimeout is recorded when the total probe budget elapsed,
	// including time spent waiting for a concurrency slot.
	StatusTimeout = 598
	// StatusTransportError is recorded for every other transport-level
	// failure (connection refused, DNS, TLS, broken body read).
	StatusTransportError = 555
)

// DefaultTimeout is the total per-probe budget: slot wait, connect, and
// read together.
const DefaultTimeout = 15 * time.Second

// DefaultLimiterCapacity bounds simultaneous in-flight probes system-wide.
const DefaultLimiterCapacity = 100

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Referer":         "https://www.google.com",
	"Connection":      "keep-alive",
}

// Prober issues single GET probes, bounded by a shared weighted
// semaphore. Safe for concurrent use.
type Prober struct {
	client  *http.Client
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Prober sharing sem across all callers. A non-positive
// timeout falls back to DefaultTimeout; pass nil logger to use the default.
func New(sem *semaphore.Weighted, timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		// The per-probe deadline lives on the context so it covers
		// the slot wait as well as the request itself.
		client:  &http.Client{},
		sem:     sem,
		timeout: timeout,
		logger:  logger,
	}
}

// Probe runs one health check of site and returns the result. It never
// returns an error: transport failures become data on the Healthcheck.
func (p *Prober) Probe(ctx context.Context, site models.Site) models.Healthcheck {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	check := models.Healthcheck{
		ID:          models.NotPersisted,
		WebsiteID:   site.ID,
		MatchStatus: models.MatchStatusNA,
	}

	p.logger.Debug("waiting for probe slot", "url", site.URL)
	start := time.Now()
	check.RequestTimestamp = roundMillis(epochSeconds(start))
	if err := p.sem.Acquire(ctx, 1); err != nil {
		check.ResponseTime = roundMillis(time.Since(start).Seconds())
		check.HTTPStatusCode = StatusTimeout
		check.ErrorMessage = models.TruncateError(errText(err))
		return check
	}
	p.logger.Debug("probe slot acquired", "url", site.URL)

	released := false
	release := func() {
		if !released {
			released = true
			p.sem.Release(1)
		}
	}
	defer release()

	start = time.Now()
	check.RequestTimestamp = roundMillis(epochSeconds(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.URL, nil)
	if err != nil {
		check.ResponseTime = roundMillis(time.Since(start).Seconds())
		check.HTTPStatusCode = StatusTransportError
		check.ErrorMessage = models.TruncateError(errText(err))
		return check
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		release()
		check.ResponseTime = roundMillis(time.Since(start).Seconds())
		check.HTTPStatusCode = classify(err)
		check.ErrorMessage = models.TruncateError(errText(err))
		return check
	}

	check.HTTPStatusCode = resp.StatusCode

	// The body is read exactly once, while the slot is still held, and
	// reused for pattern matching after the slot is released.
	var body []byte
	var readErr error
	if site.Regex != "" {
		body, readErr = io.ReadAll(resp.Body)
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	resp.Body.Close()
	release()
	check.ResponseTime = roundMillis(time.Since(start).Seconds())

	if readErr != nil {
		check.HTTPStatusCode = classify(readErr)
		check.MatchStatus = models.MatchStatusFail
		check.ErrorMessage = models.TruncateError(errText(readErr))
		return check
	}

	if site.Regex != "" {
		re, err := regexp.Compile(site.Regex)
		switch {
		case err != nil:
			check.MatchStatus = models.MatchStatusFail
			check.ErrorMessage = models.TruncateError(errText(err))
		case re.Match(body):
			check.MatchStatus = models.MatchStatusOK
		default:
			check.MatchStatus = models.MatchStatusFail
		}
	}

	return check
}

// classify maps a transport error to its sentinel status code.
func classify(err error) int {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return StatusTimeout
	}
	return StatusTransportError
}

// errText renders err as "type: message" for the persisted error field.
func errText(err error) string {
	return fmt.Sprintf("%T: %v", err, err)
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// roundMillis rounds to 3 decimal places.
func roundMillis(v float64) float64 {
	return math.Round(v*1000) / 1000
}
