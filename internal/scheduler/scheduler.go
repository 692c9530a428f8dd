// Package scheduler drives one independent repeating check loop per site,
// bounded system-wide by the prober's shared limiter.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"webmon/internal/models"
)

// Infinite is the check budget that keeps every site loop running until
// the process is cancelled.
const Infinite = -1

// Prober performs one health check of a site.
type Prober interface {
	Probe(ctx context.Context, site models.Site) models.Healthcheck
}

// ResultSink persists probe results. Implementations retry transient
// failures internally; an error returned here is treated as fatal.
type ResultSink interface {
	InsertHealthchecks(ctx context.Context, checks []models.Healthcheck) error
}

// Scheduler owns the full set of per-site loops.
type Scheduler struct {
	sites  []models.Site
	prober Prober
	sink   ResultSink
	budget int
	logger *slog.Logger
}

// New creates a Scheduler checking each site budget times (Infinite for
// unbounded). Pass nil logger to use the default.
func New(sites []models.Site, prober Prober, sink ResultSink, budget int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sites:  sites,
		prober: prober,
		sink:   sink,
		budget: budget,
		logger: logger,
	}
}

// Run spawns one goroutine per site and blocks until every loop has
// exhausted its budget or ctx is cancelled. A probe failure only affects
// its own site; a persistence failure (retries already exhausted by the
// sink) cancels every loop and is returned.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, site := range s.sites {
		site := site
		g.Go(func() error {
			return s.runSite(ctx, site)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runSite(ctx context.Context, site models.Site) error {
	remaining := s.budget
	for remaining != 0 {
		// The interval is slept before every probe, including the
		// first one.
		if err := sleep(ctx, time.Duration(site.IntervalSeconds)*time.Second); err != nil {
			return err
		}

		check := s.prober.Probe(ctx, site)
		s.logCheck(site, check)

		if err := s.sink.InsertHealthchecks(ctx, []models.Healthcheck{check}); err != nil {
			s.logger.Error("persisting healthcheck failed", "url", site.URL, "error", err)
			return err
		}
		s.logger.Debug("healthcheck persisted", "url", site.URL, "remaining", remaining)

		if remaining > 0 {
			remaining--
		}
	}
	return nil
}

func (s *Scheduler) logCheck(site models.Site, check models.Healthcheck) {
	attrs := []any{
		"url", site.URL,
		"status", check.HTTPStatusCode,
		"response_time", check.ResponseTime,
		"match", check.MatchStatus.String(),
	}
	if check.ErrorMessage != "" {
		attrs = append(attrs, "error", check.ErrorMessage)
	}
	if check.HTTPStatusCode >= 300 {
		s.logger.Error("check result", attrs...)
	} else {
		s.logger.Info("check result", attrs...)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
