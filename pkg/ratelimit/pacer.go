package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Prometheus metrics for pacing and cooldowns.
var (
	pacerWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "anime_pacer_wait_seconds",
		Help:    "Time spent waiting for the next request slot",
		Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1},
	})

	throttlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anime_upstream_throttles_total",
		Help: "Total number of upstream 429 responses",
	})

	cooldownSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anime_cooldown_seconds_total",
		Help: "Total seconds spent suspended in throttle cooldowns",
	})
)

// Pacer spaces request starts at least one interval apart.
//
// It is a token bucket with burst 1: the first Wait returns immediately,
// every later Wait returns no earlier than one interval after the previous
// one returned. The spacing is measured start-to-start, so a slow response
// does not add to the interval.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewPacer creates a pacer for the given ceiling. A non-positive rate
// disables pacing.
func NewPacer(rps float64) *Pacer {
	interval := IntervalFor(rps)
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until the next request may start.
func (p *Pacer) Wait(ctx context.Context) error {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	pacerWaitSeconds.Observe(time.Since(start).Seconds())
	return nil
}

// Interval returns the configured minimum spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}
