package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/ratelimit"
)

// Prometheus metrics for pager runs.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anime_pager_pages_fetched_total",
		Help: "Total pages fetched successfully",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anime_pager_runs_total",
		Help: "Total pager runs by outcome",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anime_pager_run_duration_seconds",
		Help:    "Pager run duration by outcome",
		Buckets: []float64{1, 10, 60, 300, 600, 1200, 3600},
	}, []string{"outcome"})
)

// DefaultTotalPages is the size of the popularity listing when this bound
// was last checked against the upstream.
const DefaultTotalPages = 1139

// Config holds pager configuration.
type Config struct {
	// TotalPages is the last page fetched (inclusive).
	TotalPages int

	// RequestsPerSecond is the request ceiling.
	RequestsPerSecond float64

	// Cooldown is the suspension applied after a throttled response.
	Cooldown time.Duration

	// StopOnEmptyPage ends the run at the first page with no entries
	// instead of walking on to TotalPages.
	StopOnEmptyPage bool

	// ProgressEvery controls how often progress is logged at info level.
	ProgressEvery int
}

// DefaultConfig returns the configuration for the public API.
func DefaultConfig() Config {
	return Config{
		TotalPages:        DefaultTotalPages,
		RequestsPerSecond: ratelimit.DefaultRequestsPerSecond,
		Cooldown:          ratelimit.DefaultCooldown,
		StopOnEmptyPage:   false,
		ProgressEvery:     50,
	}
}

// PageFetcher fetches a single listing page.
type PageFetcher interface {
	// FetchPage returns the normalized records of one page. A throttled
	// response must wrap catalog.ErrThrottled.
	FetchPage(ctx context.Context, page int) ([]catalog.Record, error)
}

// PageError reports the page a run failed on.
type PageError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageError) Unwrap() error {
	return e.Err
}

// EventKind identifies a progress event.
type EventKind string

const (
	// EventPageFetched is reported after each successful page.
	EventPageFetched EventKind = "page_fetched"

	// EventThrottled is reported before each cooldown.
	EventThrottled EventKind = "throttled"
)

// Event is a progress notification from a running pager.
type Event struct {
	Kind       EventKind
	RunID      string
	Page       int
	TotalPages int
	// Records is the running total of records accumulated so far.
	Records  int
	Cooldown time.Duration
}

// Reporter receives progress events. It is called synchronously from the
// pager goroutine and must not block.
type Reporter func(Event)

// Option configures a Pager.
type Option func(*Pager)

// WithSleep replaces the cooldown sleep (tests).
func WithSleep(sleep ratelimit.SleepFunc) Option {
	return func(p *Pager) { p.sleep = sleep }
}

// WithLogger sets the pager logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pager) { p.logger = logger }
}

// Pager drives a PageFetcher across the configured page range.
type Pager struct {
	fetcher PageFetcher
	config  Config
	pacer   *ratelimit.Pacer
	sleep   ratelimit.SleepFunc
	logger  zerolog.Logger
}

// NewPager creates a pager. Non-positive settings fall back to defaults.
func NewPager(fetcher PageFetcher, config Config, opts ...Option) *Pager {
	defaults := DefaultConfig()
	if config.TotalPages <= 0 {
		config.TotalPages = defaults.TotalPages
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.Cooldown <= 0 {
		config.Cooldown = defaults.Cooldown
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = defaults.ProgressEvery
	}

	p := &Pager{
		fetcher: fetcher,
		config:  config,
		pacer:   ratelimit.NewPacer(config.RequestsPerSecond),
		sleep:   ratelimit.Sleep,
		logger:  log.With().Str("component", "pager").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective configuration.
func (p *Pager) Config() Config {
	return p.config
}

// FetchAll fetches pages 1..TotalPages and returns their records in arrival
// order. On a non-throttling error it returns nil records and a *PageError.
func (p *Pager) FetchAll(ctx context.Context, report Reporter) ([]catalog.Record, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()
	cooldown := ratelimit.NewCooldown(p.config.Cooldown, p.sleep, logger)
	total := p.config.TotalPages

	emit := func(ev Event) {
		if report != nil {
			ev.RunID = runID
			ev.TotalPages = total
			report(ev)
		}
	}

	fail := func(page int, err error) ([]catalog.Record, error) {
		logger.Error().
			Err(err).
			Int("page", page).
			Int("total_pages", total).
			Dur("duration", time.Since(start)).
			Msg("Pager run aborted")
		runsTotal.WithLabelValues("failed").Inc()
		runDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		return nil, &PageError{Page: page, Err: err}
	}

	logger.Info().
		Int("total_pages", total).
		Float64("requests_per_second", p.config.RequestsPerSecond).
		Dur("cooldown", p.config.Cooldown).
		Msg("Starting sequential page fetch")

	var records []catalog.Record
	page := 1
	for page <= total {
		if err := p.pacer.Wait(ctx); err != nil {
			return fail(page, err)
		}

		batch, err := p.fetcher.FetchPage(ctx, page)
		if err != nil {
			if errors.Is(err, catalog.ErrThrottled) {
				emit(Event{Kind: EventThrottled, Page: page, Records: len(records), Cooldown: cooldown.Duration()})
				if err := cooldown.Wait(ctx, page); err != nil {
					return fail(page, err)
				}
				continue
			}
			return fail(page, err)
		}

		records = append(records, batch...)
		pagesFetchedTotal.Inc()
		emit(Event{Kind: EventPageFetched, Page: page, Records: len(records)})

		if page%p.config.ProgressEvery == 0 {
			logger.Info().
				Int("fetched", page).
				Int("total", total).
				Int("records", len(records)).
				Float64("progress_pct", float64(page)/float64(total)*100).
				Msg("Fetch progress")
		} else {
			logger.Debug().Int("page", page).Int("entries", len(batch)).Msg("Fetched page")
		}

		if len(batch) == 0 && p.config.StopOnEmptyPage {
			logger.Info().Int("page", page).Msg("Empty page, stopping early")
			break
		}
		page++
	}

	runsTotal.WithLabelValues("completed").Inc()
	runDuration.WithLabelValues("completed").Observe(time.Since(start).Seconds())
	logger.Info().
		Int("records", len(records)).
		Int("throttles", cooldown.State().Throttles).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return records, nil
}
