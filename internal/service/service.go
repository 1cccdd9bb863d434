// Package service decides, per request, whether the catalog is served from
// the store or fetched from upstream and persisted first.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/pagination"
)

var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anime_catalog_requests_total",
		Help: "Total catalog requests by outcome",
	}, []string{"outcome"}) // "hit", "miss", "error"

	catalogRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anime_catalog_records",
		Help: "Records in the most recently served catalog",
	})
)

// Source tells where a Result came from.
type Source string

const (
	SourceStore    Source = "store"
	SourceUpstream Source = "upstream"
)

// Result is a served catalog.
type Result struct {
	Records []catalog.Record
	Source  Source
}

// Fetcher runs one full upstream pagination. *pagination.Pager implements it.
type Fetcher interface {
	FetchAll(ctx context.Context, report pagination.Reporter) ([]catalog.Record, error)
}

// Service serves the catalog, populating the store on a cold cache.
type Service struct {
	store   catalog.Store
	fetcher Fetcher
	logger  zerolog.Logger

	group singleflight.Group

	// runs are cancelled by Close, not by the request that triggered them.
	runCtx    context.Context
	runCancel context.CancelFunc

	mu     sync.RWMutex
	status Status
}

// New creates a service.
func New(store catalog.Store, fetcher Fetcher) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:     store,
		fetcher:   fetcher,
		logger:    log.With().Str("component", "catalog-service").Logger(),
		runCtx:    ctx,
		runCancel: cancel,
		status:    Status{State: StateIdle},
	}
}

// Close cancels any in-flight upstream run.
func (s *Service) Close() {
	s.runCancel()
}

// Catalog returns the full catalog. A populated store is returned verbatim
// without contacting upstream. An empty store triggers a full fetch, a bulk
// insert and returns the fetched records. Concurrent cold-cache callers
// share one fetch.
func (s *Service) Catalog(ctx context.Context) (Result, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		catalogRequestsTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("count stored records: %w", err)
	}

	if n > 0 {
		return s.serveStored(ctx)
	}

	catalogRequestsTotal.WithLabelValues("miss").Inc()
	ch := s.group.DoChan("catalog", func() (any, error) {
		return s.populate(ctx)
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		if res.Shared {
			s.logger.Debug().Msg("Joined in-flight catalog fetch")
		}
		return res.Val.(Result), nil
	}
}

func (s *Service) serveStored(ctx context.Context) (Result, error) {
	res, err := s.readStored(ctx)
	if err != nil {
		catalogRequestsTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}
	catalogRequestsTotal.WithLabelValues("hit").Inc()
	return res, nil
}

// readStored returns the stored catalog without touching request metrics.
func (s *Service) readStored(ctx context.Context) (Result, error) {
	records, err := s.store.FindAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read stored records: %w", err)
	}

	catalogRecords.Set(float64(len(records)))
	s.update(func(st *Status) {
		st.State = StateHit
		st.Records = len(records)
	})
	return Result{Records: records, Source: SourceStore}, nil
}

// populate runs on a context that keeps the caller's values but not its
// cancellation.
func (s *Service) populate(reqCtx context.Context) (Result, error) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(reqCtx))
	stop := context.AfterFunc(s.runCtx, cancel)
	defer stop()
	defer cancel()

	// Another run may have filled the store between Count and DoChan.
	// The request is already counted as a miss.
	n, err := s.store.Count(ctx)
	if err != nil {
		return Result{}, s.fail(fmt.Errorf("count stored records: %w", err))
	}
	if n > 0 {
		res, err := s.readStored(ctx)
		if err != nil {
			return Result{}, s.fail(err)
		}
		return res, nil
	}

	start := time.Now()
	s.update(func(st *Status) {
		*st = Status{State: StateFetching, StartedAt: start}
	})
	s.logger.Info().Msg("Store is empty, fetching catalog from upstream")

	records, err := s.fetcher.FetchAll(ctx, s.report)
	if err != nil {
		return Result{}, s.fail(err)
	}

	stats, err := s.store.BulkInsert(ctx, records)
	if err != nil {
		return Result{}, s.fail(fmt.Errorf("persist catalog: %w", err))
	}

	finished := time.Now()
	s.update(func(st *Status) {
		st.State = StatePersisted
		st.Records = len(records)
		st.FinishedAt = finished
	})
	catalogRecords.Set(float64(len(records)))

	s.logger.Info().
		Int("records", len(records)).
		Int("inserted", stats.Inserted).
		Int("skipped", stats.Skipped).
		Dur("duration", finished.Sub(start)).
		Msg("Catalog fetched and persisted")

	return Result{Records: records, Source: SourceUpstream}, nil
}

func (s *Service) fail(err error) error {
	catalogRequestsTotal.WithLabelValues("error").Inc()
	s.update(func(st *Status) {
		st.State = StateFailed
		st.LastError = err.Error()
		st.FinishedAt = time.Now()
	})
	s.logger.Error().Err(err).Msg("Catalog fetch failed")
	return err
}

func (s *Service) report(ev pagination.Event) {
	s.update(func(st *Status) {
		st.RunID = ev.RunID
		st.TotalPages = ev.TotalPages
		st.Records = ev.Records
		switch ev.Kind {
		case pagination.EventPageFetched:
			st.PagesFetched = ev.Page
		case pagination.EventThrottled:
			now := time.Now()
			until := now.Add(ev.Cooldown)
			st.Throttles++
			st.LastThrottleAt = &now
			st.CooldownUntil = &until
		}
	})
}

func (s *Service) update(fn func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

// Status returns a snapshot of the most recent catalog activity.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
