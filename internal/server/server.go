// Package server exposes the catalog over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/service"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/metrics"
)

// FetchFailedMessage is the body of every failed /fetch-anime response.
// Browser clients display it verbatim.
const FetchFailedMessage = "Failed to fetch or save anime data."

// Catalog is the service the handlers serve from.
type Catalog interface {
	Catalog(ctx context.Context) (service.Result, error)
	Status() service.Status
}

// Pinger reports store reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds handler dependencies.
type Deps struct {
	Catalog        Catalog
	Store          Pinger
	MetricsEnabled bool
	Logger         *zerolog.Logger
}

// Server holds the route handlers.
type Server struct {
	catalog Catalog
	store   Pinger
	logger  zerolog.Logger
}

// NewHandler builds the router with middleware and routes.
func NewHandler(deps Deps) http.Handler {
	logger := log.With().Str("component", "http").Logger()
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	s := &Server{
		catalog: deps.Catalog,
		store:   deps.Store,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(AccessLog(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(Metrics)

	if deps.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Mount("/", s.Routes())
	return r
}

// Routes returns the application routes without middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.health)
	r.Get("/readyz", s.ready)
	r.Get("/fetch-anime", s.fetchAnime)
	r.Get("/fetch-anime/status", s.status)

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed")
		http.Error(w, "store unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) fetchAnime(w http.ResponseWriter, r *http.Request) {
	res, err := s.catalog.Catalog(r.Context())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("Error fetching or saving anime data")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(FetchFailedMessage))
		return
	}

	records := res.Records
	if records == nil {
		records = []catalog.Record{}
	}
	w.Header().Set("X-Catalog-Source", string(res.Source))
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
