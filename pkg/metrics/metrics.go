// Package metrics exposes the Prometheus registry the catalog service
// registers into. Metrics are defined with promauto in the packages that
// own them (jikan, ratelimit, pagination, store, service, server).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package's promauto metrics land in.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Upstream (pkg/jikan):
//   - anime_upstream_requests_total{status} (Counter)
//   - anime_upstream_request_duration_seconds (Histogram)
//   - anime_upstream_errors_total{class} (Counter): rate_limit, client, server, network, decode
//
// Rate limiting (pkg/ratelimit):
//   - anime_pacer_wait_seconds (Histogram): time spent waiting for a request slot
//   - anime_upstream_throttles_total (Counter): 429 responses received
//   - anime_cooldown_seconds_total (Counter): time suspended after throttles
//
// Pager (pkg/pagination):
//   - anime_pager_pages_fetched_total (Counter)
//   - anime_pager_runs_total{outcome} (Counter): completed, failed
//   - anime_pager_run_duration_seconds{outcome} (Histogram)
//
// Store (pkg/store):
//   - anime_store_operations_total{backend,operation,result} (Counter)
//   - anime_store_operation_duration_seconds{backend,operation} (Histogram)
//   - anime_store_records_inserted_total{backend} (Counter)
//   - anime_store_records_skipped_total{backend} (Counter)
//
// Catalog service (internal/service):
//   - anime_catalog_requests_total{outcome} (Counter): hit, miss, error
//   - anime_catalog_records (Gauge)
//
// HTTP (internal/server):
//   - anime_http_requests_total{method,path,status} (Counter)
//   - anime_http_request_duration_seconds{method,path} (Histogram)
//
// Example Prometheus Queries:
//
//   # Cache hit ratio
//   sum(rate(anime_catalog_requests_total{outcome="hit"}[5m])) /
//   sum(rate(anime_catalog_requests_total[5m]))
//
//   # Throttles per hour during a fetch
//   increase(anime_upstream_throttles_total[1h])
//
//   # Fetch progress
//   anime_pager_pages_fetched_total
