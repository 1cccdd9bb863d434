package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

var (
	// OperationsTotal tracks store operations by backend, operation and result.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anime_store_operations_total",
			Help: "Total store operations",
		},
		[]string{"backend", "operation", "result"}, // result: "ok", "error"
	)

	// OperationDuration tracks store latency.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anime_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// RecordsInserted tracks records written by BulkInsert.
	RecordsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anime_store_records_inserted_total",
			Help: "Total records written during bulk insert",
		},
		[]string{"backend"},
	)

	// RecordsSkipped tracks records rejected by BulkInsert (duplicate id).
	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anime_store_records_skipped_total",
			Help: "Total records skipped during bulk insert",
		},
		[]string{"backend"},
	)
)

func observe(backend, operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	OperationsTotal.WithLabelValues(backend, operation, result).Inc()
	OperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

func countInsert(backend string, stats catalog.InsertStats) {
	RecordsInserted.WithLabelValues(backend).Add(float64(stats.Inserted))
	RecordsSkipped.WithLabelValues(backend).Add(float64(stats.Skipped))
}
