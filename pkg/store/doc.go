// Package store provides the document stores the catalog is cached in.
//
// Every backend implements catalog.Store with the same contract: records are
// identified by their upstream id, BulkInsert is best-effort (a duplicate id
// is skipped, not fatal) and FindAll returns records in insertion order.
//
// # Backends
//
// The backend is chosen from the connection string scheme:
//
//   - mongodb://, mongodb+srv://  MongoDB collection, one document per record
//   - redis://, rediss://         Redis hash of JSON documents plus an order list
//   - postgres://, postgresql://  PostgreSQL table with a JSONB document column
//   - memory://                   process-local, for development and tests
//
// # Basic Usage
//
//	st, err := store.Open(ctx, os.Getenv("STORE_URI"), store.Options{
//		Collection: "animeCollection",
//	})
//	if err != nil {
//		return err
//	}
//	defer st.Close(ctx)
//
//	n, err := st.Count(ctx)
//
// # Metrics
//
//   - anime_store_operations_total{backend,operation,result}
//   - anime_store_operation_duration_seconds{backend,operation}
//   - anime_store_records_skipped_total{backend}
package store
