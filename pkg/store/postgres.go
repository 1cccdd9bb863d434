package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

const (
	backendPostgres = "postgres"

	stagingTable = "anime_staging"
)

// Postgres stores records as JSONB documents keyed by id. seq preserves
// insertion order.
type Postgres struct {
	db     *pgxpool.Pool
	table  string
	logger zerolog.Logger
}

// OpenPostgres connects using a postgres:// URL and creates the table if
// needed.
func OpenPostgres(ctx context.Context, uri string, opts Options) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	s := NewPostgres(pool, opts)
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres wraps an existing pool. Call Migrate before use.
func NewPostgres(db *pgxpool.Pool, opts Options) *Postgres {
	if db == nil {
		panic("postgres pool cannot be nil")
	}
	opts = opts.withDefaults(backendPostgres)
	return &Postgres{
		db:     db,
		table:  pgx.Identifier{opts.Collection}.Sanitize(),
		logger: *opts.Logger,
	}
}

// Migrate creates the records table.
func (s *Postgres) Migrate(ctx context.Context) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			id  BIGINT PRIMARY KEY,
			doc JSONB NOT NULL
		)`, s.table)
	if _, err := s.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Count implements catalog.Store.
func (s *Postgres) Count(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { observe(backendPostgres, "count", start, err) }()

	if err = s.db.QueryRow(ctx, "SELECT count(*) FROM "+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres count: %w", err)
	}
	return n, nil
}

// BulkInsert implements catalog.Store. Records are copied into a staging
// table and moved over with ON CONFLICT DO NOTHING, so duplicate ids are
// skipped instead of failing the batch.
func (s *Postgres) BulkInsert(ctx context.Context, records []catalog.Record) (stats catalog.InsertStats, err error) {
	start := time.Now()
	defer func() { observe(backendPostgres, "bulk_insert", start, err) }()

	if len(records) == 0 {
		return stats, nil
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return stats, fmt.Errorf("marshal record %d: %w", rec.ID, err)
		}
		rows[i] = []any{int32(i), rec.ID, json.RawMessage(data)}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const stagingSQL = `CREATE TEMP TABLE ` + stagingTable + ` (ord INT, id BIGINT, doc JSONB) ON COMMIT DROP`
	if _, err = tx.Exec(ctx, stagingSQL); err != nil {
		return stats, fmt.Errorf("create staging table: %w", err)
	}

	if _, err = tx.CopyFrom(ctx, pgx.Identifier{stagingTable}, []string{"ord", "id", "doc"}, pgx.CopyFromRows(rows)); err != nil {
		return stats, fmt.Errorf("copy records: %w", err)
	}

	insertSQL := fmt.Sprintf(`
		INSERT INTO %s (id, doc)
		SELECT id, doc FROM %s ORDER BY ord
		ON CONFLICT (id) DO NOTHING`, s.table, stagingTable)
	tag, err := tx.Exec(ctx, insertSQL)
	if err != nil {
		return stats, fmt.Errorf("insert records: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("commit: %w", err)
	}

	stats.Inserted = int(tag.RowsAffected())
	stats.Skipped = len(records) - stats.Inserted
	countInsert(backendPostgres, stats)

	s.logger.Debug().
		Int("inserted", stats.Inserted).
		Int("skipped", stats.Skipped).
		Msg("Bulk insert complete")
	return stats, nil
}

// FindAll implements catalog.Store.
func (s *Postgres) FindAll(ctx context.Context) (records []catalog.Record, err error) {
	start := time.Now()
	defer func() { observe(backendPostgres, "find_all", start, err) }()

	rows, err := s.db.Query(ctx, "SELECT doc FROM "+s.table+" ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("postgres find: %w", err)
	}

	records, err = pgx.CollectRows(rows, pgx.RowTo[catalog.Record])
	if err != nil {
		return nil, fmt.Errorf("postgres scan: %w", err)
	}
	return records, nil
}

// Ping implements catalog.Store.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close implements catalog.Store.
func (s *Postgres) Close(context.Context) error {
	s.db.Close()
	return nil
}
