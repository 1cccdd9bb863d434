package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

const (
	backendRedis = "redis"

	// findChunk bounds the ids fetched per HMGET.
	findChunk = 500

	// insertChunk bounds the records written per script call.
	insertChunk = 500
)

// insertScript writes id/document pairs from ARGV. An id new to the hash
// (KEYS[1]) is appended to the order list (KEYS[2]); if the append fails the
// hash entry is removed again and the error is returned. Returns the number
// of ids written.
var insertScript = redis.NewScript(`
local written = 0
for i = 1, #ARGV, 2 do
	if redis.call('HSETNX', KEYS[1], ARGV[i], ARGV[i + 1]) == 1 then
		local pushed = redis.pcall('RPUSH', KEYS[2], ARGV[i])
		if type(pushed) == 'table' and pushed.err then
			redis.call('HDEL', KEYS[1], ARGV[i])
			return pushed
		end
		written = written + 1
	end
end
return written
`)

// Redis stores records as JSON values of a hash keyed by id, plus a list of
// ids in insertion order:
//
//	<collection>:docs   HASH  id -> JSON record
//	<collection>:order  LIST  id, id, ...
type Redis struct {
	client   *redis.Client
	docsKey  string
	orderKey string
	logger   zerolog.Logger
}

// OpenRedis connects using a redis:// or rediss:// URL.
func OpenRedis(ctx context.Context, uri string, opts Options) (*Redis, error) {
	redisOpts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	s := NewRedis(redis.NewClient(redisOpts), opts)
	if err := s.Ping(ctx); err != nil {
		s.client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return s, nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, opts Options) *Redis {
	if client == nil {
		panic("redis client cannot be nil")
	}
	opts = opts.withDefaults(backendRedis)
	return &Redis{
		client:   client,
		docsKey:  opts.Collection + ":docs",
		orderKey: opts.Collection + ":order",
		logger:   *opts.Logger,
	}
}

// Count implements catalog.Store.
func (s *Redis) Count(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { observe(backendRedis, "count", start, err) }()

	n, err = s.client.HLen(ctx, s.docsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hlen: %w", err)
	}
	return n, nil
}

// BulkInsert implements catalog.Store. Each chunk runs as one script, so a
// record lands in the hash and the order list together or not at all.
// HSETNX rejects ids already present.
func (s *Redis) BulkInsert(ctx context.Context, records []catalog.Record) (stats catalog.InsertStats, err error) {
	start := time.Now()
	defer func() { observe(backendRedis, "bulk_insert", start, err) }()

	if len(records) == 0 {
		return stats, nil
	}

	keys := []string{s.docsKey, s.orderKey}
	for lo := 0; lo < len(records); lo += insertChunk {
		hi := min(lo+insertChunk, len(records))

		args := make([]any, 0, 2*(hi-lo))
		for _, rec := range records[lo:hi] {
			data, err := json.Marshal(rec)
			if err != nil {
				return stats, fmt.Errorf("marshal record %d: %w", rec.ID, err)
			}
			args = append(args, strconv.FormatInt(rec.ID, 10), data)
		}

		n, err := insertScript.Run(ctx, s.client, keys, args...).Int()
		if err != nil {
			countInsert(backendRedis, stats)
			return stats, fmt.Errorf("redis insert script: %w", err)
		}
		stats.Inserted += n
		stats.Skipped += (hi - lo) - n
	}
	countInsert(backendRedis, stats)

	s.logger.Debug().
		Int("inserted", stats.Inserted).
		Int("skipped", stats.Skipped).
		Msg("Bulk insert complete")
	return stats, nil
}

// FindAll implements catalog.Store.
func (s *Redis) FindAll(ctx context.Context) (records []catalog.Record, err error) {
	start := time.Now()
	defer func() { observe(backendRedis, "find_all", start, err) }()

	ids, err := s.client.LRange(ctx, s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	records = make([]catalog.Record, 0, len(ids))
	for lo := 0; lo < len(ids); lo += findChunk {
		hi := min(lo+findChunk, len(ids))
		values, err := s.client.HMGet(ctx, s.docsKey, ids[lo:hi]...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis hmget: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				s.logger.Warn().Str("id", ids[lo+i]).Msg("Order list references missing document")
				continue
			}
			var rec catalog.Record
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				return nil, fmt.Errorf("decode record %s: %w", ids[lo+i], err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// Ping implements catalog.Store.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements catalog.Store.
func (s *Redis) Close(context.Context) error {
	return s.client.Close()
}
