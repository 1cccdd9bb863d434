package store

import (
	"context"
	"sync"
	"time"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

const backendMemory = "memory"

// Memory is a process-local store. Its contents are lost on restart.
type Memory struct {
	mu      sync.RWMutex
	seen    map[int64]struct{}
	records []catalog.Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{seen: make(map[int64]struct{})}
}

// Count implements catalog.Store.
func (m *Memory) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

// BulkInsert implements catalog.Store.
func (m *Memory) BulkInsert(ctx context.Context, records []catalog.Record) (stats catalog.InsertStats, err error) {
	start := time.Now()
	defer func() { observe(backendMemory, "bulk_insert", start, err) }()

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		if _, dup := m.seen[rec.ID]; dup {
			stats.Skipped++
			continue
		}
		m.seen[rec.ID] = struct{}{}
		m.records = append(m.records, rec)
		stats.Inserted++
	}
	countInsert(backendMemory, stats)
	return stats, nil
}

// FindAll implements catalog.Store.
func (m *Memory) FindAll(ctx context.Context) ([]catalog.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Ping implements catalog.Store.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close implements catalog.Store.
func (m *Memory) Close(context.Context) error {
	return nil
}
