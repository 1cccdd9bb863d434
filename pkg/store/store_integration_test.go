//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

// startContainer starts image and returns host:port for the exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}
	return host + ":" + mapped.Port()
}

func redisURI(t *testing.T) string {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "6379")
	return "redis://" + addr + "/0"
}

func mongoURI(t *testing.T) string {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections"),
	}, "27017")
	return "mongodb://" + addr + "/anime"
}

func postgresURI(t *testing.T) string {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "anime",
			"POSTGRES_PASSWORD": "anime",
			"POSTGRES_DB":       "anime",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")
	return "postgres://anime:anime@" + addr + "/anime?sslmode=disable"
}

func sampleRecords(from, to int64) []catalog.Record {
	out := make([]catalog.Record, 0, to-from+1)
	for id := from; id <= to; id++ {
		out = append(out, catalog.Record{
			ID:       id,
			URL:      fmt.Sprintf("https://myanimelist.net/anime/%d", id),
			ImageURL: fmt.Sprintf("https://cdn.myanimelist.net/images/anime/%dl.jpg", id),
			Title:    fmt.Sprintf("Anime %d", id),
		})
	}
	return out
}

// exerciseStore runs the shared contract against a backend.
func exerciseStore(t *testing.T, uri string) {
	t.Helper()
	ctx := context.Background()

	st, err := Open(ctx, uri, Options{Collection: "animeCollection"})
	if err != nil {
		t.Fatalf("Open(%s) error = %v", Redact(uri), err)
	}
	defer st.Close(ctx)

	n, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("Count() on fresh store = %d, want 0", n)
	}

	first := sampleRecords(1, 600)
	stats, err := st.BulkInsert(ctx, first)
	if err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}
	if stats.Inserted != 600 || stats.Skipped != 0 {
		t.Errorf("first insert stats = %+v, want 600/0", stats)
	}

	// 551..650 overlaps the first batch by 50.
	stats, err = st.BulkInsert(ctx, sampleRecords(551, 650))
	if err != nil {
		t.Fatalf("BulkInsert() overlapping error = %v", err)
	}
	if stats.Inserted != 50 || stats.Skipped != 50 {
		t.Errorf("overlapping insert stats = %+v, want 50/50", stats)
	}

	n, _ = st.Count(ctx)
	if n != 650 {
		t.Errorf("Count() = %d, want 650", n)
	}

	all, err := st.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(all) != 650 {
		t.Fatalf("FindAll() = %d records, want 650", len(all))
	}
	for i, rec := range all {
		if rec.ID != int64(i+1) {
			t.Fatalf("FindAll()[%d].ID = %d, want insertion order", i, rec.ID)
		}
	}
	if all[0] != first[0] {
		t.Errorf("round trip = %+v, want %+v", all[0], first[0])
	}

	if err := st.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestIntegration_Redis(t *testing.T) {
	exerciseStore(t, redisURI(t))
}

func TestIntegration_Mongo(t *testing.T) {
	exerciseStore(t, mongoURI(t))
}

func TestIntegration_Postgres(t *testing.T) {
	exerciseStore(t, postgresURI(t))
}

func TestIntegration_PostgresReopenKeepsData(t *testing.T) {
	uri := postgresURI(t)
	ctx := context.Background()

	st, err := Open(ctx, uri, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := st.BulkInsert(ctx, sampleRecords(1, 10)); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}
	st.Close(ctx)

	reopened, err := Open(ctx, uri, Options{})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close(ctx)

	if n, _ := reopened.Count(ctx); n != 10 {
		t.Errorf("Count() after reopen = %d, want 10", n)
	}
}
